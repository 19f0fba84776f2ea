// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 路径规范化、父目录创建、临时文件 + rename 的原子写入
package util
