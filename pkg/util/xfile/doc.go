// Package xfile 提供日志与配置文件共用的文件系统工具。
//
// # 路径净化
//
// [SanitizePath] 规范化文件路径，拒绝空路径、空字节、目录路径和
// 相对路径穿越（".." 作为独立路径段）。以 ".." 开头的合法文件名
// （如 "..config"、"app..2024.log"）不会被误判。
//
// # 目录创建
//
// [EnsureDir] 为文件创建父目录（含多级），已存在时不报错。
//
// # 原子写入
//
// [WriteAtomic] 先写入同目录下的临时文件，fsync 后再 rename 到目标名。
// 进程在写入中途被杀死时，目标名下只可能是旧内容或完整的新内容，
// 残留的临时文件以 [TempPrefix] 开头，可由 [IsTemp] 识别并清理。
//
// # 错误处理
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
