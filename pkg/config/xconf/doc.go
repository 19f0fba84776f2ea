// Package xconf 基于 koanf 的配置文件加载、保存与热重载。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// 格式由文件扩展名决定；从字节创建时显式指定。
//
// # 读取
//
// New 读取文件，NewFromBytes 解析字节。Unmarshal 使用 mapstructure（默认 "koanf" 标签）
// 反序列化，只覆盖配置中出现的键：先把默认值填入目标结构体再 Unmarshal，
// 缺失的键保留默认值。
//
//	s := defaults()
//	if err := cfg.Unmarshal("", &s); err != nil { ... }
//
// # 保存
//
// Encode 把结构体（同样按 "koanf" 标签）编码为 YAML/JSON，
// WriteFile 以"临时文件 + rename"方式原子写入，读者不会看到写了一半的文件。
//
// # 热重载
//
// Watch 监视配置文件所在目录（编辑器保存时常先删后建），防抖后 Reload 并回调。
// Run(ctx) 阻塞直到 ctx 取消或 Close，适合放进 errgroup。
// 回调 panic 被捕获，不会使进程崩溃。
//
// # 并发安全
//
// Reload 与 Client/Unmarshal 可并发调用；Client 返回调用时刻的快照，Reload 后指向旧配置。
package xconf
