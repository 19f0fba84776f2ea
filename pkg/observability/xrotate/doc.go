// Package xrotate 提供日志文件轮转功能。
//
// Rotator 接口定义了轮转器的核心行为（Write/Close/Rotate），所有实现并发安全。
//
// # 当前实现
//
//   - [NewNumbered]: 按大小轮转，备份使用递增数字后缀（app.log.1 为最新），
//     超出保留窗口的最旧备份被压缩为 app.log.N.gz（或 .zst），原文件删除
//   - [NewLumberjack]: 基于 lumberjack v2 的按大小轮转，备份名带时间戳
//
// # 编号轮转
//
// NumberedRotator 由三部分组合而成：
//
//   - [Policy]: 决定一次写入前是否需要轮转（[SizePolicy] 按字节阈值）
//   - 备份集合: 目录扫描结果（[ScanBackups]），仅识别 "<base>.<数字>" 与
//     "<base>.<数字>.<压缩后缀>"，共享前缀的无关文件被忽略
//   - [Codec]: 压缩格式（[Gzip]、[Zstd]），nil 表示超出窗口的备份直接删除
//
// 轮转步骤：关闭活动文件 → 备份后缀整体后移一位 → 活动文件改名为 .1 →
// 打开新的空活动文件 → 超出 backupCount 时只压缩编号最大的一个备份（写临时文件后 rename）。
// 轮转与压缩都在触发它的 Write 调用中同步完成，同一实例的所有操作由一把锁串行化。
//
// # 启动恢复
//
// NewNumbered 在打开活动文件前清理上次崩溃残留的压缩临时文件，
// 并把保留窗口之外的编号备份（编号空洞、多余文件）一并压缩，
// 残留文件不会导致构造失败，问题通过 WithOnError 回调上报。
//
// # 错误
//
// 文件 I/O 失败以 [*IOError] 返回，可用 errors.Is(err, ErrIO) 判断；
// 不做内部重试，由调用方决定丢弃、缓冲或退出。
package xrotate
