// Package observability 提供日志相关的子包。
//
// 子包列表：
//   - xlog: 日志记录、行格式与 Sink，基于 log/slog 扩展
//   - xrotate: 日志文件轮转，编号备份与旧备份压缩
package observability
