// Package xlog 基于 log/slog 的日志库，输出落盘到轮转文件。
//
// # 行格式
//
// 默认格式（"line"）每条记录一行：
//
//	2026-10-18 10:00:00,123 - WARNING - disk almost full
//
// 时间戳精确到毫秒，级别为 DEBUG/INFO/WARNING/ERROR/CRITICAL 之一。
// 消息中的换行会被转义为 "\n"，保证一条记录只占一行。
// 通过 Logger 传入的 slog.Attr 以 " key=value" 追加在消息之后。
//
// # Sink
//
// [Sink] 是最底层的写入端：按阈值过滤 [Record]，格式化后一次性写入 io.Writer
// （通常是 xrotate.NumberedRotator）。写入失败时 [Sink.Write] 返回错误，
// 不做重试也不吞掉错误。
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，后续 Set 操作被跳过）：
//
//	logger, cleanup, err := xlog.New().
//		SetRotation("logs/application.log",
//			xrotate.WithMaxBytes(5<<20),
//			xrotate.WithBackupCount(5)).
//		SetLevel(xlog.LevelDebug).
//		SetOnError(func(err error) { fmt.Fprintln(os.Stderr, err) }).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 没有包级全局 Logger：Logger 由使用方显式构造并传递。
//
// # 错误通道
//
// slog 的 Logger 方法没有返回值，Handler.Handle 返回的写入错误通过
// [Builder.SetOnError] 注册的回调上报，并计入 [LoggerWithLevel.ErrorCount]。
// 需要同步拿到错误的调用方直接使用 [Sink.Write]。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)、LevelCritical(12)。
// [ParseLevel] 大小写不敏感，接受 warn/warning、critical/fatal 等别名。
// Level 实现 encoding.TextMarshaler/TextUnmarshaler，可直接用于配置文件。
package xlog
