// xlog.go 定义核心接口：Logger、Leveler、LoggerWithLevel
//
// 设计理念：
//   - 强制 context 传递，与 slog.Handler 的签名保持一致
//   - 动态级别控制，支持运行时调整
//   - 写入错误经 OnError 回调上报，不静默丢弃
//   - 生命周期管理，Build() 返回 cleanup 函数
package xlog

import (
	"context"
	"log/slog"
)

// Logger 日志接口
//
// 方法签名只接受 slog.Attr，避免隐式 key-value 转换。
type Logger interface {
	// Debug 记录 DEBUG 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 INFO 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 WARNING 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 ERROR 级别日志
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Critical 记录 CRITICAL 级别日志
	Critical(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以任意级别记录日志
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger
	// 派生 logger 共享父级的 LevelVar 和错误计数器。
	With(attrs ...slog.Attr) Logger

	// WithGroup 返回带分组的派生 Logger
	WithGroup(name string) Logger
}

// Leveler 级别控制接口
type Leveler interface {
	// SetLevel 动态设置日志级别
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level

	// Enabled 检查指定级别是否启用
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 组合接口：Logger + Leveler
//
// Build() 返回此接口。ErrorCount 返回写入失败的累计次数。
type LoggerWithLevel interface {
	Logger
	Leveler
	ErrorCount() uint64
}
