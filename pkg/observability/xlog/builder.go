package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/picasso/pkg/observability/xrotate"
)

// 输出格式
const (
	FormatLine = "line" // "<时间戳> - <级别> - <消息>"，默认
	FormatText = "text" // slog.TextHandler
	FormatJSON = "json" // slog.JSONHandler
)

// Builder 日志配置构建器
type Builder struct {
	output   io.Writer
	levelVar *slog.LevelVar
	format   string
	rotator  xrotate.Rotator
	onError  func(error) // 写入错误回调（Handler.Handle 失败时）
	err      error
}

// New 创建配置构建器，默认输出到 stderr，级别 DEBUG，行格式
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   FormatLine,
	}
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：line、text 或 json，空值视为 line
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "":
		b.format = FormatLine
	case FormatLine, FormatText, FormatJSON:
		b.format = normalized
	default:
		b.err = fmt.Errorf("xlog: unknown format %q", format)
	}
	return b
}

// SetRotation 输出到按序号轮转的文件（base.1 最新），旧备份按 opts 压缩
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if b.err != nil {
		return b
	}
	rotator, err := xrotate.NewNumbered(filename, opts...)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetRotator(rotator)
}

// SetLumberjack 输出到按时间戳命名备份的轮转文件
func (b *Builder) SetLumberjack(filename string, opts ...xrotate.LumberjackOption) *Builder {
	if b.err != nil {
		return b
	}
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetRotator(rotator)
}

// SetRotator 使用已创建的 Rotator 作为输出，cleanup 时关闭它
func (b *Builder) SetRotator(r xrotate.Rotator) *Builder {
	if b.err != nil {
		return b
	}
	b.closeRotator()
	b.rotator = r
	b.output = r
	return b
}

// SetOnError 设置写入错误回调
//
// 当 Handler.Handle() 失败时（如磁盘满、目录被删除），会调用此回调。
// Logger 方法本身没有返回值，回调是写入错误到达调用方的通道。
//
// 注意事项：
//   - 回调在写入路径同步执行，应保持轻量
//   - 内置递归保护：回调内部再次记录日志失败不会导致无限递归
//   - 回调 panic 被捕获并计入 ErrorCount
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，关闭 Rotator（可重复调用）
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		b.closeRotator()
		return nil, nil, b.err
	}
	if b.output == nil {
		return nil, nil, fmt.Errorf("xlog: nil output")
	}

	var handler slog.Handler
	switch b.format {
	case FormatText, FormatJSON:
		opts := &slog.HandlerOptions{
			Level:       b.levelVar,
			ReplaceAttr: replaceLevelName,
		}
		if b.format == FormatJSON {
			handler = slog.NewJSONHandler(b.output, opts)
		} else {
			handler = slog.NewTextHandler(b.output, opts)
		}
	default:
		handler = NewLineHandler(NewSink(b.output, WithLevelVar(b.levelVar)))
	}

	logger := newLogger(handler, b.levelVar, b.onError)
	return logger, b.createCleanup(), nil
}

// replaceLevelName 让 slog 内置 handler 使用 WARNING/CRITICAL 等级别名
func replaceLevelName(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lv, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, Level(lv).String())
		}
	}
	return a
}

func (b *Builder) closeRotator() {
	if b.rotator != nil {
		_ = b.rotator.Close() //nolint:errcheck // 被替换或构建失败时的尽力关闭
		b.rotator = nil
	}
}

// createCleanup 创建清理函数
func (b *Builder) createCleanup() func() error {
	var once sync.Once
	rotator := b.rotator

	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
