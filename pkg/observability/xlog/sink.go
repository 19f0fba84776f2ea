package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SinkOption Sink 配置选项
type SinkOption func(*Sink)

// WithThreshold 设置阈值，低于该级别的记录被丢弃。默认 LevelDebug。
func WithThreshold(level Level) SinkOption {
	return func(s *Sink) {
		s.levelVar.Set(slog.Level(level))
	}
}

// WithLevelVar 与其他组件共享同一个 LevelVar，一处调整处处生效
func WithLevelVar(lv *slog.LevelVar) SinkOption {
	return func(s *Sink) {
		if lv != nil {
			s.levelVar = lv
		}
	}
}

// Sink 日志记录的写入端
//
// 低于阈值的记录被丢弃；其余记录格式化后以一次 Write 调用写入底层 io.Writer，
// 同一 Sink 上的写入互斥，记录之间不会交错。并发安全。
type Sink struct {
	mu       sync.Mutex
	w        io.Writer
	levelVar *slog.LevelVar
	buf      []byte
}

// NewSink 创建写入 w 的 Sink
func NewSink(w io.Writer, opts ...SinkOption) *Sink {
	s := &Sink{w: w, levelVar: new(slog.LevelVar)}
	s.levelVar.Set(slog.LevelDebug)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write 写入一条记录
//
// 记录低于阈值时返回 nil 且不写入。底层写入失败时返回包装后的错误，
// 原始错误可通过 errors.Is / errors.As 取得（如 xrotate.ErrIO）。
func (s *Sink) Write(r Record) error {
	if !s.Enabled(r.Level) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf = AppendRecord(s.buf[:0], r)
	if _, err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("xlog: write record: %w", err)
	}
	return nil
}

// Log 以当前时间写入一条记录
func (s *Sink) Log(level Level, msg string) error {
	return s.Write(NewRecord(level, msg))
}

// Enabled 判断 level 是否达到阈值
func (s *Sink) Enabled(level Level) bool {
	return level >= Level(s.levelVar.Level())
}

// SetLevel 动态调整阈值
func (s *Sink) SetLevel(level Level) {
	s.levelVar.Set(slog.Level(level))
}

// GetLevel 返回当前阈值
func (s *Sink) GetLevel() Level {
	return Level(s.levelVar.Level())
}

// Close 关闭底层 writer（若实现了 io.Closer）
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
