package xlog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// 编译时接口检查
var _ slog.Handler = (*LineHandler)(nil)

// LineHandler 以行格式输出的 slog.Handler
//
// 消息之后依次追加 With 预置的属性和记录自带的属性，形如 " key=value"；
// 分组以 "group.key" 展开。Handle 把 Sink 的写入错误原样返回。
type LineHandler struct {
	sink     *Sink
	preAttrs string // WithAttrs 预格式化的属性
	prefix   string // WithGroup 累积的分组前缀，形如 "a.b."
}

// NewLineHandler 创建写入 sink 的 LineHandler
func NewLineHandler(sink *Sink) *LineHandler {
	return &LineHandler{sink: sink}
}

// Enabled 实现 slog.Handler
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.sink.Enabled(Level(level))
}

// Handle 实现 slog.Handler
func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	if h.preAttrs != "" || r.NumAttrs() > 0 {
		var sb strings.Builder
		sb.WriteString(msg)
		sb.WriteString(h.preAttrs)
		r.Attrs(func(a slog.Attr) bool {
			appendAttr(&sb, h.prefix, a)
			return true
		})
		msg = sb.String()
	}

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	return h.sink.Write(Record{Time: t, Level: Level(r.Level), Message: msg})
}

// WithAttrs 实现 slog.Handler
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb strings.Builder
	sb.WriteString(h.preAttrs)
	for _, a := range attrs {
		appendAttr(&sb, h.prefix, a)
	}
	return &LineHandler{sink: h.sink, preAttrs: sb.String(), prefix: h.prefix}
}

// WithGroup 实现 slog.Handler
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &LineHandler{sink: h.sink, preAttrs: h.preAttrs, prefix: h.prefix + name + "."}
}

// appendAttr 把属性以 " key=value" 写入 sb，空属性忽略，分组递归展开
func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range group {
			appendAttr(sb, p, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	sb.WriteString(quoteIfNeeded(attrString(a.Value)))
}

func attrString(v slog.Value) string {
	if v.Kind() == slog.KindTime {
		return v.Time().Format(TimeLayout)
	}
	return v.String()
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"\t\r\n") {
		return strconv.Quote(s)
	}
	return s
}
