package xconf

import "os"

// Options 配置加载与保存选项。
type Options struct {
	// Delim 配置键的分隔符，默认 "."。
	Delim string

	// Tag 结构体标签名，默认 "koanf"。
	Tag string

	// FileMode WriteFile 使用的文件权限，默认 0640。
	FileMode os.FileMode
}

// Option 配置选项函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim:    ".",
		Tag:      "koanf",
		FileMode: 0o640,
	}
}

func applyOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithDelim 设置配置键分隔符，例如 "logs.maxLogFileSize"。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

// WithFileMode 设置 WriteFile 的文件权限。
func WithFileMode(mode os.FileMode) Option {
	return func(o *Options) {
		o.FileMode = mode
	}
}
