package xconf

import "errors"

// 配置加载、解析与保存相关错误。
var (
	// ErrEmptyPath 配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 配置读取失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 配置解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrEncodeFailed 配置编码失败。
	ErrEncodeFailed = errors.New("xconf: failed to encode config")

	// ErrNotReloadable 从字节创建的配置不支持 Reload/Watch。
	ErrNotReloadable = errors.New("xconf: config created from bytes cannot be reloaded")
)
