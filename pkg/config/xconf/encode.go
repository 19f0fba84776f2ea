package xconf

import (
	"fmt"
	"io"

	"github.com/go-viper/mapstructure/v2"

	"github.com/omeyang/picasso/pkg/util/xfile"
)

// Encode 把结构体 v 按标签编码为 format 格式
//
// 嵌套结构体展开为嵌套映射，键名取自标签（默认 "koanf"），与 Unmarshal 对称。
func Encode(v any, format Format, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)

	parser, err := parserFor(format)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: o.Tag,
		Result:  &m,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}

	data, err := parser.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return data, nil
}

// WriteFile 把 v 编码后原子写入 path，格式由扩展名决定，缺失的父目录会被创建
func WriteFile(path string, v any, opts ...Option) error {
	if path == "" {
		return ErrEmptyPath
	}
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(v, format, opts...)
	if err != nil {
		return err
	}

	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return err
	}
	return xfile.WriteAtomic(safePath, applyOptions(opts).FileMode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
