package xrotate

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec 备份压缩格式
type Codec interface {
	// Name 格式名，如 "gzip"
	Name() string
	// Suffix 压缩文件后缀（不含点），如 "gz"
	Suffix() string
	// NewWriter 返回压缩写入器，Close 时刷新全部数据（不关闭 w）
	NewWriter(w io.Writer) (io.WriteCloser, error)
	// NewReader 返回解压读取器
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// 已知格式名
const (
	CodecGzip = "gzip"
	CodecZstd = "zstd"
	CodecNone = "none"
)

type gzipCodec struct {
	level int
}

// Gzip 返回 gzip 格式（.gz），使用默认压缩级别
func Gzip() Codec { return gzipCodec{level: gzip.DefaultCompression} }

func (gzipCodec) Name() string   { return CodecGzip }
func (gzipCodec) Suffix() string { return "gz" }

func (c gzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.level)
}

func (gzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

type zstdCodec struct{}

// Zstd 返回 zstd 格式（.zst）
func Zstd() Codec { return zstdCodec{} }

func (zstdCodec) Name() string   { return CodecZstd }
func (zstdCodec) Suffix() string { return "zst" }

func (zstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
}

func (zstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return zstdReadCloser{d}, nil
}

// zstdReadCloser 适配 zstd.Decoder.Close（无返回值）到 io.Closer
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// CodecByName 按名称查找压缩格式（大小写不敏感）
//
// 空字符串返回默认的 gzip；"none" 返回 nil，表示不压缩（超出窗口的备份直接删除）。
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", CodecGzip, "gz":
		return Gzip(), nil
	case CodecZstd, "zst":
		return Zstd(), nil
	case CodecNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// codecBySuffix 按文件后缀查找压缩格式，未知后缀返回 nil
func codecBySuffix(suffix string) Codec {
	switch suffix {
	case "gz":
		return Gzip()
	case "zst":
		return Zstd()
	default:
		return nil
	}
}
