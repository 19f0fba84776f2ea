package xrotate

import (
	"errors"
	"fmt"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxBytes MaxBytes 值无效（不能为负数）
	ErrInvalidMaxBytes = errors.New("xrotate: invalid MaxBytes")

	// ErrInvalidBackupCount BackupCount 值无效（必须在 1~1024 范围内）
	ErrInvalidBackupCount = errors.New("xrotate: invalid BackupCount")

	// ErrInvalidMaxSize MaxSizeMB 值无效（必须在 1~10240 范围内）
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxSizeMB")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrUnknownCodec 未知的压缩格式名
	ErrUnknownCodec = errors.New("xrotate: unknown codec")
)

// 运行期错误
var (
	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrIO 文件 I/O 失败（写入、轮转改名、压缩）。
	// 所有 *IOError 都满足 errors.Is(err, ErrIO)。
	ErrIO = errors.New("xrotate: i/o failure")
)

// IOError 描述一次失败的文件操作
type IOError struct {
	// Op 失败的步骤，如 "write"、"rename"、"compress"
	Op string
	// Path 操作的文件路径
	Path string
	// Err 底层错误
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("xrotate: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is 使 errors.Is(err, ErrIO) 对所有 IOError 成立
func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}
