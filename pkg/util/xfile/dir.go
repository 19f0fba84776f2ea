package xfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDirPerm 是日志目录的默认权限。
const DefaultDirPerm = 0750

// EnsureDir 以 DefaultDirPerm 创建 filename 的父目录（含缺失的上级目录）。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 以 perm 创建 filename 的父目录
//
// filename 是文件路径而不是目录路径。perm 必须带所有者执行位，
// 否则创建出的目录无法进入。已存在的目录保持原权限。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	switch {
	case filename == "":
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	case perm&0o100 == 0:
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	if dir := filepath.Dir(filename); dir != "." {
		return os.MkdirAll(dir, perm)
	}
	return nil
}
