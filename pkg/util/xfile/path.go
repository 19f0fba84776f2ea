package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// isSep 把 '/' 与 '\' 都视为分隔符，Linux 上也能识别 Windows 风格的穿越。
func isSep(r rune) bool { return r == '/' || r == '\\' }

// escapes 报告 path 中是否存在独立的 ".." 路径段。
// "app..2024.log" 这类文件名中间的双点不算。
func escapes(path string) bool {
	for _, seg := range strings.FieldsFunc(path, isSep) {
		if seg == ".." {
			return true
		}
	}
	return false
}

// SanitizePath 校验并规范化日志文件路径
//
// 拒绝空路径、包含空字节的路径、以分隔符结尾的目录路径，以及规范化后
// 仍带 ".." 段的相对路径。绝对路径里的 ".." 由 filepath.Clean 解析
// （"/var/log/../etc" -> "/etc"）。
func SanitizePath(filename string) (string, error) {
	switch {
	case filename == "":
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	case strings.ContainsRune(filename, 0):
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	case strings.HasSuffix(filename, "/"), strings.HasSuffix(filename, `\`):
		// Clean 会去掉尾部分隔符，必须先判断
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if escapes(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}
	if base := filepath.Base(cleaned); base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// SplitPath 把 filename 拆成所在目录与文件名，目录为空时返回 "."。
func SplitPath(filename string) (dir, base string) {
	dir, base = filepath.Split(filename)
	if dir == "" {
		dir = "."
	}
	return dir, base
}
