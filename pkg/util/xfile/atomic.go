package xfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// TempPrefix 是 WriteAtomic 临时文件名的前缀。
const TempPrefix = ".tmp-"

// WriteAtomic 以"临时文件 + rename"的方式写入 filename
//
// fill 负责向临时文件写入全部内容。fill 返回错误、fsync 失败或 rename 失败时，
// 临时文件会被删除，filename 保持原状。成功时临时文件的权限被设为 perm。
//
// 临时文件与目标文件位于同一目录，保证 rename 不跨文件系统。
func WriteAtomic(filename string, perm os.FileMode, fill func(w io.Writer) error) (err error) {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}

	dir, base := SplitPath(filename)
	tmp, err := os.CreateTemp(dir, TempPrefix+base+"-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filename)
}

// IsTemp 判断 name（不含目录）是否是 WriteAtomic 为以 prefix 开头的目标
// 留下的临时文件。
func IsTemp(name, prefix string) bool {
	return strings.HasPrefix(name, TempPrefix+prefix)
}

// RemoveTemps 删除 dir 中为以 prefix 开头的目标留下的所有 WriteAtomic 临时文件
//
// 返回删除的文件数。单个文件删除失败不会中断其余文件的处理，
// 所有失败通过 errors.Join 一并返回。
func RemoveTemps(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if e.IsDir() || !IsTemp(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
