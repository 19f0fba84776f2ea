package xrotate

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/omeyang/picasso/pkg/util/xfile"
)

// Backup 一个未压缩的编号备份
type Backup struct {
	Path  string
	Index int
	Size  int64
}

// Archive 一个压缩后的编号备份
type Archive struct {
	Path  string
	Index int
	Codec string
}

// BackupSet 活动文件所在目录的扫描结果
//
// Backups 按编号升序排列（第一个为最新备份），Archives 同样按编号升序。
type BackupSet struct {
	Active   string
	Backups  []Backup
	Archives []Archive
}

// ScanBackups 扫描 filename 所在目录，返回其编号备份与压缩备份
//
// 只识别严格匹配 "<base>.<N>" 与 "<base>.<N>.<gz|zst>" 的文件（N 为正整数），
// 共享文件名前缀的其他文件（如 "<base>.old"、"<base>2"）被忽略。
func ScanBackups(filename string) (BackupSet, error) {
	dir, base := xfile.SplitPath(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return BackupSet{}, err
	}

	set := BackupSet{Active: filename}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		idx, suffix, ok := parseBackupName(e.Name(), base)
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if suffix == "" {
			var size int64
			if info, err := e.Info(); err == nil {
				size = info.Size()
			}
			set.Backups = append(set.Backups, Backup{Path: path, Index: idx, Size: size})
			continue
		}
		set.Archives = append(set.Archives, Archive{Path: path, Index: idx, Codec: codecBySuffix(suffix).Name()})
	}

	slices.SortFunc(set.Backups, func(a, b Backup) int { return a.Index - b.Index })
	slices.SortFunc(set.Archives, func(a, b Archive) int { return a.Index - b.Index })
	return set, nil
}

// parseBackupName 解析备份文件名
//
// 返回编号与压缩后缀（未压缩时为空）。
func parseBackupName(name, base string) (index int, suffix string, ok bool) {
	rest, found := strings.CutPrefix(name, base+".")
	if !found || rest == "" {
		return 0, "", false
	}

	num := rest
	if i := strings.IndexByte(rest, '.'); i >= 0 {
		num, suffix = rest[:i], rest[i+1:]
		if codecBySuffix(suffix) == nil {
			return 0, "", false
		}
	}

	if !isDigits(num) {
		return 0, "", false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, suffix, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// backupName 返回编号为 n 的备份路径
func backupName(filename string, n int) string {
	return filename + "." + strconv.Itoa(n)
}
