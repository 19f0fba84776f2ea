package xfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		filename string
	}{
		{"单层日志目录", filepath.Join(tmpDir, "logs", "application.log")},
		{"多层日志目录", filepath.Join(tmpDir, "var", "picasso", "logs", "application.log")},
		{"目录已存在", filepath.Join(tmpDir, "application.log")},
		{"当前目录文件", "application.log"},
		{"相对路径单点", "./application.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, EnsureDir(tt.filename))

			info, err := os.Stat(filepath.Dir(tt.filename))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "logs", "application.log")

	require.NoError(t, EnsureDir(filename))
	require.NoError(t, EnsureDir(filename))
}

func TestEnsureDirPermission(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "perm", "application.log")

	require.NoError(t, EnsureDirWithPerm(filename, 0700))

	info, err := os.Stat(filepath.Dir(filename))
	require.NoError(t, err)
	// umask 只会收紧权限
	assert.Zero(t, info.Mode().Perm()&^os.FileMode(0700))
}

func TestEnsureDirWithPermErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		perm     os.FileMode
		wantErr  error
	}{
		{"空路径", "", DefaultDirPerm, ErrEmptyPath},
		{"空字节", "logs/app\x00.log", DefaultDirPerm, ErrNullByte},
		{"缺少所有者执行位", "logs/app.log", 0600, ErrInvalidPerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureDirWithPerm(tt.filename, tt.perm)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
