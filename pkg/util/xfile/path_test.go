package xfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"绝对路径", "/var/log/picasso/application.log", "/var/log/picasso/application.log"},
		{"相对路径", "logs/application.log", "logs/application.log"},
		{"纯文件名", "application.log", "application.log"},
		{"文件名中间的双点", "app..2026.log", "app..2026.log"},
		{"隐藏文件", ".picasso.log", ".picasso.log"},
		{"编号备份", "logs/application.log.3", "logs/application.log.3"},
		{"压缩备份带单点段", "logs/./application.log.6.gz", "logs/application.log.6.gz"},
		{"重复分隔符", "/var//log///application.log", "/var/log/application.log"},
		{"绝对路径中的双点被解析", "/var/log/../../etc/app.log", "/etc/app.log"},
		{"中文文件名", "/var/log/日志.log", "/var/log/日志.log"},
		{"带空格", "logs/my app.log", "logs/my app.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestSanitizePathErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"空路径", "", ErrEmptyPath},
		{"空字节", "logs/app\x00.log", ErrNullByte},
		{"尾部斜杠", "/var/log/", ErrInvalidPath},
		{"尾部反斜杠", `logs\`, ErrInvalidPath},
		{"单点", ".", ErrInvalidPath},
		{"根目录", "/", ErrInvalidPath},
		{"相对穿越", "../etc/passwd", ErrPathTraversal},
		{"多层相对穿越", "../../logs/app.log", ErrPathTraversal},
		{"Windows 风格穿越", `..\logs\app.log`, ErrPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizePath(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantDir  string
		wantBase string
	}{
		{"带目录", filepath.Join("logs", "application.log"), "logs" + string(filepath.Separator), "application.log"},
		{"纯文件名", "application.log", ".", "application.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, base := SplitPath(tt.input)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantBase, base)
		})
	}
}

func TestEscapes(t *testing.T) {
	assert.True(t, escapes("a/../b"))
	assert.True(t, escapes(`a\..\b`))
	assert.False(t, escapes("a/..b/c"))
	assert.False(t, escapes("a/b../c"))
}
