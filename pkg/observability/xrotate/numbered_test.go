package xrotate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// =============================================================================
// 测试辅助
// =============================================================================

func newTestRotator(t *testing.T, opts ...Option) (*NumberedRotator, string) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "logs", "application.log")
	r, err := NewNumbered(filename, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, filename
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func decompressString(t *testing.T, path string, codec Codec) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rc, err := codec.NewReader(f)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func writeString(t *testing.T, r *NumberedRotator, s string) {
	t.Helper()
	n, err := r.Write([]byte(s))
	require.NoError(t, err)
	require.Equal(t, len(s), n)
}

func dirListing(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// =============================================================================
// 构造与配置
// =============================================================================

func TestNewNumberedCreatesDirectoryAndActiveFile(t *testing.T) {
	r, filename := newTestRotator(t)

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Equal(t, DefaultFileMode, info.Mode().Perm()&DefaultFileMode)
	assert.Equal(t, filename, r.Filename())
	assert.Zero(t, r.Size())
}

func TestNewNumberedAppendsToExistingFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "application.log")
	require.NoError(t, os.WriteFile(filename, []byte("before restart\n"), 0600))

	r, err := NewNumbered(filename)
	require.NoError(t, err)
	defer r.Close()

	assert.EqualValues(t, len("before restart\n"), r.Size())
	writeString(t, r, "after restart\n")
	assert.Equal(t, "before restart\nafter restart\n", readString(t, filename))
}

func TestNumberedConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		opts     []Option
		wantErr  error
	}{
		{"空文件名", "", nil, ErrEmptyFilename},
		{"MaxBytes 为负数", "/tmp/app.log", []Option{WithMaxBytes(-1)}, ErrInvalidMaxBytes},
		{"BackupCount 为零", "/tmp/app.log", []Option{WithBackupCount(0)}, ErrInvalidBackupCount},
		{"BackupCount 超过上限", "/tmp/app.log", []Option{WithBackupCount(1025)}, ErrInvalidBackupCount},
		{"FileMode 包含 setuid 位", "/tmp/app.log", []Option{WithFileMode(os.ModeSetuid | 0644)}, ErrInvalidFileMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNumbered(tt.filename, tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewNumberedRejectsTraversal(t *testing.T) {
	_, err := NewNumbered("../../etc/application.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
}

func TestNewNumberedNilOptionIgnored(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "application.log")
	r, err := NewNumbered(filename, nil, WithMaxBytes(100), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

// =============================================================================
// 写入与轮转阈值
// =============================================================================

func TestNumberedNoRotationWithinThreshold(t *testing.T) {
	r, filename := newTestRotator(t, WithMaxBytes(100), WithBackupCount(2))

	var want strings.Builder
	for i := range 10 {
		line := fmt.Sprintf("line-%03d\n", i) // 9 字节
		writeString(t, r, line)
		want.WriteString(line)
	}
	writeString(t, r, "x\n") // 恰好 92 字节，仍不超过阈值
	want.WriteString("x\n")

	assert.Equal(t, want.String(), readString(t, filename))
	set, err := r.Backups()
	require.NoError(t, err)
	assert.Empty(t, set.Backups)
	assert.Empty(t, set.Archives)
}

func TestNumberedRotatesBeforeCrossingThreshold(t *testing.T) {
	r, filename := newTestRotator(t, WithMaxBytes(100), WithBackupCount(2))

	full := strings.Repeat("0123456789", 10) // 恰好 100 字节
	writeString(t, r, full)
	assert.NoFileExists(t, filename+".1", "达到阈值但未超过，不轮转")

	// 下一条写入会使文件达到 101 字节，先轮转再写
	writeString(t, r, "z")

	assert.Equal(t, full, readString(t, filename+".1"))
	assert.Equal(t, "z", readString(t, filename))
	assert.EqualValues(t, 1, r.Size())
}

func TestNumberedOversizedWriteIntoEmptyFile(t *testing.T) {
	r, filename := newTestRotator(t, WithMaxBytes(10), WithBackupCount(2))

	big := strings.Repeat("a", 50)
	writeString(t, r, big)
	assert.NoFileExists(t, filename+".1", "空文件不轮转")
	assert.Equal(t, big, readString(t, filename))

	writeString(t, r, "b")
	assert.Equal(t, big, readString(t, filename+".1"))
	assert.Equal(t, "b", readString(t, filename))
}

func TestNumberedZeroMaxBytesNeverRotates(t *testing.T) {
	r, filename := newTestRotator(t, WithMaxBytes(0))

	for range 100 {
		writeString(t, r, strings.Repeat("x", 1024))
	}
	assert.NoFileExists(t, filename+".1")
	assert.EqualValues(t, 100*1024, r.Size())
}

func TestNumberedCustomPolicy(t *testing.T) {
	r, filename := newTestRotator(t, WithMaxBytes(1), WithPolicy(NeverPolicy{}))

	writeString(t, r, "one\n")
	writeString(t, r, "two\n")
	assert.NoFileExists(t, filename+".1", "自定义策略覆盖 MaxBytes")
}

// =============================================================================
// 轮转与压缩
// =============================================================================

func TestNumberedRotateEmptiesActiveFile(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(2))

	writeString(t, r, "2026-10-18 10:00:00,000 - INFO - before rotation\n")
	require.NoError(t, r.Rotate())

	assert.Empty(t, readString(t, filename))
	assert.Zero(t, r.Size())
	assert.Equal(t, "2026-10-18 10:00:00,000 - INFO - before rotation\n", readString(t, filename+".1"))
}

func TestNumberedFourRotations(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(2))

	for _, chunk := range []string{"A\n", "B\n", "C\n", "D\n"} {
		writeString(t, r, chunk)
		require.NoError(t, r.Rotate())
	}

	assert.Equal(t, "D\n", readString(t, filename+".1"))
	assert.Equal(t, "C\n", readString(t, filename+".2"))
	assert.NoFileExists(t, filename+".3")
	// 第 2 次轮转之前写入的内容
	assert.Equal(t, "B\n", decompressString(t, filename+".3.gz", Gzip()))
}

func TestNumberedArchiveRoundTrip(t *testing.T) {
	r, _ := newTestRotator(t, WithBackupCount(2))

	var original bytes.Buffer
	for i := range 500 {
		fmt.Fprintf(&original, "2026-10-18 10:00:00,%03d - DEBUG - record %d\n", i%1000, i)
	}
	writeString(t, r, original.String())
	for range 3 { // backupCount + 1 次轮转
		require.NoError(t, r.Rotate())
	}

	set, err := r.Backups()
	require.NoError(t, err)
	require.Len(t, set.Archives, 1)
	assert.Equal(t, 3, set.Archives[0].Index)
	assert.Equal(t, CodecGzip, set.Archives[0].Codec)
	assert.Equal(t, original.String(), decompressString(t, set.Archives[0].Path, Gzip()))
}

func TestNumberedPlainBackupsBounded(t *testing.T) {
	const backupCount = 3
	r, _ := newTestRotator(t, WithBackupCount(backupCount))

	for i := range 12 {
		writeString(t, r, fmt.Sprintf("generation %d\n", i))
		require.NoError(t, r.Rotate())

		set, err := r.Backups()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(set.Backups), backupCount, "rotation %d", i+1)
		if i+1 > backupCount {
			assert.Len(t, set.Archives, 1, "rotation %d", i+1)
		}
	}
}

func TestNumberedCompressNoopBelowWindow(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(2))
	writeString(t, r, "one\n")
	require.NoError(t, r.Rotate())
	writeString(t, r, "two\n")
	require.NoError(t, r.Rotate())

	dir := filepath.Dir(filename)
	before := dirListing(t, dir)
	require.NoError(t, r.Compress())
	assert.Equal(t, before, dirListing(t, dir))
}

func TestNumberedWithoutCodecDeletesOverflow(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(2), WithCodec(nil))

	for _, chunk := range []string{"A\n", "B\n", "C\n"} {
		writeString(t, r, chunk)
		require.NoError(t, r.Rotate())
	}

	assert.Equal(t, []string{"application.log", "application.log.1", "application.log.2"},
		dirListing(t, filepath.Dir(filename)))
}

func TestNumberedZstdCodec(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(1), WithCodec(Zstd()))

	writeString(t, r, "first\n")
	require.NoError(t, r.Rotate())
	writeString(t, r, "second\n")
	require.NoError(t, r.Rotate())

	assert.Equal(t, "second\n", readString(t, filename+".1"))
	assert.Equal(t, "first\n", decompressString(t, filename+".2.zst", Zstd()))
}

func TestNumberedShiftOverwritesStaleBackup(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "application.log")
	require.NoError(t, os.WriteFile(filename+".2", []byte("two"), 0600))
	require.NoError(t, os.WriteFile(filename+".3", []byte("stale"), 0600))

	r, err := NewNumbered(filename, WithBackupCount(2))
	require.NoError(t, err)
	defer r.Close()

	writeString(t, r, "one")
	require.NoError(t, r.Rotate())

	assert.Equal(t, "one", readString(t, filename+".1"))
	assert.Equal(t, "two", readString(t, filename+".3"), "后移时覆盖残留文件")
	assert.NoFileExists(t, filename+".2")
}

func TestNumberedRotateCompressesOnlyOldest(t *testing.T) {
	r, filename := newTestRotator(t, WithBackupCount(2))

	// 运行期间出现的多余编号文件不会在一次轮转中全部压缩
	for _, n := range []int{1, 2, 4, 5} {
		require.NoError(t, os.WriteFile(fmt.Sprintf("%s.%d", filename, n), []byte(fmt.Sprintf("gen %d\n", n)), 0600))
	}
	writeString(t, r, "active\n")
	require.NoError(t, r.Rotate())

	set, err := r.Backups()
	require.NoError(t, err)
	require.Len(t, set.Archives, 1)
	assert.Equal(t, 5, set.Archives[0].Index)
	assert.Equal(t, "gen 5\n", decompressString(t, filename+".5.gz", Gzip()))
	assert.Len(t, set.Backups, 4)

	// 每次 Compress 同样只处理一个
	require.NoError(t, r.Compress())
	set, err = r.Backups()
	require.NoError(t, err)
	assert.Len(t, set.Archives, 2)
	assert.Len(t, set.Backups, 3)
	assert.FileExists(t, filename+".4.gz")
}

// =============================================================================
// 启动恢复
// =============================================================================

func TestNewNumberedRecoversLeftovers(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "application.log")
	files := map[string]string{
		"application.log.1":                 "newest",
		"application.log.4":                 "gap",
		"application.log.7":                 "stray",
		".tmp-application.log.3.gz-1234567": "truncated",
		"application.log.old":               "unrelated",
		"application.logx":                  "unrelated",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}

	var reported []error
	r, err := NewNumbered(filename, WithBackupCount(2), WithOnError(func(err error) {
		reported = append(reported, err)
	}))
	require.NoError(t, err)
	defer r.Close()

	assert.Empty(t, reported)
	assert.Equal(t, []string{
		"application.log",
		"application.log.1",
		"application.log.4",
		"application.log.7.gz",
		"application.log.old",
		"application.logx",
	}, dirListing(t, dir))
	assert.Equal(t, "stray", decompressString(t, filepath.Join(dir, "application.log.7.gz"), Gzip()))
}

func TestNewNumberedRecoveryFailureDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "application.log")
	// 与归档同名的目录使压缩 rename 失败
	require.NoError(t, os.WriteFile(filename+".1", []byte("one"), 0600))
	require.NoError(t, os.WriteFile(filename+".2", []byte("two"), 0600))
	require.NoError(t, os.Mkdir(filename+".2.gz", 0750))
	require.NoError(t, os.WriteFile(filepath.Join(filename+".2.gz", "keep"), nil, 0600))

	var reported error
	r, err := NewNumbered(filename, WithBackupCount(1), WithOnError(func(err error) {
		reported = err
	}))
	require.NoError(t, err)
	defer r.Close()

	require.Error(t, reported)
	assert.ErrorIs(t, reported, ErrIO)
	assert.FileExists(t, filename+".2", "压缩失败时原备份保留")
}

// =============================================================================
// 错误与生命周期
// =============================================================================

func TestNumberedClosed(t *testing.T) {
	r, _ := newTestRotator(t)
	require.NoError(t, r.Close())

	_, err := r.Write([]byte("late\n"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Compress(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}

func TestNumberedDirectoryRemovedIsIOError(t *testing.T) {
	r, filename := newTestRotator(t)
	writeString(t, r, "hello\n")
	require.NoError(t, os.RemoveAll(filepath.Dir(filename)))

	err := r.Rotate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.Equal(t, filename, ioErr.Path)

	_, err = r.Write([]byte("after\n"))
	assert.ErrorIs(t, err, ErrIO, "目录被外部删除后不自动恢复")
}

// =============================================================================
// 并发
// =============================================================================

var recordLine = regexp.MustCompile(`^w\d{2}-\d{4}-[x]+$`)

func TestNumberedConcurrentWrites(t *testing.T) {
	const (
		workers  = 8
		perGo    = 200
		maxBytes = 1000
	)
	r, filename := newTestRotator(t, WithMaxBytes(maxBytes), WithBackupCount(3), WithCodec(nil))

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perGo {
				line := fmt.Sprintf("w%02d-%04d-%s\n", w, i, strings.Repeat("x", 10))
				if _, err := r.Write([]byte(line)); err != nil {
					t.Errorf("write: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	set, err := r.Backups()
	require.NoError(t, err)
	require.Len(t, set.Backups, 3)

	for _, path := range []string{filename, set.Backups[0].Path, set.Backups[1].Path, set.Backups[2].Path} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.LessOrEqual(t, info.Size(), int64(maxBytes), path)

		f, err := os.Open(path)
		require.NoError(t, err)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			assert.Regexp(t, recordLine, sc.Text(), "记录不应交错")
		}
		require.NoError(t, sc.Err())
		require.NoError(t, f.Close())
	}
}

// =============================================================================
// 指标
// =============================================================================

func TestNumberedMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	r, _ := newTestRotator(t, WithBackupCount(2), WithMeterProvider(provider))
	for range 4 {
		writeString(t, r, "x\n")
		require.NoError(t, r.Rotate())
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	assert.EqualValues(t, 4, counterValue(t, rm, metricRotations))
	assert.EqualValues(t, 2, counterValue(t, rm, metricCompressions))
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
