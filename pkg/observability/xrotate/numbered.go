package xrotate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/picasso/pkg/util/xfile"
)

// 编号轮转默认配置值
const (
	// DefaultMaxBytes 默认轮转阈值（5 MiB）
	DefaultMaxBytes = 5 * 1024 * 1024

	// DefaultBackupCount 默认保留的未压缩备份数量
	DefaultBackupCount = 5

	// DefaultFileMode 默认日志文件权限
	DefaultFileMode os.FileMode = 0640

	// maxBackupCount 备份数量上限
	maxBackupCount = 1024
)

// 编译时断言
var _ Rotator = (*NumberedRotator)(nil)

// numberedConfig 编号轮转器配置
type numberedConfig struct {
	// MaxBytes 轮转阈值（字节），0 表示不按大小轮转
	MaxBytes int64

	// BackupCount 保留的未压缩备份数量，超出的最旧备份被压缩
	BackupCount int

	// Policy 自定义轮转策略，非 nil 时覆盖 MaxBytes
	Policy Policy

	// Codec 压缩格式，nil 表示超出窗口的备份直接删除
	Codec Codec

	// FileMode 活动文件与压缩文件的权限
	FileMode os.FileMode

	// MeterProvider 指标提供者，nil 时使用 noop
	MeterProvider metric.MeterProvider

	// OnError 启动恢复阶段的错误回调（best-effort，不影响构造结果）
	OnError func(error)
}

// Option 编号轮转器配置选项函数
type Option func(*numberedConfig)

// WithMaxBytes 设置轮转阈值（字节），0 表示不按大小轮转
func WithMaxBytes(n int64) Option {
	return func(c *numberedConfig) {
		c.MaxBytes = n
	}
}

// WithBackupCount 设置保留的未压缩备份数量
func WithBackupCount(n int) Option {
	return func(c *numberedConfig) {
		c.BackupCount = n
	}
}

// WithPolicy 设置自定义轮转策略
func WithPolicy(p Policy) Option {
	return func(c *numberedConfig) {
		c.Policy = p
	}
}

// WithCodec 设置压缩格式，nil 表示不压缩（超出窗口的备份直接删除）
func WithCodec(codec Codec) Option {
	return func(c *numberedConfig) {
		c.Codec = codec
	}
}

// WithFileMode 设置日志文件权限
func WithFileMode(mode os.FileMode) Option {
	return func(c *numberedConfig) {
		c.FileMode = mode
	}
}

// WithMeterProvider 设置 OTel MeterProvider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *numberedConfig) {
		c.MeterProvider = provider
	}
}

// WithOnError 设置启动恢复阶段的错误回调
//
// 回调函数不得向同一 Rotator 写入数据。
func WithOnError(fn func(error)) Option {
	return func(c *numberedConfig) {
		c.OnError = fn
	}
}

// NumberedRotator 编号备份的轮转器
//
// 活动文件固定为 filename，备份依次为 filename.1（最新）… filename.<BackupCount>，
// 超出窗口的备份压缩为 filename.<N>.<suffix>。
type NumberedRotator struct {
	mu sync.Mutex

	filename    string
	backupCount int
	policy      Policy
	codec       Codec
	fileMode    os.FileMode
	metrics     *rotateMetrics

	file   *os.File
	size   int64
	closed bool
}

// NewNumbered 创建编号备份的日志轮转器
//
// 构造时会：规范化路径、创建缺失的父目录、清理上次崩溃残留的压缩临时文件、
// 压缩保留窗口之外的残留备份，最后以追加模式打开（或创建）活动文件。
func NewNumbered(filename string, opts ...Option) (*NumberedRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := numberedConfig{
		MaxBytes:    DefaultMaxBytes,
		BackupCount: DefaultBackupCount,
		Codec:       Gzip(),
		FileMode:    DefaultFileMode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := validateNumberedConfig(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, ioError("mkdir", filepath.Dir(safePath), err)
	}

	policy := cfg.Policy
	if policy == nil {
		policy = SizePolicy{MaxBytes: cfg.MaxBytes}
	}

	m, err := newRotateMetrics(cfg.MeterProvider, safePath)
	if err != nil {
		return nil, fmt.Errorf("xrotate: init metrics: %w", err)
	}

	r := &NumberedRotator{
		filename:    safePath,
		backupCount: cfg.BackupCount,
		policy:      policy,
		codec:       cfg.Codec,
		fileMode:    cfg.FileMode,
		metrics:     m,
	}

	if err := r.recoverLeftovers(); err != nil && cfg.OnError != nil {
		func() {
			defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
			cfg.OnError(err)
		}()
	}

	if err := r.openExisting(); err != nil {
		return nil, err
	}
	return r, nil
}

func validateNumberedConfig(cfg *numberedConfig) error {
	if cfg.MaxBytes < 0 {
		return fmt.Errorf("%w: got %d, want >= 0", ErrInvalidMaxBytes, cfg.MaxBytes)
	}
	if cfg.BackupCount < 1 || cfg.BackupCount > maxBackupCount {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidBackupCount, cfg.BackupCount, maxBackupCount)
	}
	if cfg.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, cfg.FileMode)
	}
	return nil
}

// Write 实现 io.Writer
//
// 写入前询问 Policy，需要轮转时先完成轮转（含压缩）再写入。
func (r *NumberedRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}

	if r.file == nil {
		// 上一次轮转在打开新文件之前失败
		if err := r.openExisting(); err != nil {
			return 0, err
		}
	}

	if r.policy.ShouldRotate(r.size, int64(len(p))) {
		if err := r.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	if err != nil {
		r.metrics.failed("write")
		return n, ioError("write", r.filename, err)
	}
	return n, nil
}

// Rotate 手动触发轮转
func (r *NumberedRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.rotateLocked()
}

// Compress 单独执行压缩步骤：只处理编号最大的一个备份
//
// 未压缩备份数量不超过 BackupCount 时为空操作。
func (r *NumberedRotator) Compress() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	return r.retireOldest()
}

// Close 关闭活动文件。重复调用返回 ErrClosed。
func (r *NumberedRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		return ioError("close", r.filename, err)
	}
	return nil
}

// Filename 返回活动文件路径（规范化后）
func (r *NumberedRotator) Filename() string {
	return r.filename
}

// Size 返回活动文件当前大小
func (r *NumberedRotator) Size() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Backups 返回当前的备份集合
func (r *NumberedRotator) Backups() (BackupSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ScanBackups(r.filename)
}

// openExisting 以追加模式打开活动文件，不存在时创建
func (r *NumberedRotator) openExisting() error {
	f, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, r.fileMode)
	if err != nil {
		r.metrics.failed("open")
		return ioError("open", r.filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		r.metrics.failed("open")
		return ioError("stat", r.filename, err)
	}
	r.file = f
	r.size = info.Size()
	return nil
}

// rotateLocked 执行一次完整轮转，调用方必须持有锁
func (r *NumberedRotator) rotateLocked() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		if err != nil {
			r.metrics.failed("close")
			return ioError("close", r.filename, err)
		}
	}

	// 从窗口顶端开始整体后移，目标已存在时覆盖（最新者胜出）
	for k := r.backupCount; k >= 1; k-- {
		if err := renameIfExists(backupName(r.filename, k), backupName(r.filename, k+1)); err != nil {
			r.metrics.failed("rename")
			return ioError("rename", backupName(r.filename, k), err)
		}
	}
	if err := renameIfExists(r.filename, backupName(r.filename, 1)); err != nil {
		r.metrics.failed("rename")
		return ioError("rename", r.filename, err)
	}

	f, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, r.fileMode)
	if err != nil {
		r.metrics.failed("open")
		return ioError("open", r.filename, err)
	}
	r.file = f
	r.size = 0
	r.metrics.rotated()

	return r.retireOldest()
}

// overflow 返回按编号升序排列的全部未压缩备份，以及它们是否超出保留窗口
func (r *NumberedRotator) overflow() ([]Backup, bool, error) {
	set, err := ScanBackups(r.filename)
	if err != nil {
		r.metrics.failed("scan")
		return nil, false, ioError("scan", filepath.Dir(r.filename), err)
	}
	return set.Backups, len(set.Backups) > r.backupCount, nil
}

// retireOldest 在未压缩备份超过 BackupCount 时只压缩（或删除）编号最大的一个
//
// 每次轮转至多产生一个归档。
func (r *NumberedRotator) retireOldest() error {
	backups, over, err := r.overflow()
	if err != nil || !over {
		return err
	}
	return r.retire(backups[len(backups)-1])
}

// retireOverflow 压缩（或删除）保留窗口之外的全部未压缩备份，仅用于启动恢复
func (r *NumberedRotator) retireOverflow() error {
	backups, over, err := r.overflow()
	if err != nil || !over {
		return err
	}

	var errs []error
	for _, b := range backups[r.backupCount:] {
		if err := r.retire(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// retire 将单个备份压缩为归档文件后删除原文件；未配置压缩时直接删除
func (r *NumberedRotator) retire(b Backup) error {
	if r.codec == nil {
		if err := os.Remove(b.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.metrics.failed("remove")
			return ioError("remove", b.Path, err)
		}
		return nil
	}

	archive := b.Path + "." + r.codec.Suffix()
	if err := compressFile(b.Path, archive, r.codec, r.fileMode); err != nil {
		r.metrics.failed("compress")
		return ioError("compress", b.Path, err)
	}
	if err := os.Remove(b.Path); err != nil {
		r.metrics.failed("remove")
		return ioError("remove", b.Path, err)
	}
	r.metrics.compressed(r.codec.Name())
	return nil
}

// recoverLeftovers 清理上次异常退出留下的文件
//
// 删除未完成的压缩临时文件，压缩保留窗口之外的编号备份。
func (r *NumberedRotator) recoverLeftovers() error {
	dir, base := xfile.SplitPath(r.filename)
	_, tempErr := xfile.RemoveTemps(dir, base+".")
	return errors.Join(tempErr, r.retireOverflow())
}

// compressFile 将 src 压缩写入 dst
//
// 先写同目录临时文件，成功后 rename 为 dst，进程中途被杀死不会留下截断的 dst。
func compressFile(src, dst string, codec Codec, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	return xfile.WriteAtomic(dst, mode, func(w io.Writer) error {
		cw, err := codec.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(cw, in); err != nil {
			_ = cw.Close()
			return err
		}
		return cw.Close()
	})
}

func renameIfExists(src, dst string) error {
	err := os.Rename(src, dst)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		if _, statErr := os.Stat(src); errors.Is(statErr, fs.ErrNotExist) {
			return nil
		}
	}
	return err
}
