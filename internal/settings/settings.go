// Package settings 定义应用设置（General/Logs/Font）及其默认值、读写和热重载。
//
// 设置文件为 YAML 或 JSON，键名与分节沿用桌面端的 settings.ini：
//
//	general:
//	  maximizeOnStartup: true
//	logs:
//	  enableVerboseLogging: false
//	  maxLogFileSize: 10
//
// 文件中缺失的键取默认值。
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/omeyang/picasso/pkg/observability/xlog"
	"github.com/omeyang/picasso/pkg/observability/xrotate"
)

// DefaultPath 默认设置文件路径
const DefaultPath = "config/settings.yaml"

// 日志轮转模式
const (
	ModeNumbered  = "numbered"  // base.1 … base.N，超出窗口的备份被压缩
	ModeTimestamp = "timestamp" // lumberjack 时间戳命名备份
)

const mib = 1 << 20

// ErrInvalid 设置值不合法
var ErrInvalid = errors.New("settings: invalid value")

// Settings 应用设置
type Settings struct {
	General  General  `koanf:"general"`
	Logs     Logs     `koanf:"logs"`
	Font     Font     `koanf:"font"`
	Internal Internal `koanf:"-"`
}

// General 常规设置
type General struct {
	MaximizeOnStartup       bool `koanf:"maximizeOnStartup"`
	ExpandSectionsOnStartup bool `koanf:"expandSectionsOnStartup"`
}

// Logs 日志设置
type Logs struct {
	EnableVerboseLogging bool `koanf:"enableVerboseLogging"`
	SaveLogsToFile       bool `koanf:"saveLogsToFile"`
	// MaxLogFileSize 活动文件大小上限，单位 MiB
	MaxLogFileSize  int  `koanf:"maxLogFileSize"`
	RotateLogs      bool `koanf:"rotateLogs"`
	CompressOldLogs bool `koanf:"compressOldLogs"`

	BackupCount int    `koanf:"backupCount"`
	Dir         string `koanf:"dir"`
	File        string `koanf:"file"`
	Codec       string `koanf:"codec"`
	Mode        string `koanf:"mode"`
}

// Font 字体设置
type Font struct {
	Family    string `koanf:"fontFamily"`
	Size      int    `koanf:"fontSize"`
	Bold      bool   `koanf:"fontBold"`
	Italic    bool   `koanf:"fontItalic"`
	Underline bool   `koanf:"fontUnderline"`
	Color     string `koanf:"fontColor"`
	Smoothing bool   `koanf:"fontSmoothing"`
}

// Internal 运行期设置，不写入设置文件
type Internal struct {
	CancelBehavior string
}

// Default 返回默认设置
func Default() Settings {
	return Settings{
		General: General{
			MaximizeOnStartup:       true,
			ExpandSectionsOnStartup: false,
		},
		Logs: Logs{
			EnableVerboseLogging: false,
			SaveLogsToFile:       true,
			MaxLogFileSize:       10,
			RotateLogs:           true,
			CompressOldLogs:      false,
			BackupCount:          xrotate.DefaultBackupCount,
			Dir:                  "logs",
			File:                 "application.log",
			Codec:                xrotate.CodecGzip,
			Mode:                 ModeNumbered,
		},
		Font: Font{
			Family:    "Arial",
			Size:      12,
			Color:     "#000000",
			Smoothing: true,
		},
		Internal: Internal{
			CancelBehavior: "go_to_main_app",
		},
	}
}

// Path 活动日志文件路径
func (l Logs) Path() string {
	return filepath.Join(l.Dir, l.File)
}

// Level 日志阈值：开启详细日志时为 DEBUG，否则为 INFO
func (l Logs) Level() xlog.Level {
	if l.EnableVerboseLogging {
		return xlog.LevelDebug
	}
	return xlog.LevelInfo
}

// Validate 检查构建日志输出所需的字段
func (l Logs) Validate() error {
	var errs []error
	if l.SaveLogsToFile {
		if strings.TrimSpace(l.File) == "" {
			errs = append(errs, fmt.Errorf("%w: logs.file is empty", ErrInvalid))
		}
		if l.MaxLogFileSize < 0 {
			errs = append(errs, fmt.Errorf("%w: logs.maxLogFileSize %d < 0", ErrInvalid, l.MaxLogFileSize))
		}
		if l.BackupCount < 1 {
			errs = append(errs, fmt.Errorf("%w: logs.backupCount %d < 1", ErrInvalid, l.BackupCount))
		}
		switch l.Mode {
		case ModeNumbered, ModeTimestamp:
		default:
			errs = append(errs, fmt.Errorf("%w: logs.mode %q", ErrInvalid, l.Mode))
		}
		if _, err := xrotate.CodecByName(l.Codec); err != nil {
			errs = append(errs, fmt.Errorf("%w: logs.codec: %w", ErrInvalid, err))
		}
	}
	return errors.Join(errs...)
}

// RotatorOptions 把设置映射为编号轮转器的选项
//
// rotateLogs=false 时永不轮转；compressOldLogs=false 时超出窗口的备份直接删除。
func (l Logs) RotatorOptions() ([]xrotate.Option, error) {
	opts := []xrotate.Option{
		xrotate.WithMaxBytes(int64(l.MaxLogFileSize) * mib),
		xrotate.WithBackupCount(l.BackupCount),
	}
	if !l.RotateLogs {
		opts = append(opts, xrotate.WithPolicy(xrotate.NeverPolicy{}))
	}

	if !l.CompressOldLogs {
		return append(opts, xrotate.WithCodec(nil)), nil
	}
	codec, err := xrotate.CodecByName(l.Codec)
	if err != nil {
		return nil, fmt.Errorf("%w: logs.codec: %w", ErrInvalid, err)
	}
	return append(opts, xrotate.WithCodec(codec)), nil
}

// LumberjackOptions 把设置映射为时间戳轮转器的选项
func (l Logs) LumberjackOptions() []xrotate.LumberjackOption {
	return []xrotate.LumberjackOption{
		xrotate.WithMaxSize(l.MaxLogFileSize),
		xrotate.WithMaxBackups(l.BackupCount),
		xrotate.WithCompress(l.CompressOldLogs),
	}
}

// Configure 按设置配置 xlog.Builder 的级别与输出
//
// saveLogsToFile=false 时输出到 fallback（nil 时为 stderr）；
// rotateLogs=false 时总是使用编号模式且不轮转。
func (l Logs) Configure(b *xlog.Builder, fallback io.Writer) (*xlog.Builder, error) {
	if err := l.Validate(); err != nil {
		return b, err
	}
	b = b.SetLevel(l.Level())
	if !l.SaveLogsToFile {
		if fallback == nil {
			fallback = os.Stderr
		}
		return b.SetOutput(fallback), nil
	}

	if l.Mode == ModeTimestamp && l.RotateLogs {
		return b.SetLumberjack(l.Path(), l.LumberjackOptions()...), nil
	}
	opts, err := l.RotatorOptions()
	if err != nil {
		return b, err
	}
	return b.SetRotation(l.Path(), opts...), nil
}
