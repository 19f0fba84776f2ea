package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/picasso/internal/settings"
	"github.com/omeyang/picasso/pkg/observability/xlog"
	"github.com/omeyang/picasso/pkg/observability/xrotate"
)

// exitError 命令内部已完成输出，main 只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands(s streams) []*cli.Command {
	return []*cli.Command{
		createInitCommand(s),
		createLogCommand(s),
		createRotateCommand(s),
		createStatusCommand(s),
		createDemoCommand(s),
		createPipeCommand(s),
	}
}

func levelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "level",
		Aliases: []string{"l"},
		Usage:   "日志级别 (debug/info/warning/error/critical)",
		Value:   "info",
	}
}

func createInitCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "写入默认设置文件",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "覆盖已存在的设置文件"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdInit(s, cmd.String("config"), cmd.Bool("force"))
		},
	}
}

func createLogCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "写入一条日志",
		ArgsUsage: "<message...>",
		Flags:     []cli.Flag{levelFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level, err := xlog.ParseLevel(cmd.String("level"))
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			msg := strings.Join(cmd.Args().Slice(), " ")
			if msg == "" {
				return usagef("缺少日志内容")
			}
			st, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return cmdLog(ctx, s, st, level, msg)
		},
	}
}

func createRotateCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "立即轮转活动日志文件",
		Action: func(_ context.Context, cmd *cli.Command) error {
			st, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return cmdRotate(s, st)
		},
	}
}

func createStatusCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "查看活动文件、编号备份与压缩备份",
		Action: func(_ context.Context, cmd *cli.Command) error {
			st, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return cmdStatus(s, st)
		},
	}
}

func createDemoCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "按五个级别各写入一条日志",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return cmdDemo(ctx, s, st)
		},
	}
}

func createPipeCommand(s streams) *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "逐行读取标准输入写入日志，设置文件变更时实时调整级别",
		Flags: []cli.Flag{levelFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level, err := xlog.ParseLevel(cmd.String("level"))
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			st, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return cmdPipe(ctx, s, cmd.String("config"), st, level)
		},
	}
}

// loadSettings 读取设置文件并应用 --log-dir 覆盖。
func loadSettings(cmd *cli.Command) (settings.Settings, error) {
	st, err := settings.Load(cmd.String("config"))
	if err != nil {
		return settings.Settings{}, err
	}
	if dir := cmd.String("log-dir"); dir != "" {
		st.Logs.Dir = dir
	}
	return st, nil
}

// writeErrors 收集 Logger 写入失败的错误。
type writeErrors struct {
	mu   sync.Mutex
	errs []error
}

func (w *writeErrors) add(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, err)
}

func (w *writeErrors) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.errs...)
}

// buildLogger 按设置创建 Logger，写入错误汇总到返回的 writeErrors。
func buildLogger(st settings.Settings, stderr io.Writer) (xlog.LoggerWithLevel, func() error, *writeErrors, error) {
	we := &writeErrors{}
	b, err := st.Logs.Configure(xlog.New().SetOnError(we.add), stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return logger, cleanup, we, nil
}

// newDiagLogger 工具自身的诊断日志，输出到 stderr。
func newDiagLogger(w io.Writer) (xlog.Logger, error) {
	logger, _, err := xlog.New().SetOutput(w).SetFormat(xlog.FormatText).SetLevel(xlog.LevelInfo).Build()
	if err != nil {
		return nil, fmt.Errorf("diagnostic logger: %w", err)
	}
	return logger.With(xlog.Component("picassoctl")), nil
}

// openRotator 按设置打开轮转器。
func openRotator(st settings.Settings) (xrotate.Rotator, error) {
	l := st.Logs
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if !l.SaveLogsToFile {
		return nil, usagef("logs.saveLogsToFile 为 false，没有日志文件")
	}
	if l.Mode == settings.ModeTimestamp {
		return xrotate.NewLumberjack(l.Path(), l.LumberjackOptions()...)
	}
	opts, err := l.RotatorOptions()
	if err != nil {
		return nil, err
	}
	return xrotate.NewNumbered(l.Path(), opts...)
}

func cmdInit(s streams, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(s.err, "设置文件已存在: %s（使用 --force 覆盖）\n", path)
		return &exitError{code: 1}
	}
	if err := settings.Save(path, settings.Default()); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "已写入默认设置: %s\n", path)
	return nil
}

func cmdLog(ctx context.Context, s streams, st settings.Settings, level xlog.Level, msg string) error {
	logger, cleanup, we, err := buildLogger(st, s.err)
	if err != nil {
		return err
	}
	logger.Log(ctx, level, msg)
	return errors.Join(we.err(), cleanup())
}

func cmdRotate(s streams, st settings.Settings) error {
	r, err := openRotator(st)
	if err != nil {
		return err
	}
	rotateErr := r.Rotate()
	if err := errors.Join(rotateErr, r.Close()); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "已轮转: %s\n", st.Logs.Path())
	return nil
}

func cmdStatus(s streams, st settings.Settings) error {
	path := st.Logs.Path()
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)

	info, err := os.Stat(path)
	switch {
	case err == nil:
		fmt.Fprintf(tw, "active\t%s\t%s\n", path, humanize.IBytes(uint64(info.Size())))
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(tw, "active\t%s\tmissing\n", path)
	default:
		return err
	}

	set, err := xrotate.ScanBackups(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for _, b := range set.Backups {
		fmt.Fprintf(tw, "backup\t%s\t%s\n", b.Path, humanize.IBytes(uint64(b.Size)))
	}
	for _, a := range set.Archives {
		fmt.Fprintf(tw, "archive\t%s\t%s\n", a.Path, a.Codec)
	}
	return tw.Flush()
}

func cmdDemo(ctx context.Context, s streams, st settings.Settings) error {
	logger, cleanup, we, err := buildLogger(st, s.err)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Launching "+appName+"...")
	logger.Debug(ctx, "This is a debug message")
	logger.Info(ctx, "This is an info message")
	logger.Warn(ctx, "This is a warning message")
	logger.Error(ctx, "This is an error message")
	logger.Critical(ctx, "This is a critical message")

	return errors.Join(we.err(), cleanup())
}

// maxLineBytes pipe 命令单行上限
const maxLineBytes = 1 << 20

func cmdPipe(ctx context.Context, s streams, configPath string, st settings.Settings, level xlog.Level) error {
	logger, cleanup, we, err := buildLogger(st, s.err)
	if err != nil {
		return err
	}
	diag, err := newDiagLogger(s.err)
	if err != nil {
		return errors.Join(err, cleanup())
	}

	w, err := settings.Watch(configPath, st, func(ns settings.Settings, err error) {
		if err != nil {
			diag.Warn(ctx, "reload settings failed", xlog.Err(err))
			return
		}
		logger.SetLevel(ns.Logs.Level())
		diag.Info(ctx, "settings reloaded", slog.String("threshold", ns.Logs.Level().String()))
	})
	if err != nil {
		return errors.Join(err, cleanup())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.Run(gctx) })

	var lines int64
	g.Go(func() error {
		// 输入结束后停止监视
		defer cancel()
		sc := bufio.NewScanner(s.in)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			if gctx.Err() != nil {
				return nil
			}
			logger.Log(gctx, level, sc.Text())
			lines++
			if err := we.err(); err != nil {
				return err
			}
		}
		return sc.Err()
	})

	err = g.Wait()
	diag.Info(ctx, "pipe finished", xlog.Count(lines), xlog.Path(st.Logs.Path()))
	return errors.Join(err, cleanup())
}
