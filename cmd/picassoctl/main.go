// picassoctl 是 Picasso 日志落盘组件的命令行工具。
//
// 用法:
//
//	picassoctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   设置文件路径 (默认: config/settings.yaml，不存在时写入默认设置)
//	    --log-dir  覆盖设置中的日志目录
//
// 命令:
//
//	init           写入默认设置文件
//	log            写入一条日志
//	rotate         立即轮转活动日志文件
//	status         查看活动文件、编号备份与压缩备份
//	demo           按五个级别各写入一条日志
//	pipe           逐行读取标准输入写入日志，设置文件变更时实时调整级别
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（包括日志写入失败）
//	2: 参数错误
//
// 示例:
//
//	picassoctl init
//	picassoctl log --level warning "disk almost full"
//	tail -f /var/log/syslog | picassoctl pipe --level info
//	picassoctl status
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/picasso/internal/settings"
)

// 应用名，demo 命令的启动日志使用
const appName = "Total Commander: Picasso Edition"

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

// streams 命令的输入输出，测试时替换为缓冲区。
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	os.Exit(run(ctx, os.Args, streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}))
}

// createApp 创建 CLI 应用。
func createApp(s streams) *cli.Command {
	return &cli.Command{
		Name:    "picassoctl",
		Usage:   "轮转并压缩日志文件",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Reader:  s.in,
		Writer:  s.out,
		// ErrWriter 同时承接 flag 解析错误
		ErrWriter: s.err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "设置文件路径（.yaml/.yml/.json）",
				Value:   settings.DefaultPath,
			},
			&cli.StringFlag{
				Name:  "log-dir",
				Usage: "覆盖设置中的日志目录",
			},
		},
		Commands: createCommands(s),
		// 由 run() 统一处理退出码映射，禁止 urfave/cli 直接调用 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			var ec cli.ExitCoder
			if errors.As(err, &ec) && err.Error() != "" {
				fmt.Fprintln(s.err, err)
			}
		},
	}
}

// run 执行命令并返回退出码。
func run(ctx context.Context, args []string, s streams) int {
	err := createApp(s).Run(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(s.err, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(s.err, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(s.err, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误（未知 flag、flag 值非法等）。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"flag provided but not defined",
		"invalid value",
		"No help topic for",
		"flag needs an argument",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
