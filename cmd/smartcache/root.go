// 根命令。

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
	"github.com/btt-go/smartcache/internal/terminal"
)

// app 保存一次调用中各子命令共享的状态。
type app struct {
	v          *viper.Viper
	configFile string
	cfg        settings
	logger     *slog.Logger
	prompter   editor.Prompter
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&app{})
}

// buildRootCmd 围绕 a 组装命令树，已设置的 prompter 保持不变。
func buildRootCmd(a *app) *cobra.Command {
	if a.v == nil {
		a.v = viper.New()
	}

	root := &cobra.Command{
		Use:   "smartcache",
		Short: "CLI for inspecting and configuring the smart query cache",
		Long: `smartcache shows the query analytics gathered by the caching proxy and
manages the ordered list of caching rules it applies. Rules are published as
full snapshots to the <application>:config stream; every proxy instance picks
up the newest one.

Run without a subcommand to open the interactive menu.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		RunE:              a.runInteractive,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ./smartcache.yaml or ~/.smartcache/smartcache.yaml)")
	pf.StringP(cfgKeyHost, "n", "localhost", "Redis host")
	pf.StringP(cfgKeyPort, "p", "6379", "Redis port")
	pf.StringP(cfgKeyUser, "u", "", "Redis user")
	pf.StringP(cfgKeyPassword, "a", "", "Redis password")
	pf.StringP(cfgKeyApplication, "s", smartcache.DefaultApplication, "application namespace")
	pf.String(cfgKeyLogLevel, "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newListQueriesCmd(a),
		newListTablesCmd(a),
		newRulesCmd(a),
		newQueriesCmd(a),
		newTablesCmd(a),
		newMakeRuleCmd(a),
		newResetConfigCmd(a),
		newClearMetricsCmd(a),
		newHistoryCmd(a),
		newInteractiveCmd(a),
	)
	return root
}

// init 合并 flag、环境变量与配置文件，并初始化日志。
func (a *app) init(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := a.v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := loadConfig(a.v, a.configFile); err != nil {
		return err
	}

	cfg, err := resolveSettings(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg.LogLevel)
	slog.SetDefault(a.logger)

	if a.prompter == nil {
		a.prompter = terminal.NewSurveyPrompter(cmd.OutOrStdout())
	}
	return nil
}

// openService 连接 Redis 并启动配置订阅。调用方必须调用返回的 release。
func (a *app) openService(ctx context.Context) (*smartcache.Service, func(), error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Addr(),
		Username: a.cfg.User,
		Password: a.cfg.Password,
	})

	svc, err := smartcache.Open(ctx, rdb, smartcache.Options{
		Application:  a.cfg.Application,
		StreamMaxLen: a.cfg.StreamMaxLen,
		SettleWindow: a.cfg.SettleWindow,
		Sync: smartcache.SyncOptions{
			TailBlock:       a.cfg.TailBlock,
			RetryMaxElapsed: a.cfg.RetryMaxElapsed,
		},
		Logger: a.logger,
	})
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to %s: %w", a.cfg.Addr(), err)
	}
	return svc, func() {
		svc.Close()
		_ = rdb.Close()
	}, nil
}

// withService 在 fn 执行期间打开 Service。
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *smartcache.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, release, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, svc)
}

// confirm 在未指定 skip 时询问操作员，取消视为否。
func (a *app) confirm(message string, skip bool) (bool, error) {
	if skip {
		return true, nil
	}
	ok, err := a.prompter.Confirm(message, false)
	if errors.Is(err, editor.ErrEscape) {
		return false, nil
	}
	return ok, err
}
