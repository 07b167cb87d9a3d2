// 主菜单，没有子命令时默认进入。

package main

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
	"github.com/btt-go/smartcache/internal/terminal"
)

const (
	menuQueries      = "Queries: assign TTLs to queries"
	menuTables       = "Tables: create table rules"
	menuRules        = "Rules: edit caching rules"
	menuCreateRule   = "Create a rule"
	menuHistory      = "History"
	menuResetConfig  = "Reset config"
	menuClearMetrics = "Clear metrics"
	menuExit         = "Exit"
)

var menuOptions = []string{
	menuQueries,
	menuTables,
	menuRules,
	menuCreateRule,
	menuHistory,
	menuResetConfig,
	menuClearMetrics,
	menuExit,
}

func newInteractiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE:  a.runInteractive,
	}
}

func (a *app) runInteractive(cmd *cobra.Command, args []string) error {
	return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
		w := cmd.OutOrStdout()
		terminal.Status(w, editor.LevelInfo, "Connected to %s, application %q", a.cfg.Addr(), a.cfg.Application)
		cursor := 0
		for {
			idx, err := a.prompter.Select("What would you like to do?", menuOptions, cursor)
			if errors.Is(err, editor.ErrEscape) {
				return nil
			}
			if err != nil {
				return err
			}
			cursor = idx

			if err := a.runMenuItem(ctx, w, svc, menuOptions[idx]); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				if smartcache.IsConnectivity(err) {
					return err
				}
				terminal.Status(w, editor.LevelError, "%v", err)
			}
			if err := svc.Stale(); err != nil {
				// Redis 已不可达，不再编辑过期的副本
				if perr := svc.Ping(ctx); perr != nil {
					return perr
				}
				terminal.Status(w, editor.LevelWarning, "%v", err)
			}
		}
	})
}

var errExit = errors.New("exit")

func (a *app) runMenuItem(ctx context.Context, w io.Writer, svc *smartcache.Service, item string) error {
	switch item {
	case menuQueries:
		return a.editQueries(ctx, svc, sortQueryTime, sortDesc)
	case menuTables:
		return a.editTables(ctx, svc)
	case menuRules:
		return a.editRules(ctx, svc)
	case menuCreateRule:
		rule, err := editor.BuildRule(a.prompter, true)
		if errors.Is(err, editor.ErrEscape) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := svc.Prepend(ctx, rule)
		if err != nil {
			return err
		}
		terminal.Status(w, editor.LevelSuccess, "Created caching rule %s (revision %s)", rule, id)
		return nil
	case menuHistory:
		return printHistory(ctx, w, svc, 10)
	case menuResetConfig:
		return a.resetConfig(ctx, w, svc, false)
	case menuClearMetrics:
		return a.clearMetrics(ctx, w, svc, false)
	}
	return errExit
}
