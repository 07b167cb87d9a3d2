// reset-config 与 clear-metrics。

package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
	"github.com/btt-go/smartcache/internal/terminal"
)

func newResetConfigCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-config",
		Short: "Remove all caching rules",
		Long: `Publish an empty rule set. The proxy then applies the single rule
"ANY ttl=0s", which disables caching for every query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				return a.resetConfig(ctx, cmd.OutOrStdout(), svc, yes)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "reset without asking for confirmation")
	return cmd
}

func newClearMetricsCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-metrics",
		Short: "Reset the access frequency and query time metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				return a.clearMetrics(ctx, cmd.OutOrStdout(), svc, yes)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "clear without asking for confirmation")
	return cmd
}

func (a *app) resetConfig(ctx context.Context, w io.Writer, svc *smartcache.Service, yes bool) error {
	ok, err := a.confirm("Remove all caching rules? Nothing will be cached afterwards.", yes)
	if err != nil || !ok {
		return err
	}
	id, err := svc.ResetConfig(ctx)
	if err != nil {
		return err
	}
	terminal.Status(w, editor.LevelSuccess, "Config reset (revision %s)", id)
	return nil
}

func (a *app) clearMetrics(ctx context.Context, w io.Writer, svc *smartcache.Service, yes bool) error {
	ok, err := a.confirm("Clear all query metrics?", yes)
	if err != nil || !ok {
		return err
	}
	if err := svc.ClearMetrics(ctx); err != nil {
		return err
	}
	terminal.Status(w, editor.LevelSuccess, "Metrics cleared")
	return nil
}
