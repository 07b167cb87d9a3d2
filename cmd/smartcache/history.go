// history 列出配置日志中最近的提交。

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/internal/terminal"
)

var historyHeaders = []string{"Revision", "Time", "Rules", "Digest", "Error"}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent rule set commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return &smartcache.ValidationError{Field: "limit", Value: strconv.FormatInt(limit, 10), Reason: "must be positive"}
			}
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				return printHistory(ctx, cmd.OutOrStdout(), svc, limit)
			})
		},
	}
	cmd.Flags().Int64VarP(&limit, "limit", "l", 10, "number of commits to show")
	return cmd
}

func printHistory(ctx context.Context, w io.Writer, svc *smartcache.Service, limit int64) error {
	revs, err := svc.History(ctx, limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	rows := make([][]string, len(revs))
	for i, r := range revs {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		rows[i] = []string{
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.Itoa(len(r.Rules)),
			r.Digest,
			errText,
		}
	}
	fmt.Fprintln(w, terminal.RenderTable("History", historyHeaders, rows))
	return nil
}
