// list-queries 与 list-tables 直接输出统计，不做交互。

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
	"github.com/btt-go/smartcache/internal/terminal"
)

func newListQueriesCmd(a *app) *cobra.Command {
	var sortBy, sortDir string
	cmd := &cobra.Command{
		Use:     "list-queries",
		Aliases: []string{"listqueries"},
		Short:   "List the queries tracked by the smart cache",
		Long: `List the queries tracked by the smart cache together with their metrics
and the TTL of the first matching rule.

Example:
  smartcache list-queries --sort-by access-frequency --sort-direction desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				queries, err := svc.Queries(ctx)
				if err != nil {
					return fmt.Errorf("list queries: %w", err)
				}
				if err := sortQueries(queries, sortBy, sortDir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderTable("Queries", editor.QueryHeaders, editor.QueryRows(queries, nil)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort-by", "b", sortQueryTime, "sort field: query-time, access-frequency, tables or id")
	cmd.Flags().StringVarP(&sortDir, "sort-direction", "d", sortDesc, "sort direction: asc or desc")
	return cmd
}

func newListTablesCmd(a *app) *cobra.Command {
	var sortBy, sortDir string
	cmd := &cobra.Command{
		Use:     "list-tables",
		Aliases: []string{"listtables"},
		Short:   "List the tables profiled by the smart cache",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				tables, err := svc.Tables(ctx)
				if err != nil {
					return fmt.Errorf("list tables: %w", err)
				}
				if err := sortTableInfos(tables, sortBy, sortDir); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), terminal.RenderTable("Tables", editor.TableHeaders, editor.TableRows(tables)))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort-by", "b", sortQueryTime, "sort field: query-time, access-frequency or name")
	cmd.Flags().StringVarP(&sortDir, "sort-direction", "d", sortDesc, "sort direction: asc or desc")
	return cmd
}
