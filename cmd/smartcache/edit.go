// 交互式编辑器：规则、查询（批量 TTL）和表。

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
)

func newRulesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Edit the caching rules interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, a.editRules)
		},
	}
}

func newQueriesCmd(a *app) *cobra.Command {
	var sortBy, sortDir string
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Assign TTLs to individual queries interactively",
		Long: `Browse the tracked queries and assign a TTL to each one. Queries given
the same TTL are committed together as a single QUERY_IDS rule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				return a.editQueries(ctx, svc, sortBy, sortDir)
			})
		},
	}
	cmd.Flags().StringVarP(&sortBy, "sort-by", "b", sortQueryTime, "sort field: query-time, access-frequency, tables or id")
	cmd.Flags().StringVarP(&sortDir, "sort-direction", "d", sortDesc, "sort direction: asc or desc")
	return cmd
}

func newTablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Create table rules interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withService(cmd, a.editTables)
		},
	}
}

func (a *app) editRules(ctx context.Context, svc *smartcache.Service) error {
	s := editor.NewSession(svc, a.logger)
	return s.RunRules(ctx, a.prompter)
}

func (a *app) editQueries(ctx context.Context, svc *smartcache.Service, sortBy, sortDir string) error {
	queries, err := svc.Queries(ctx)
	if err != nil {
		return fmt.Errorf("list queries: %w", err)
	}
	if err := sortQueries(queries, sortBy, sortDir); err != nil {
		return err
	}
	s := editor.NewSession(svc, a.logger)
	return s.RunQueries(ctx, a.prompter, queries)
}

func (a *app) editTables(ctx context.Context, svc *smartcache.Service) error {
	tables, err := svc.Tables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	s := editor.NewSession(svc, a.logger)
	return s.RunTables(ctx, a.prompter, tables)
}
