// make-rule 根据 flag 创建一条规则。

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/btt-go/smartcache"
	"github.com/btt-go/smartcache/editor"
	"github.com/btt-go/smartcache/internal/terminal"
)

// ruleFlags 保存 make-rule 的 flag。按类型的快捷 flag 可代替 --type/--match，只能给出一个条件。
type ruleFlags struct {
	kind        string
	match       string
	ttl         string
	tablesExact string
	tablesAny   string
	tablesAll   string
	queryIDs    string
	regex       string
	yes         bool
}

func (f ruleFlags) build() (smartcache.RuleConfig, error) {
	type cond struct{ kind, match string }
	var conds []cond
	if f.kind != "" {
		conds = append(conds, cond{f.kind, f.match})
	}
	for _, c := range []cond{
		{"tables-exact", f.tablesExact},
		{"tables-any", f.tablesAny},
		{"tables-all", f.tablesAll},
		{"query-ids", f.queryIDs},
		{"regex", f.regex},
	} {
		if c.match != "" {
			conds = append(conds, c)
		}
	}

	switch len(conds) {
	case 0:
		return smartcache.RuleConfig{}, &smartcache.ValidationError{
			Field:  "rule type",
			Reason: "one of --type, --tables-exact, --tables-any, --tables-all, --query-ids or --regex is required",
		}
	case 1:
		return smartcache.NewRule(conds[0].kind, conds[0].match, f.ttl)
	}
	kinds := make([]string, len(conds))
	for i, c := range conds {
		kinds[i] = c.kind
	}
	return smartcache.RuleConfig{}, &smartcache.ValidationError{
		Field:  "rule type",
		Value:  strings.Join(kinds, ","),
		Reason: "a rule has exactly one condition",
	}
}

func newMakeRuleCmd(a *app) *cobra.Command {
	var f ruleFlags
	cmd := &cobra.Command{
		Use:     "make-rule",
		Aliases: []string{"makerule"},
		Short:   "Create a caching rule",
		Long: `Create a caching rule and put it in front of the existing rules.

Example:
  smartcache make-rule --type tables-any --match orders,users --ttl 5m
  smartcache make-rule --regex '^SELECT .* FROM products' --ttl 1h --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := f.build()
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *smartcache.Service) error {
				ok, err := a.confirm(fmt.Sprintf("Create rule %s?", rule), f.yes)
				if err != nil {
					return err
				}
				if !ok {
					terminal.Status(cmd.OutOrStdout(), editor.LevelInfo, "Rule creation cancelled")
					return nil
				}
				id, err := svc.Prepend(ctx, rule)
				if err != nil {
					return err
				}
				terminal.Status(cmd.OutOrStdout(), editor.LevelSuccess, "Created caching rule %s (revision %s)", rule, id)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.kind, "type", "", "rule type: any, tables-exact, tables-all, tables-any, query-ids or regex")
	flags.StringVarP(&f.match, "match", "m", "", "comma-separated tables or query ids, or the regex, depending on --type")
	flags.StringVarP(&f.ttl, "ttl", "t", "", "time to live as a duration (e.g. 5m, 300s, 2d); 0s disables caching")
	flags.StringVarP(&f.tablesExact, "tables-exact", "e", "", "matches if exactly these tables (and no others) appear in the query")
	flags.StringVarP(&f.tablesAny, "tables-any", "x", "", "matches if any of these tables appear in the query")
	flags.StringVarP(&f.tablesAll, "tables-all", "l", "", "matches if all of these tables appear in the query")
	flags.StringVarP(&f.queryIDs, "query-ids", "q", "", "matches the queries with these ids")
	flags.StringVarP(&f.regex, "regex", "r", "", "matches queries whose SQL matches this regular expression")
	flags.BoolVarP(&f.yes, "yes", "y", false, "commit without asking for confirmation")
	_ = cmd.MarkFlagRequired("ttl")
	return cmd
}
