package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/btt-go/smartcache"
)

// RunTables 列出表；选中一张表后输入 TTL 并确认，立即提交一条只包含该表的 TABLES_ANY 规则。
// 任一提示处取消都进入 Aborted。
func (s *Session) RunTables(ctx context.Context, p Prompter, tables []smartcache.TableInfo) error {
	cursor := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ShowTable("Tables", TableHeaders, TableRows(tables))

		options := make([]string, 0, len(tables)+1)
		for _, t := range tables {
			options = append(options, t.Name)
		}
		options = append(options, actionBack)

		idx, err := p.Select("Select a table to create a rule for:", options, cursor)
		if errors.Is(err, ErrEscape) || (err == nil && idx == len(tables)) {
			s.Abort()
			return nil
		}
		if err != nil {
			return err
		}
		cursor = idx

		name := tables[idx].Name
		ttl, err := PromptTTL(p, fmt.Sprintf("Enter a TTL for table %s (e.g. 1h, 300s, 5m):", name), "")
		if errors.Is(err, ErrEscape) {
			s.Abort()
			return nil
		}
		if err != nil {
			return err
		}

		rule := smartcache.RuleConfig{
			Predicate: smartcache.Predicate{Type: smartcache.PredicateTablesAny, Values: []string{name}},
			TTL:       ttl,
		}
		ok, err := p.Confirm("Create rule "+rule.String()+"?", true)
		if errors.Is(err, ErrEscape) {
			s.Abort()
			return nil
		}
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := s.Create(rule); err != nil {
			return err
		}
		if !s.commitDirect(ctx, p) {
			// 提交失败时撤销这条新规则，避免下次提交时重复携带
			_ = s.Delete(0)
			continue
		}
		rules := s.store.Rules()
		for i := range tables {
			tables[i].Rule = smartcache.TableRule(rules, tables[i].Name)
		}
	}
}

// commitDirect 提交而不再次确认。
func (s *Session) commitDirect(ctx context.Context, p Prompter) bool {
	id, err := s.Commit(ctx)
	if err != nil {
		notify(p, LevelError, "%v", err)
		return false
	}
	notify(p, LevelSuccess, "Committed revision %s", id)
	return true
}
