package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/btt-go/smartcache"
)

// RunQueries 是批量 TTL 模式：为选中的查询输入 TTL，相同 TTL 的查询在提交时合并为一条 QUERY_IDS 规则。
// 任一提示处取消都放弃待定的 TTL 并进入 Aborted。
// 提交成功后按新的规则集刷新 queries 的 CurrentRule。
func (s *Session) RunQueries(ctx context.Context, p Prompter, queries []smartcache.QueryInfo) error {
	cursor := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ShowTable("Queries", QueryHeaders, QueryRows(queries, s))

		options := make([]string, 0, len(queries)+2)
		for _, q := range queries {
			label := q.ID
			if ttl, ok := s.PendingTTL(q.ID); ok {
				label += " (pending " + smartcache.FormatTTL(ttl) + ")"
			}
			options = append(options, label)
		}
		options = append(options, actionCommit, actionBack)

		idx, err := p.Select("Select a query to set its TTL:", options, cursor)
		if errors.Is(err, ErrEscape) {
			s.Abort()
			return nil
		}
		if err != nil {
			return err
		}
		cursor = idx

		switch {
		case idx < len(queries):
			q := queries[idx]
			placeholder := ""
			if ttl, ok := s.PendingTTL(q.ID); ok {
				placeholder = smartcache.FormatTTL(ttl)
			}
			ttl, err := PromptTTL(p, fmt.Sprintf("Enter a TTL for query %s (e.g. 1h, 300s, 5m):", q.ID), placeholder)
			if errors.Is(err, ErrEscape) {
				s.Abort()
				return nil
			}
			if err != nil {
				return err
			}
			if err := s.AssignTTL(q.ID, ttl); err != nil {
				return err
			}
		case options[idx] == actionCommit:
			ok, err := s.commitInteractive(ctx, p)
			if errors.Is(err, ErrEscape) {
				s.Abort()
				return nil
			}
			if err != nil {
				return err
			}
			if ok {
				smartcache.AttachRules(queries, s.store.Rules())
			}
		default:
			if s.Dirty() {
				notify(p, LevelWarning, "Discarded uncommitted changes")
			}
			s.Abort()
			return nil
		}
	}
}
