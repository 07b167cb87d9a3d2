package editor

import (
	"context"
	"errors"
	"fmt"
)

const (
	actionNew    = "New rule"
	actionCommit = "Commit changes"
	actionBack   = "Back"

	ruleEdit   = "Edit"
	ruleDelete = "Delete / restore"
	ruleCancel = "Cancel"
)

// RunRules 是规则表的交互循环：编辑、新建、删除、提交。
// 任一提示处取消、或选择 Back，都会放弃未提交的修改并进入 Aborted。
func (s *Session) RunRules(ctx context.Context, p Prompter) error {
	cursor := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries := s.Entries()
		p.ShowTable("Rules", RuleHeaders, RuleRows(entries))

		options := make([]string, 0, len(entries)+3)
		for i, e := range entries {
			options = append(options, fmt.Sprintf("%d. [%s] %s", i+1, e.Status, e.Rule))
		}
		options = append(options, actionNew, actionCommit, actionBack)

		idx, err := p.Select("Select a rule or an action:", options, cursor)
		if err == nil {
			cursor = idx
			switch {
			case idx < len(entries):
				err = s.ruleAction(p, idx)
			case options[idx] == actionNew:
				err = s.newRule(p)
			case options[idx] == actionCommit:
				_, err = s.commitInteractive(ctx, p)
			default:
				if s.Dirty() {
					notify(p, LevelWarning, "Discarded uncommitted changes")
				}
				s.Abort()
				return nil
			}
		}
		if errors.Is(err, ErrEscape) {
			s.Abort()
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) ruleAction(p Prompter, i int) error {
	action, err := p.Select("Rule action:", []string{ruleEdit, ruleDelete, ruleCancel}, 0)
	if err != nil {
		return err
	}

	switch action {
	case 0:
		if err := s.begin(Editing); err != nil {
			return err
		}
		defer s.finish()
		rule, err := BuildRule(p, false)
		if err != nil {
			return err
		}
		return s.edit(i, rule)
	case 1:
		return s.confirmDelete(p, i)
	}
	return nil
}

// confirmDelete 在 ConfirmingDelete 状态下询问操作员；恢复 Delete Pending 的规则不需要确认。
func (s *Session) confirmDelete(p Prompter, i int) error {
	if err := s.begin(ConfirmingDelete); err != nil {
		return err
	}
	defer s.finish()

	if i < 0 || i >= len(s.entries) {
		return ErrIndexOutOfRange
	}
	if e := s.entries[i]; e.Status != StatusDeletePending {
		ok, err := p.Confirm(fmt.Sprintf("Delete rule %s?", e.Rule), false)
		if err != nil || !ok {
			return err
		}
	}
	return s.delete(i)
}

func (s *Session) newRule(p Prompter) error {
	if err := s.begin(Creating); err != nil {
		return err
	}
	defer s.finish()

	rule, err := BuildRule(p, false)
	if err != nil {
		return err
	}
	s.create(rule)
	return nil
}

// commitInteractive 请求确认并提交。回答否时回到 Browsing；取消时返回 ErrEscape。
// 提交失败只展示错误，会话回到 Browsing 继续编辑。
func (s *Session) commitInteractive(ctx context.Context, p Prompter) (bool, error) {
	if !s.Dirty() {
		notify(p, LevelInfo, "Nothing to commit")
		return false, nil
	}
	if err := s.RequestCommit(); err != nil {
		notify(p, LevelError, "%v", err)
		return false, nil
	}

	rules := s.workingSet().Normalize()
	ok, err := p.Confirm(fmt.Sprintf("Commit %d rule(s)?", len(rules)), true)
	if err != nil || !ok {
		_ = s.Decline()
		return false, err
	}

	id, err := s.Commit(ctx)
	if err != nil {
		notify(p, LevelError, "%v", err)
		return false, nil
	}
	notify(p, LevelSuccess, "Committed revision %s", id)
	return true, nil
}
