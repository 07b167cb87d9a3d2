package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/btt-go/smartcache"
)

var (
	// ErrInvalidState 表示当前状态不允许该操作。
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrIndexOutOfRange 表示规则下标越界。
	ErrIndexOutOfRange = errors.New("rule index out of range")
)

// Store 是会话读取与提交规则集的后端，*smartcache.Service 实现了它。
type Store interface {
	Rules() smartcache.RuleSet
	Commit(ctx context.Context, rules smartcache.RuleSet) (string, error)
}

// State 是编辑会话的状态。
type State int

const (
	Browsing State = iota
	Editing
	Creating
	ConfirmingDelete
	ConfirmingCommit
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "Browsing"
	case Editing:
		return "Editing"
	case Creating:
		return "Creating"
	case ConfirmingDelete:
		return "ConfirmingDelete"
	case ConfirmingCommit:
		return "ConfirmingCommit"
	case Committed:
		return "Committed"
	case Aborted:
		return "Aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Status 是工作副本中单条规则的状态。
type Status int

const (
	StatusCurrent Status = iota
	StatusNew
	StatusEditing
	StatusDeletePending
)

func (s Status) String() string {
	switch s {
	case StatusCurrent:
		return "Current"
	case StatusNew:
		return "New"
	case StatusEditing:
		return "Editing"
	case StatusDeletePending:
		return "Delete Pending"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Entry 是工作副本中的一条规则。
type Entry struct {
	Rule   smartcache.RuleConfig
	Status Status

	prev Status // 标记删除前的状态，再次删除时恢复
}

// pendingRule 是批量 TTL 模式下尚未提交的 QUERY_IDS 规则。
type pendingRule struct {
	ttl time.Duration
	ids []string
}

// Session 是一次规则编辑会话。
// 所有修改只作用于本地工作副本，Commit 时整体发布，Abort 直接丢弃。
// Session 不是并发安全的：提示是严格串行的。
type Session struct {
	id     string
	store  Store
	logger *slog.Logger

	state   State
	entries []Entry

	pending []*pendingRule           // 按首次出现的 TTL 排序
	byQuery map[string]time.Duration // queryID -> 待定 TTL
}

// NewSession 从 store 当前生效的规则集创建会话。
func NewSession(store Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	s := &Session{
		id:     id,
		store:  store,
		logger: logger.With("session", id),
	}
	s.reload()
	return s
}

// ID 返回会话 ID，用于日志关联。
func (s *Session) ID() string { return s.id }

// State 返回当前状态。
func (s *Session) State() State { return s.state }

// Entries 返回工作副本的拷贝。
func (s *Session) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		e.Rule.Predicate.Values = slices.Clone(e.Rule.Predicate.Values)
		out[i] = e
	}
	return out
}

// Dirty 报告是否存在未提交的修改。
func (s *Session) Dirty() bool {
	if len(s.pending) > 0 {
		return true
	}
	for _, e := range s.entries {
		if e.Status != StatusCurrent {
			return true
		}
	}
	return false
}

// Edit 用 rule 替换第 i 条规则。新建的规则保持 New 状态。
func (s *Session) Edit(i int, rule smartcache.RuleConfig) error {
	if err := s.begin(Editing); err != nil {
		return err
	}
	defer s.finish()
	return s.edit(i, rule)
}

func (s *Session) edit(i int, rule smartcache.RuleConfig) error {
	if i < 0 || i >= len(s.entries) {
		return ErrIndexOutOfRange
	}
	e := &s.entries[i]
	e.Rule = rule
	if e.Status != StatusNew {
		e.Status = StatusEditing
	}
	return nil
}

// Create 把新规则插入工作副本最前面（优先级最高）。
func (s *Session) Create(rule smartcache.RuleConfig) error {
	if err := s.begin(Creating); err != nil {
		return err
	}
	defer s.finish()
	s.create(rule)
	return nil
}

func (s *Session) create(rule smartcache.RuleConfig) {
	s.entries = slices.Insert(s.entries, 0, Entry{Rule: rule, Status: StatusNew})
}

// Delete 删除第 i 条规则。
// 新建的规则立即移除；其他规则标记为 Delete Pending，再次删除则恢复原状态。
func (s *Session) Delete(i int) error {
	if err := s.begin(ConfirmingDelete); err != nil {
		return err
	}
	defer s.finish()
	return s.delete(i)
}

func (s *Session) delete(i int) error {
	if i < 0 || i >= len(s.entries) {
		return ErrIndexOutOfRange
	}
	e := &s.entries[i]
	switch e.Status {
	case StatusNew:
		s.entries = slices.Delete(s.entries, i, i+1)
	case StatusDeletePending:
		e.Status = e.prev
	default:
		e.prev = e.Status
		e.Status = StatusDeletePending
	}
	return nil
}

// RequestCommit 进入提交确认状态，之后调用 Commit 或 Decline。
func (s *Session) RequestCommit() error {
	return s.begin(ConfirmingCommit)
}

// Decline 取消提交确认，工作副本保持不变。
func (s *Session) Decline() error {
	if s.state != ConfirmingCommit {
		return ErrInvalidState
	}
	s.state = Browsing
	return nil
}

// Commit 发布工作副本：去掉 Delete Pending 的规则，并把待定的 QUERY_IDS 规则放在最前面。
// 成功后从 store 重新加载，所有规则回到 Current；失败时保留工作副本并返回 *smartcache.CommitError。
func (s *Session) Commit(ctx context.Context) (string, error) {
	if s.state == Browsing {
		s.state = ConfirmingCommit
	}
	if s.state != ConfirmingCommit {
		return "", ErrInvalidState
	}

	rules := s.workingSet()
	id, err := s.store.Commit(ctx, rules)
	if err != nil {
		s.state = Browsing
		s.logger.Warn("commit failed, keeping working copy", "error", err)
		var ce *smartcache.CommitError
		if errors.As(err, &ce) {
			return "", err
		}
		return "", &smartcache.CommitError{Err: err}
	}

	s.state = Committed
	s.logger.Info("rules committed", "revision", id, "rules", len(rules.Normalize()))
	s.reload()
	return id, nil
}

// Abort 丢弃所有修改。之后的操作都返回 ErrInvalidState。
func (s *Session) Abort() {
	if s.state != Aborted && s.Dirty() {
		s.logger.Debug("session aborted, discarding edits")
	}
	s.state = Aborted
	s.entries = nil
	s.pending = nil
	s.byQuery = nil
}

// AssignTTL 为查询设置待定 TTL。相同 TTL 的查询合并为一条 QUERY_IDS 规则；
// 重新设置会把查询从原来的待定规则中移出，空规则随之删除。
func (s *Session) AssignTTL(queryID string, ttl time.Duration) error {
	if s.state != Browsing {
		return ErrInvalidState
	}
	queryID = strings.TrimSpace(queryID)
	if queryID == "" {
		return &smartcache.ValidationError{Field: "query id", Reason: "must not be empty"}
	}
	if ttl < 0 {
		return &smartcache.ValidationError{Field: "ttl", Value: ttl.String(), Reason: "must not be negative"}
	}

	if old, ok := s.byQuery[queryID]; ok {
		if old == ttl {
			return nil
		}
		s.unassign(queryID, old)
	}

	idx := slices.IndexFunc(s.pending, func(p *pendingRule) bool { return p.ttl == ttl })
	if idx < 0 {
		s.pending = append(s.pending, &pendingRule{ttl: ttl})
		idx = len(s.pending) - 1
	}
	s.pending[idx].ids = append(s.pending[idx].ids, queryID)
	s.byQuery[queryID] = ttl
	return nil
}

func (s *Session) unassign(queryID string, ttl time.Duration) {
	delete(s.byQuery, queryID)
	idx := slices.IndexFunc(s.pending, func(p *pendingRule) bool { return p.ttl == ttl })
	if idx < 0 {
		return
	}
	p := s.pending[idx]
	p.ids = slices.DeleteFunc(p.ids, func(id string) bool { return id == queryID })
	if len(p.ids) == 0 {
		s.pending = slices.Delete(s.pending, idx, idx+1)
	}
}

// PendingTTL 返回查询的待定 TTL。
func (s *Session) PendingTTL(queryID string) (time.Duration, bool) {
	ttl, ok := s.byQuery[queryID]
	return ttl, ok
}

// PendingRules 按 TTL 首次出现的顺序返回待定的 QUERY_IDS 规则。
func (s *Session) PendingRules() smartcache.RuleSet {
	out := make(smartcache.RuleSet, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, smartcache.RuleConfig{
			Predicate: smartcache.Predicate{
				Type:   smartcache.PredicateQueryIDs,
				Values: slices.Clone(p.ids),
			},
			TTL: p.ttl,
		})
	}
	return out
}

// workingSet 计算将要发布的规则集。
// 待定规则逐条插到最前面，后出现的 TTL 优先级更高，与 Create 的语义一致。
func (s *Session) workingSet() smartcache.RuleSet {
	pending := s.PendingRules()
	slices.Reverse(pending)

	rules := make(smartcache.RuleSet, 0, len(pending)+len(s.entries))
	rules = append(rules, pending...)
	for _, e := range s.entries {
		if e.Status == StatusDeletePending {
			continue
		}
		rules = append(rules, e.Rule)
	}
	return rules
}

// reload 从 store 读取生效规则集，清空待定规则并回到 Browsing。
func (s *Session) reload() {
	rules := s.store.Rules()
	s.entries = make([]Entry, len(rules))
	for i, r := range rules {
		s.entries[i] = Entry{Rule: r, Status: StatusCurrent}
	}
	s.pending = nil
	s.byQuery = make(map[string]time.Duration)
	s.state = Browsing
}

// Refresh 丢弃修改并重新读取生效规则集。
func (s *Session) Refresh() error {
	if s.state != Browsing {
		return ErrInvalidState
	}
	s.reload()
	return nil
}

func (s *Session) begin(next State) error {
	if s.state != Browsing {
		return ErrInvalidState
	}
	s.state = next
	return nil
}

func (s *Session) finish() {
	if s.state != Aborted {
		s.state = Browsing
	}
}
