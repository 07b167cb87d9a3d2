package smartcache

import (
	"testing"
	"time"
)

func mustRule(t testing.TB, kind, match, ttl string) RuleConfig {
	t.Helper()
	r, err := NewRule(kind, match, ttl)
	if err != nil {
		t.Fatalf("NewRule(%q, %q, %q) failed: %v", kind, match, ttl, err)
	}
	return r
}

func TestMatch(t *testing.T) {
	rules := []RuleConfig{
		mustRule(t, "tables-any", "orders", "5m"),
	}

	// 场景: 查询涉及 orders 与 users，命中
	q := &QueryInfo{ID: "q1", Tables: []string{"orders", "users"}}
	r := Match(rules, q)
	if r == nil || r.TTL != 5*time.Minute {
		t.Errorf("Expected 5m rule, got %v", r)
	}

	// 只涉及 users，不命中
	q2 := &QueryInfo{ID: "q2", Tables: []string{"users"}}
	if r := Match(rules, q2); r != nil {
		t.Errorf("Expected no match, got %v", r)
	}
}

func TestMatch_Predicates(t *testing.T) {
	q := &QueryInfo{
		ID:     "abc",
		SQL:    "SELECT * FROM orders o JOIN users u ON o.uid = u.id",
		Tables: []string{"orders", "users"},
	}

	cases := []struct {
		name  string
		rule  RuleConfig
		match bool
	}{
		{"tables exact", mustRule(t, "tables", "users,orders", "1m"), true},
		{"tables exact subset", mustRule(t, "tables", "orders", "1m"), false},
		{"tables exact superset", mustRule(t, "tables", "orders,users,items", "1m"), false},
		{"tables all subset", mustRule(t, "tables-all", "orders", "1m"), true},
		{"tables all equal", mustRule(t, "tables-all", "orders,users", "1m"), true},
		{"tables all missing", mustRule(t, "tables-all", "orders,items", "1m"), false},
		{"tables any hit", mustRule(t, "tables-any", "items,users", "1m"), true},
		{"tables any miss", mustRule(t, "tables-any", "items", "1m"), false},
		{"query ids hit", mustRule(t, "query-ids", "xyz,abc", "1m"), true},
		{"query ids miss", mustRule(t, "query-ids", "xyz", "1m"), false},
		{"regex hit", mustRule(t, "regex", `JOIN\s+users`, "1m"), true},
		{"regex miss", mustRule(t, "regex", `^UPDATE`, "1m"), false},
		{"any", mustRule(t, "any", "", "1m"), true},
	}

	for _, tc := range cases {
		got := Match([]RuleConfig{tc.rule}, q) != nil
		if got != tc.match {
			t.Errorf("%s: expected match=%v, got %v", tc.name, tc.match, got)
		}
	}
}

func TestMatch_Priority(t *testing.T) {
	a := mustRule(t, "tables-any", "orders", "5m")
	b := mustRule(t, "any", "", "1h")
	q := &QueryInfo{ID: "q", Tables: []string{"orders"}}

	// 顺序决定优先级
	if r := Match([]RuleConfig{a, b}, q); r == nil || r.TTL != 5*time.Minute {
		t.Errorf("Expected first rule (5m), got %v", r)
	}
	if r := Match([]RuleConfig{b, a}, q); r == nil || r.TTL != time.Hour {
		t.Errorf("Expected swapped first rule (1h), got %v", r)
	}

	// 重复调用结果稳定
	rules := []RuleConfig{a, b}
	for i := 0; i < 100; i++ {
		if idx := MatchIndex(rules, q); idx != 0 {
			t.Fatalf("iteration %d: expected index 0, got %d", i, idx)
		}
	}
}

func TestMatch_NoRules(t *testing.T) {
	if r := Match(nil, &QueryInfo{ID: "q"}); r != nil {
		t.Errorf("Expected nil for empty rule set, got %v", r)
	}
	if idx := MatchIndex(nil, &QueryInfo{ID: "q"}); idx != -1 {
		t.Errorf("Expected -1, got %d", idx)
	}
}

func TestAttachRules(t *testing.T) {
	rules := []RuleConfig{
		mustRule(t, "query-ids", "q1", "10s"),
		mustRule(t, "tables-any", "orders", "5m"),
	}
	queries := []QueryInfo{
		{ID: "q1", Tables: []string{"users"}},
		{ID: "q2", Tables: []string{"orders"}},
		{ID: "q3", Tables: []string{"users"}},
	}

	AttachRules(queries, rules)

	if queries[0].CurrentRule == nil || queries[0].CurrentRule.TTL != 10*time.Second {
		t.Errorf("q1: expected 10s rule, got %v", queries[0].CurrentRule)
	}
	if queries[1].CurrentRule == nil || queries[1].CurrentRule.TTL != 5*time.Minute {
		t.Errorf("q2: expected 5m rule, got %v", queries[1].CurrentRule)
	}
	if queries[2].CurrentRule != nil {
		t.Errorf("q3: expected no rule, got %v", queries[2].CurrentRule)
	}

	// CurrentRule 是副本
	queries[0].CurrentRule.TTL = time.Hour
	if rules[0].TTL != 10*time.Second {
		t.Errorf("AttachRules must not alias the rule set")
	}
}

func TestTableRule(t *testing.T) {
	rules := []RuleConfig{
		mustRule(t, "tables", "orders", "1m"),
		mustRule(t, "tables-any", "users,orders", "2m"),
		mustRule(t, "tables-any", "orders", "3m"),
	}

	r := TableRule(rules, "orders")
	if r == nil || r.TTL != 2*time.Minute {
		t.Errorf("Expected first TABLES_ANY rule (2m), got %v", r)
	}
	if r := TableRule(rules, "items"); r != nil {
		t.Errorf("Expected nil for unknown table, got %v", r)
	}
}
