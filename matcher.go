package smartcache

import (
	"slices"
)

// Match 为查询找到第一条匹配的规则。
// 规则按照 Slice 顺序匹配，一旦匹配成功立即返回（列表顺序即优先级）。
// 没有匹配时返回 nil，表示该查询不缓存。
func Match(rules []RuleConfig, q *QueryInfo) *RuleConfig {
	if i := MatchIndex(rules, q); i >= 0 {
		return &rules[i]
	}
	return nil
}

// MatchIndex 返回第一条匹配规则的下标，没有匹配时返回 -1。
func MatchIndex(rules []RuleConfig, q *QueryInfo) int {
	for i := range rules {
		if matchOne(&rules[i].Predicate, q) {
			return i
		}
	}
	return -1
}

// AttachRules 为每个查询设置 CurrentRule。
// CurrentRule 指向规则的副本，与 rules 互不影响。
func AttachRules(queries []QueryInfo, rules []RuleConfig) {
	for i := range queries {
		queries[i].CurrentRule = nil
		if r := Match(rules, &queries[i]); r != nil {
			rc := *r
			queries[i].CurrentRule = &rc
		}
	}
}

// TableRule 返回第一条包含 table 的 TABLES_ANY 规则。
func TableRule(rules []RuleConfig, table string) *RuleConfig {
	for i := range rules {
		p := &rules[i].Predicate
		if p.Type == PredicateTablesAny && slices.Contains(p.Values, table) {
			rc := rules[i]
			return &rc
		}
	}
	return nil
}

func matchOne(p *Predicate, q *QueryInfo) bool {
	switch p.Type {
	case PredicateAny:
		return true
	case PredicateTables:
		return sameSet(p.Values, q.Tables)
	case PredicateTablesAll:
		return subset(p.Values, q.Tables)
	case PredicateTablesAny:
		for _, t := range q.Tables {
			if slices.Contains(p.Values, t) {
				return true
			}
		}
		return false
	case PredicateQueryIDs:
		return slices.Contains(p.Values, q.ID)
	case PredicateRegex:
		if p.re == nil {
			// 只有绕过构造函数的零值规则才会走到这里
			return false
		}
		return p.re.MatchString(q.SQL)
	}
	return false
}

// subset 检查 want 中的每个元素都出现在 have 中。
func subset(want, have []string) bool {
	if len(want) == 0 {
		return false
	}
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}

// sameSet 按集合语义比较，忽略顺序与重复。
func sameSet(a, b []string) bool {
	return subset(a, b) && subset(b, a)
}
