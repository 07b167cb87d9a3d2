package smartcache

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// PredicateType 是规则的匹配方式，各种方式互斥。
type PredicateType int

const (
	PredicateAny       PredicateType = iota // 无条件匹配
	PredicateTables                         // 查询的表集合与规则完全相等
	PredicateTablesAll                      // 规则的表是查询表的子集
	PredicateTablesAny                      // 与查询表有交集
	PredicateQueryIDs                       // 查询 ID 在列表中
	PredicateRegex                          // 正则匹配归一化后的 SQL
)

var predicateNames = map[PredicateType]string{
	PredicateAny:       "ANY",
	PredicateTables:    "TABLES",
	PredicateTablesAll: "TABLES_ALL",
	PredicateTablesAny: "TABLES_ANY",
	PredicateQueryIDs:  "QUERY_IDS",
	PredicateRegex:     "REGEX",
}

// PredicateTypes 按展示顺序列出可以由操作员选择的谓词类型。
var PredicateTypes = []PredicateType{
	PredicateTables,
	PredicateTablesAll,
	PredicateTablesAny,
	PredicateQueryIDs,
	PredicateRegex,
	PredicateAny,
}

func (t PredicateType) String() string {
	if n, ok := predicateNames[t]; ok {
		return n
	}
	return fmt.Sprintf("PredicateType(%d)", int(t))
}

// Prompt 返回录入该类型匹配值时的提示语。
func (t PredicateType) Prompt() string {
	switch t {
	case PredicateTables, PredicateTablesAll, PredicateTablesAny:
		return "Enter a comma-separated list of tables to match against:"
	case PredicateQueryIDs:
		return "Enter a comma-separated list of Query IDs to match against:"
	case PredicateRegex:
		return "Enter a regular expression to match against:"
	}
	return ""
}

// ParsePredicateType 解析谓词类型名，大小写不敏感，- 与 _ 等价。
func ParsePredicateType(s string) (PredicateType, error) {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	switch name {
	case "any":
		return PredicateAny, nil
	case "tables", "tables-exact":
		return PredicateTables, nil
	case "tables-all":
		return PredicateTablesAll, nil
	case "tables-any":
		return PredicateTablesAny, nil
	case "query-ids":
		return PredicateQueryIDs, nil
	case "regex":
		return PredicateRegex, nil
	}
	return 0, &ValidationError{
		Field:  "rule type",
		Value:  s,
		Reason: "valid types are 'any', 'tables-any', 'tables-all', 'tables-exact', 'query-ids' and 'regex'",
	}
}

// Predicate 是规则的匹配条件。
// Values 存放表名或查询 ID，Pattern 存放正则；Any 两者皆空。
type Predicate struct {
	Type    PredicateType
	Values  []string
	Pattern string

	re *regexp.Regexp
}

// RuleConfig 是一条缓存规则。TTL 为 0 表示不缓存。
type RuleConfig struct {
	Predicate Predicate
	TTL       time.Duration
}

// RuleSet 是有序的规则列表，下标越小优先级越高。
type RuleSet []RuleConfig

// DefaultRule 返回 ANY/TTL=0 规则，规则集为空时以它代替。
func DefaultRule() RuleConfig {
	return RuleConfig{Predicate: Predicate{Type: PredicateAny}}
}

// NewRule 由操作员输入构造规则：谓词类型名、匹配值（逗号分隔）与 TTL。
func NewRule(kind, match, ttl string) (RuleConfig, error) {
	t, err := ParsePredicateType(kind)
	if err != nil {
		return RuleConfig{}, err
	}
	d, err := ParseTTL(ttl)
	if err != nil {
		return RuleConfig{}, err
	}
	p, err := NewPredicate(t, match)
	if err != nil {
		return RuleConfig{}, err
	}
	return RuleConfig{Predicate: p, TTL: d}, nil
}

// NewPredicate 校验匹配值并构造谓词。列表类型按逗号拆分并去除空白。
func NewPredicate(t PredicateType, match string) (Predicate, error) {
	switch t {
	case PredicateAny:
		return Predicate{Type: PredicateAny}, nil
	case PredicateRegex:
		return newRegexPredicate(match)
	case PredicateTables, PredicateTablesAll, PredicateTablesAny, PredicateQueryIDs:
		values, err := SplitList(t, match)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{Type: t, Values: values}, nil
	}
	return Predicate{}, &ValidationError{Field: "rule type", Value: t.String(), Reason: "unknown predicate type"}
}

// MakeRule 由已经拆分好的字段构造规则，解码日志记录时使用。
func MakeRule(t PredicateType, values []string, pattern string, ttl time.Duration) (RuleConfig, error) {
	if ttl < 0 {
		return RuleConfig{}, &ValidationError{Field: "ttl", Value: ttl.String(), Reason: "must not be negative"}
	}
	var (
		p   Predicate
		err error
	)
	switch t {
	case PredicateRegex:
		p, err = newRegexPredicate(pattern)
	default:
		p, err = NewPredicate(t, strings.Join(values, ","))
	}
	if err != nil {
		return RuleConfig{}, err
	}
	return RuleConfig{Predicate: p, TTL: ttl}, nil
}

// SplitList 拆分逗号分隔的表名 / 查询 ID 列表，重复项只保留第一次出现。
func SplitList(t PredicateType, match string) ([]string, error) {
	field := "tables"
	if t == PredicateQueryIDs {
		field = "query ids"
	}
	if strings.TrimSpace(match) == "" {
		return nil, &ValidationError{Field: field, Reason: "at least one value is required"}
	}

	parts := strings.Split(match, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		v := strings.TrimSpace(part)
		if v == "" {
			return nil, &ValidationError{Field: field, Value: match, Reason: "empty list element"}
		}
		if !slices.Contains(values, v) {
			values = append(values, v)
		}
	}
	return values, nil
}

func newRegexPredicate(pattern string) (Predicate, error) {
	if pattern == "" {
		return Predicate{}, &ValidationError{Field: "regex", Reason: "pattern is required"}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Predicate{}, &ValidationError{Field: "regex", Value: pattern, Reason: err.Error()}
	}
	return Predicate{Type: PredicateRegex, Pattern: pattern, re: re}, nil
}

// Match 返回规则的匹配值描述（列表以逗号连接）。
func (p Predicate) Match() string {
	switch p.Type {
	case PredicateAny:
		return "*"
	case PredicateRegex:
		return p.Pattern
	}
	return strings.Join(p.Values, ",")
}

// Equal 比较两条规则的谓词、匹配值与 TTL。
func (r RuleConfig) Equal(other RuleConfig) bool {
	return r.TTL == other.TTL &&
		r.Predicate.Type == other.Predicate.Type &&
		r.Predicate.Pattern == other.Predicate.Pattern &&
		slices.Equal(r.Predicate.Values, other.Predicate.Values)
}

func (r RuleConfig) String() string {
	return fmt.Sprintf("%s %s ttl=%s", r.Predicate.Type, r.Predicate.Match(), FormatTTL(r.TTL))
}

// Clone 返回规则集的深拷贝。
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	for i, r := range rs {
		r.Predicate.Values = slices.Clone(r.Predicate.Values)
		out[i] = r
	}
	return out
}

// Equal 按顺序逐条比较。
func (rs RuleSet) Equal(other RuleSet) bool {
	return slices.EqualFunc(rs, other, RuleConfig.Equal)
}

// Normalize 把空规则集替换为唯一的 ANY/TTL=0 规则。
func (rs RuleSet) Normalize() RuleSet {
	if len(rs) == 0 {
		return RuleSet{DefaultRule()}
	}
	return rs
}

// QueryInfo 是分析存储中观测到的一条查询。
type QueryInfo struct {
	ID       string
	SQL      string
	Tables   []string
	Count    int64   // 访问次数
	MeanTime float64 // 平均查询耗时 (ms)

	// CurrentRule 是生效规则集中第一条匹配的规则，nil 表示不缓存。
	CurrentRule *RuleConfig
}

// TableInfo 是按表聚合的统计信息。
type TableInfo struct {
	Name     string
	Count    int64
	MeanTime float64

	// Rule 是第一条包含该表的 TABLES_ANY 规则。
	Rule *RuleConfig
}

// Revision 是配置日志中的一次提交。
type Revision struct {
	ID        string
	Timestamp time.Time
	Rules     RuleSet
	Digest    string
	Err       error // 记录无法解码时非空
}
