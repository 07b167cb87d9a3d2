package smartcache

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Record 是一条扁平化的规则集记录：字段路径 -> 值。
// 例如 rules[0].tablesAny[1] = "orders"，rules[0].ttl = "5m"。
type Record map[string]string

var recordKey = regexp.MustCompile(`^rules\[(\d+)\]\.([A-Za-z]+)(?:\[(\d+)\])?$`)

// Encode 将整个规则集扁平化为一条记录。
func Encode(rs RuleSet) Record {
	rec := make(Record)
	for i, r := range rs {
		prefix := fmt.Sprintf("%s[%d].", fieldRules, i)
		rec[prefix+fieldTTL] = FormatTTL(r.TTL)

		switch r.Predicate.Type {
		case PredicateAny:
		case PredicateRegex:
			rec[prefix+fieldRegex] = r.Predicate.Pattern
		default:
			field := predicateField(r.Predicate.Type)
			for j, v := range r.Predicate.Values {
				rec[fmt.Sprintf("%s%s[%d]", prefix, field, j)] = v
			}
		}
	}
	return rec
}

// Keys 返回排序后的字段名，保证同一规则集总是产生相同的字段顺序。
func (rec Record) Keys() []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pairs 按 Keys 的顺序展开为 field, value, field, value ...
func (rec Record) Pairs() []string {
	keys := rec.Keys()
	out := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, rec[k])
	}
	return out
}

type partialRule struct {
	ttl      string
	hasTTL   bool
	field    string
	values   map[int]string
	pattern  string
	firstKey string
}

// Decode 从扁平化记录还原规则集。
// 不含任何 rules 字段的记录还原为唯一的 ANY/TTL=0 规则；非 rules 字段被忽略。
func Decode(rec Record) (RuleSet, error) {
	parts := make(map[int]*partialRule)

	for _, key := range rec.Keys() {
		if !strings.HasPrefix(key, fieldRules+"[") {
			continue
		}
		m := recordKey.FindStringSubmatch(key)
		if m == nil {
			return nil, &SerializationError{Key: key, Err: errors.New("unrecognized field path")}
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &SerializationError{Key: key, Err: err}
		}
		p, ok := parts[idx]
		if !ok {
			p = &partialRule{values: make(map[int]string), firstKey: key}
			parts[idx] = p
		}

		field, sub := m[2], m[3]
		if field == fieldTTL {
			if sub != "" {
				return nil, &SerializationError{Key: key, Err: errors.New("ttl is not a list")}
			}
			p.ttl, p.hasTTL = rec[key], true
			continue
		}

		t, ok := fieldPredicate(field)
		if !ok {
			return nil, &SerializationError{Key: key, Err: fmt.Errorf("unknown rule field %q", field)}
		}
		if p.field != "" && p.field != field {
			return nil, &SerializationError{Key: key, Err: fmt.Errorf("rule has both %s and %s", p.field, field)}
		}
		p.field = field

		if t == PredicateRegex {
			if sub != "" {
				return nil, &SerializationError{Key: key, Err: errors.New("regex is not a list")}
			}
			p.pattern = rec[key]
			continue
		}
		if sub == "" {
			return nil, &SerializationError{Key: key, Err: fmt.Errorf("%s requires an element index", field)}
		}
		j, err := strconv.Atoi(sub)
		if err != nil {
			return nil, &SerializationError{Key: key, Err: err}
		}
		p.values[j] = rec[key]
	}

	if len(parts) == 0 {
		return RuleSet{DefaultRule()}, nil
	}

	rs := make(RuleSet, len(parts))
	for i := range rs {
		p, ok := parts[i]
		if !ok {
			return nil, &SerializationError{Err: fmt.Errorf("rule index %d missing", i)}
		}
		r, err := p.build()
		if err != nil {
			return nil, &SerializationError{Key: p.firstKey, Err: err}
		}
		rs[i] = r
	}
	return rs, nil
}

func (p *partialRule) build() (RuleConfig, error) {
	if !p.hasTTL {
		return RuleConfig{}, errors.New("ttl missing")
	}
	ttl, err := ParseTTL(p.ttl)
	if err != nil {
		return RuleConfig{}, err
	}
	if p.field == "" {
		return RuleConfig{Predicate: Predicate{Type: PredicateAny}, TTL: ttl}, nil
	}

	t, _ := fieldPredicate(p.field)
	values := make([]string, len(p.values))
	for j := range values {
		v, ok := p.values[j]
		if !ok {
			return RuleConfig{}, fmt.Errorf("%s index %d missing", p.field, j)
		}
		values[j] = v
	}
	return MakeRule(t, values, p.pattern, ttl)
}
