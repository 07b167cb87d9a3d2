package smartcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules(t testing.TB) RuleSet {
	return RuleSet{
		mustRule(t, "query-ids", "q1,q2", "30s"),
		mustRule(t, "tables", "orders,users", "1h"),
		mustRule(t, "tables-all", "orders", "2d"),
		mustRule(t, "tables-any", "products", "5m"),
		mustRule(t, "regex", `^SELECT .* FROM items`, "10m"),
		mustRule(t, "any", "", "0s"),
	}
}

func TestEncode_Layout(t *testing.T) {
	rec := Encode(RuleSet{
		mustRule(t, "tables-any", "orders,users", "5m"),
		mustRule(t, "regex", "^SELECT", "1h"),
		DefaultRule(),
	})

	assert.Equal(t, Record{
		"rules[0].ttl":          "5m",
		"rules[0].tablesAny[0]": "orders",
		"rules[0].tablesAny[1]": "users",
		"rules[1].ttl":          "1h",
		"rules[1].regex":        "^SELECT",
		"rules[2].ttl":          "0s",
	}, rec)
}

// TestRecordPairsDeterminism 验证同一规则集总是得到相同的字段顺序。
func TestRecordPairsDeterminism(t *testing.T) {
	rules := sampleRules(t)
	expected := Encode(rules).Pairs()

	for i := 0; i < 1000; i++ {
		got := Encode(rules).Pairs()
		if !assert.Equal(t, expected, got) {
			t.Fatalf("iteration %d: non-deterministic output", i)
		}
	}
	assert.Equal(t, Encode(rules).Digest(), rules.Digest())
}

func TestDecode_RoundTrip(t *testing.T) {
	rules := sampleRules(t)

	got, err := Decode(Encode(rules))
	require.NoError(t, err)
	assert.True(t, rules.Equal(got), "got %v", got)

	// 解码出的正则规则可以直接匹配
	q := &QueryInfo{ID: "x", SQL: "SELECT a FROM items"}
	r := Match(got, q)
	require.NotNil(t, r)
	assert.Equal(t, PredicateRegex, r.Predicate.Type)
}

func TestDecode_ManyRules(t *testing.T) {
	// rules[10] 在字典序上排在 rules[2] 之前，解码仍按下标还原
	var rules RuleSet
	for i := 0; i < 12; i++ {
		rules = append(rules, RuleConfig{
			Predicate: Predicate{Type: PredicateQueryIDs, Values: []string{string(rune('a' + i))}},
			TTL:       time.Duration(i+1) * time.Second,
		})
	}
	got, err := Decode(Encode(rules))
	require.NoError(t, err)
	assert.True(t, rules.Equal(got))
}

func TestDecode_EmptyIsDefault(t *testing.T) {
	for _, rec := range []Record{nil, {}, {"meta.writer": "someone"}} {
		got, err := Decode(rec)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Equal(DefaultRule()))
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]Record{
		"bad path":       {"rules[x].ttl": "5m"},
		"unknown field":  {"rules[0].ttl": "5m", "rules[0].tablesSome[0]": "a"},
		"missing ttl":    {"rules[0].tables[0]": "a"},
		"bad ttl":        {"rules[0].ttl": "soon"},
		"negative ttl":   {"rules[0].ttl": "-5m"},
		"bad regex":      {"rules[0].ttl": "5m", "rules[0].regex": "([a"},
		"two predicates": {"rules[0].ttl": "5m", "rules[0].tables[0]": "a", "rules[0].regex": "a"},
		"index gap":      {"rules[0].ttl": "5m", "rules[2].ttl": "5m"},
		"element gap":    {"rules[0].ttl": "5m", "rules[0].tables[1]": "a"},
		"list no index":  {"rules[0].ttl": "5m", "rules[0].tables": "a"},
		"empty element":  {"rules[0].ttl": "5m", "rules[0].tables[0]": ""},
	}
	for name, rec := range cases {
		_, err := Decode(rec)
		var se *SerializationError
		assert.ErrorAs(t, err, &se, name)
	}
}
