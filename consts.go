package smartcache

// DefaultApplication 是未指定应用名时使用的命名空间。
const DefaultApplication = "smartcache"

// Suffix defs
const (
	SuffixConfig = ":config" // 规则集变更日志 (Redis Stream)
	SuffixQuery  = ":query:" // 查询统计 (Hash)
)

// 记录字段名
const (
	fieldRules     = "rules"
	fieldTTL       = "ttl"
	fieldTables    = "tables"
	fieldTablesAll = "tablesAll"
	fieldTablesAny = "tablesAny"
	fieldQueryIDs  = "queryIds"
	fieldRegex     = "regex"
)

// 查询 Hash 的字段名
const (
	QueryFieldID    = "id"
	QueryFieldSQL   = "sql"
	QueryFieldTable = "table"
	QueryFieldCount = "count"
	QueryFieldMean  = "mean"
)

// Redis Key Helper

// KeyConfig 返回应用规则集日志的 Stream Key。
func KeyConfig(application string) string {
	return application + SuffixConfig
}

// KeyQuery 返回单条查询统计的 Hash Key。
func KeyQuery(application, id string) string {
	return application + SuffixQuery + id
}

// KeyQueryPattern 返回扫描全部查询 Hash 的 MATCH 模式。
func KeyQueryPattern(application string) string {
	return application + SuffixQuery + "*"
}

func predicateField(t PredicateType) string {
	switch t {
	case PredicateTables:
		return fieldTables
	case PredicateTablesAll:
		return fieldTablesAll
	case PredicateTablesAny:
		return fieldTablesAny
	case PredicateQueryIDs:
		return fieldQueryIDs
	case PredicateRegex:
		return fieldRegex
	}
	return ""
}

func fieldPredicate(field string) (PredicateType, bool) {
	switch field {
	case fieldTables:
		return PredicateTables, true
	case fieldTablesAll:
		return PredicateTablesAll, true
	case fieldTablesAny:
		return PredicateTablesAny, true
	case fieldQueryIDs:
		return PredicateQueryIDs, true
	case fieldRegex:
		return PredicateRegex, true
	}
	return 0, false
}
