// 列表命令的排序。

package main

import (
	"cmp"
	"slices"
	"strings"

	"github.com/btt-go/smartcache"
)

// 排序字段。匹配时忽略大小写、连字符与下划线，旧的 queryTime、accessFrequency 写法仍然可用。
const (
	sortQueryTime       = "query-time"
	sortAccessFrequency = "access-frequency"
	sortTables          = "tables"
	sortID              = "id"
	sortName            = "name"

	sortAsc  = "asc"
	sortDesc = "desc"
)

func normalizeSortKey(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
}

func parseDirection(dir string) (desc bool, err error) {
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case sortAsc, "ascending":
		return false, nil
	case sortDesc, "descending":
		return true, nil
	}
	return false, &smartcache.ValidationError{
		Field:  "sort direction",
		Value:  dir,
		Reason: "valid directions are asc and desc",
	}
}

func direction[T any](desc bool, f func(a, b T) int) func(a, b T) int {
	if !desc {
		return f
	}
	return func(a, b T) int { return f(b, a) }
}

// sortQueries 原地排序。
func sortQueries(queries []smartcache.QueryInfo, by, dir string) error {
	desc, err := parseDirection(dir)
	if err != nil {
		return err
	}

	var f func(a, b smartcache.QueryInfo) int
	switch normalizeSortKey(by) {
	case normalizeSortKey(sortQueryTime):
		f = func(a, b smartcache.QueryInfo) int { return cmp.Compare(a.MeanTime, b.MeanTime) }
	case normalizeSortKey(sortAccessFrequency):
		f = func(a, b smartcache.QueryInfo) int { return cmp.Compare(a.Count, b.Count) }
	case sortTables:
		f = func(a, b smartcache.QueryInfo) int {
			return cmp.Compare(strings.Join(a.Tables, ","), strings.Join(b.Tables, ","))
		}
	case sortID:
		f = func(a, b smartcache.QueryInfo) int { return cmp.Compare(a.ID, b.ID) }
	default:
		return &smartcache.ValidationError{
			Field:  "sort field",
			Value:  by,
			Reason: "valid fields are query-time, access-frequency, tables and id",
		}
	}
	slices.SortStableFunc(queries, direction(desc, f))
	return nil
}

// sortTableInfos 原地排序。
func sortTableInfos(tables []smartcache.TableInfo, by, dir string) error {
	desc, err := parseDirection(dir)
	if err != nil {
		return err
	}

	var f func(a, b smartcache.TableInfo) int
	switch normalizeSortKey(by) {
	case normalizeSortKey(sortQueryTime):
		f = func(a, b smartcache.TableInfo) int { return cmp.Compare(a.MeanTime, b.MeanTime) }
	case normalizeSortKey(sortAccessFrequency):
		f = func(a, b smartcache.TableInfo) int { return cmp.Compare(a.Count, b.Count) }
	case sortName:
		f = func(a, b smartcache.TableInfo) int { return cmp.Compare(a.Name, b.Name) }
	default:
		return &smartcache.ValidationError{
			Field:  "sort field",
			Value:  by,
			Reason: "valid fields are query-time, access-frequency and name",
		}
	}
	slices.SortStableFunc(tables, direction(desc, f))
	return nil
}
