package editor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btt-go/smartcache"
)

// 表头
var (
	RuleHeaders  = []string{"#", "Status", "Type", "Match", "TTL"}
	QueryHeaders = []string{"ID", "Tables", "Mean Time (ms)", "Access Frequency", "Current TTL", "Pending TTL", "Query"}
	TableHeaders = []string{"Table", "Mean Time (ms)", "Access Frequency", "Rule TTL"}
)

const maxSQLWidth = 60

// RuleRows 把工作副本渲染为表格行。
func RuleRows(entries []Entry) [][]string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			e.Status.String(),
			e.Rule.Predicate.Type.String(),
			e.Rule.Predicate.Match(),
			smartcache.FormatTTL(e.Rule.TTL),
		}
	}
	return rows
}

// QueryRows 渲染查询表格；s 为 nil 时待定 TTL 列为空。
func QueryRows(queries []smartcache.QueryInfo, s *Session) [][]string {
	rows := make([][]string, len(queries))
	for i, q := range queries {
		pending := ""
		if s != nil {
			if ttl, ok := s.PendingTTL(q.ID); ok {
				pending = smartcache.FormatTTL(ttl)
			}
		}
		rows[i] = []string{
			q.ID,
			strings.Join(q.Tables, ","),
			fmt.Sprintf("%.2f", q.MeanTime),
			strconv.FormatInt(q.Count, 10),
			ruleTTL(q.CurrentRule),
			pending,
			truncate(q.SQL, maxSQLWidth),
		}
	}
	return rows
}

// TableRows 渲染按表聚合的表格。
func TableRows(tables []smartcache.TableInfo) [][]string {
	rows := make([][]string, len(tables))
	for i, t := range tables {
		rows[i] = []string{
			t.Name,
			fmt.Sprintf("%.2f", t.MeanTime),
			strconv.FormatInt(t.Count, 10),
			ruleTTL(t.Rule),
		}
	}
	return rows
}

func ruleTTL(r *smartcache.RuleConfig) string {
	if r == nil {
		return ""
	}
	return smartcache.FormatTTL(r.TTL)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
