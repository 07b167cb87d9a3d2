package smartcache

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Analytics 是外部分析存储的只读视图（加上清空指标）。
// 指标由缓存代理写入，这里只读取并附加规则匹配结果。
type Analytics interface {
	Queries(ctx context.Context) ([]QueryInfo, error)
	Tables(ctx context.Context) ([]TableInfo, error)
	ClearMetrics(ctx context.Context) error
}

// RedisAnalytics 从 <app>:query:<id> Hash 中读取查询统计。
type RedisAnalytics struct {
	rdb         redis.UniversalClient
	application string
	scanCount   int64
}

// NewRedisAnalytics 创建分析存储读取器。
func NewRedisAnalytics(client redis.UniversalClient, application string) *RedisAnalytics {
	return &RedisAnalytics{
		rdb:         client,
		application: application,
		scanCount:   500,
	}
}

// Queries 扫描全部查询 Hash 并以 Pipeline 读取，按 ID 排序返回。
func (a *RedisAnalytics) Queries(ctx context.Context) ([]QueryInfo, error) {
	keys, err := a.queryKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	// HGetAll 只需一次往返
	pipe := a.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("read query stats failed: %w", err)
	}

	prefix := a.application + SuffixQuery
	queries := make([]QueryInfo, 0, len(keys))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			// 扫描与读取之间被删除
			continue
		}
		q, err := parseQuery(strings.TrimPrefix(keys[i], prefix), fields)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", keys[i], err)
		}
		queries = append(queries, q)
	}

	sort.Slice(queries, func(i, j int) bool { return queries[i].ID < queries[j].ID })
	return queries, nil
}

// Tables 按表聚合：访问次数求和，平均耗时取各查询平均值的均值。
func (a *RedisAnalytics) Tables(ctx context.Context) ([]TableInfo, error) {
	queries, err := a.Queries(ctx)
	if err != nil {
		return nil, err
	}
	return AggregateTables(queries), nil
}

// AggregateTables 把查询统计聚合为表统计，按表名排序。
func AggregateTables(queries []QueryInfo) []TableInfo {
	type acc struct {
		count   int64
		meanSum float64
		n       int
	}
	byName := make(map[string]*acc)
	for _, q := range queries {
		for _, t := range q.Tables {
			a, ok := byName[t]
			if !ok {
				a = &acc{}
				byName[t] = a
			}
			a.count += q.Count
			a.meanSum += q.MeanTime
			a.n++
		}
	}

	tables := make([]TableInfo, 0, len(byName))
	for name, a := range byName {
		tables = append(tables, TableInfo{
			Name:     name,
			Count:    a.count,
			MeanTime: a.meanSum / float64(a.n),
		})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}

// ClearMetrics 删除所有查询的 count / mean 字段，保留 SQL 与表信息。
func (a *RedisAnalytics) ClearMetrics(ctx context.Context) error {
	keys, err := a.queryKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := a.rdb.Pipeline()
	for _, k := range keys {
		pipe.HDel(ctx, k, QueryFieldCount, QueryFieldMean)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("clear metrics failed: %w", err)
	}
	return nil
}

func (a *RedisAnalytics) queryKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := a.rdb.Scan(ctx, 0, KeyQueryPattern(a.application), a.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan query keys failed: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func parseQuery(id string, fields map[string]string) (QueryInfo, error) {
	q := QueryInfo{
		ID:  id,
		SQL: fields[QueryFieldSQL],
	}
	if v := fields[QueryFieldID]; v != "" {
		q.ID = v
	}
	q.Tables = splitTables(fields[QueryFieldTable])

	if v := fields[QueryFieldCount]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return QueryInfo{}, fmt.Errorf("invalid %s %q: %w", QueryFieldCount, v, err)
		}
		q.Count = n
	}
	if v := fields[QueryFieldMean]; v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return QueryInfo{}, fmt.Errorf("invalid %s %q: %w", QueryFieldMean, v, err)
		}
		q.MeanTime = f
	}
	return q, nil
}

func splitTables(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
