package smartcache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedQuery(t testing.TB, rdb *redis.Client, app, id, sql, tables, count, mean string) {
	t.Helper()
	fields := map[string]interface{}{
		QueryFieldSQL:   sql,
		QueryFieldTable: tables,
	}
	if count != "" {
		fields[QueryFieldCount] = count
	}
	if mean != "" {
		fields[QueryFieldMean] = mean
	}
	require.NoError(t, rdb.HSet(context.Background(), KeyQuery(app, id), fields).Err())
}

func TestRedisAnalytics_Queries(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	seedQuery(t, rdb, "app", "b2", "SELECT * FROM orders o JOIN users u", "orders,users", "10", "2.5")
	seedQuery(t, rdb, "app", "a1", "SELECT * FROM users", "users", "4", "1.5")
	seedQuery(t, rdb, "other", "zz", "SELECT 1", "dual", "1", "1")

	a := NewRedisAnalytics(rdb, "app")
	queries, err := a.Queries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "a1", queries[0].ID)
	assert.Equal(t, []string{"users"}, queries[0].Tables)
	assert.Equal(t, int64(4), queries[0].Count)
	assert.InDelta(t, 1.5, queries[0].MeanTime, 1e-9)

	assert.Equal(t, "b2", queries[1].ID)
	assert.Equal(t, []string{"orders", "users"}, queries[1].Tables)
	assert.Nil(t, queries[1].CurrentRule)
}

func TestRedisAnalytics_IDField(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	require.NoError(t, rdb.HSet(ctx, KeyQuery("app", "k1"), map[string]interface{}{
		QueryFieldID:    "real-id",
		QueryFieldSQL:   "SELECT 1",
		QueryFieldTable: "",
	}).Err())

	queries, err := NewRedisAnalytics(rdb, "app").Queries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, "real-id", queries[0].ID)
	assert.Empty(t, queries[0].Tables)
	assert.Zero(t, queries[0].Count)
}

func TestRedisAnalytics_BadMetric(t *testing.T) {
	_, rdb := newTestRedis(t)
	seedQuery(t, rdb, "app", "q1", "SELECT 1", "t", "many", "")

	_, err := NewRedisAnalytics(rdb, "app").Queries(context.Background())
	assert.Error(t, err)
}

func TestRedisAnalytics_Tables(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	seedQuery(t, rdb, "app", "q1", "SELECT ...", "orders,users", "10", "2")
	seedQuery(t, rdb, "app", "q2", "SELECT ...", "orders", "5", "4")

	tables, err := NewRedisAnalytics(rdb, "app").Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "orders", tables[0].Name)
	assert.Equal(t, int64(15), tables[0].Count)
	assert.InDelta(t, 3.0, tables[0].MeanTime, 1e-9)

	assert.Equal(t, "users", tables[1].Name)
	assert.Equal(t, int64(10), tables[1].Count)
	assert.InDelta(t, 2.0, tables[1].MeanTime, 1e-9)
}

func TestRedisAnalytics_ClearMetrics(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	seedQuery(t, rdb, "app", "q1", "SELECT 1", "t", "10", "2")

	a := NewRedisAnalytics(rdb, "app")
	require.NoError(t, a.ClearMetrics(ctx))

	fields, err := rdb.HGetAll(ctx, KeyQuery("app", "q1")).Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{QueryFieldSQL: "SELECT 1", QueryFieldTable: "t"}, fields)

	queries, err := a.Queries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Zero(t, queries[0].Count)

	// 没有查询时也不报错
	assert.NoError(t, NewRedisAnalytics(rdb, "empty").ClearMetrics(ctx))
}
