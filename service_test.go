package smartcache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestService(t *testing.T, rdb redis.UniversalClient, app string) *Service {
	t.Helper()
	svc, err := Open(context.Background(), rdb, Options{
		Application:  app,
		SettleWindow: 2 * time.Second,
		Sync:         fastSync(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestService_OpenUnreachable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	_, err := Open(context.Background(), rdb, Options{Application: "app"})
	require.Error(t, err)
	assert.True(t, IsConnectivity(err))
}

func TestService_Ping(t *testing.T) {
	mr, rdb := newTestRedis(t)
	svc := openTestService(t, rdb, "app")
	require.NoError(t, svc.Ping(context.Background()))

	mr.Close()
	err := svc.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, IsConnectivity(err))

	// 未绑定客户端时不检查
	assert.NoError(t, NewService(nil, NewSynchronizer(&fakeLog{}, "app", fastSync()), nil, 0, nil).Ping(context.Background()))
}

func TestService_CommitVisibleImmediately(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	svc := openTestService(t, rdb, "app")

	want := RuleSet{mustRule(t, "tables-any", "orders", "5m"), DefaultRule()}
	id, err := svc.Commit(ctx, want)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// 提交返回时本地订阅已经应用
	assert.True(t, want.Equal(svc.Rules()))
	assert.NoError(t, svc.Stale())
}

func TestService_FreshConsumerSeesCommit(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	writer := openTestService(t, rdb, "app")

	want := RuleSet{
		mustRule(t, "query-ids", "q1,q2", "30s"),
		mustRule(t, "regex", `^SELECT .* FROM items`, "10m"),
	}
	_, err := writer.Commit(ctx, want)
	require.NoError(t, err)

	reader := openTestService(t, rdb, "app")
	assert.True(t, want.Equal(reader.Rules()))

	// 其他应用名互不影响
	other := openTestService(t, rdb, "other")
	got := other.Rules()
	require.Len(t, got, 1)
	assert.True(t, got[0].Equal(DefaultRule()))
}

func TestService_PrependAndReset(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	svc := openTestService(t, rdb, "app")

	first := mustRule(t, "tables-any", "orders", "5m")
	_, err := svc.Prepend(ctx, first)
	require.NoError(t, err)
	second := mustRule(t, "tables-any", "users", "1m")
	_, err = svc.Prepend(ctx, second)
	require.NoError(t, err)

	assert.True(t, RuleSet{second, first, DefaultRule()}.Equal(svc.Rules()))

	_, err = svc.ResetConfig(ctx)
	require.NoError(t, err)
	assert.True(t, RuleSet{DefaultRule()}.Equal(svc.Rules()))
}

func TestService_QueriesAndTables(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	seedQuery(t, rdb, "app", "q1", "SELECT * FROM orders JOIN users", "orders,users", "10", "2")
	seedQuery(t, rdb, "app", "q2", "SELECT * FROM users", "users", "5", "4")
	svc := openTestService(t, rdb, "app")

	_, err := svc.Commit(ctx, RuleSet{mustRule(t, "tables-any", "orders", "5m")})
	require.NoError(t, err)

	queries, err := svc.Queries(ctx)
	require.NoError(t, err)
	require.Len(t, queries, 2)
	require.NotNil(t, queries[0].CurrentRule)
	assert.Equal(t, 5*time.Minute, queries[0].CurrentRule.TTL)
	assert.Nil(t, queries[1].CurrentRule)

	tables, err := svc.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.NotNil(t, tables[0].Rule)
	assert.Equal(t, "orders", tables[0].Name)
	assert.Nil(t, tables[1].Rule)

	require.NoError(t, svc.ClearMetrics(ctx))
	queries, err = svc.Queries(ctx)
	require.NoError(t, err)
	assert.Zero(t, queries[0].Count)
}

func TestService_History(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	svc := openTestService(t, rdb, "app")

	for _, ttl := range []string{"1m", "2m", "3m"} {
		_, err := svc.Commit(ctx, RuleSet{mustRule(t, "tables", "a", ttl)})
		require.NoError(t, err)
	}

	revs, err := svc.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 3*time.Minute, revs[0].Rules[0].TTL)
	assert.Equal(t, svc.sync.Revision(), revs[0].ID)
}
