package smartcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis 启动 miniredis 并返回连接到它的客户端，测试结束时自动关闭。
func newTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisLog_AppendAndLast(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	l := NewRedisLog(rdb, 0)

	_, ok, err := l.Last(ctx, "app:config")
	require.NoError(t, err)
	assert.False(t, ok, "empty log has no last entry")

	id1, err := l.Append(ctx, "app:config", Record{"rules[0].ttl": "1m"})
	require.NoError(t, err)
	id2, err := l.Append(ctx, "app:config", Record{"rules[0].ttl": "2m"})
	require.NoError(t, err)
	assert.Equal(t, -1, CompareIDs(id1, id2))

	last, ok, err := l.Last(ctx, "app:config")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id2, last.ID)
	assert.Equal(t, Record{"rules[0].ttl": "2m"}, last.Record)
	assert.WithinDuration(t, time.Now(), last.Time(), time.Minute)

	_, err = l.Append(ctx, "app:config", Record{})
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestRedisLog_ReadAndRange(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	l := NewRedisLog(rdb, 0)

	var ids []string
	for _, ttl := range []string{"1m", "2m", "3m"} {
		id, err := l.Append(ctx, "k", Record{"rules[0].ttl": ttl})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// 从起点读取全部
	entries, err := l.Read(ctx, "k", StartID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ids[0], entries[0].ID)

	// 从第一条之后读取
	entries, err = l.Read(ctx, "k", ids[0], 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2m", entries[0].Record["rules[0].ttl"])

	// 已读到末尾，阻塞超时返回空
	entries, err = l.Read(ctx, "k", ids[2], 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Range 从新到旧
	entries, err = l.Range(ctx, "k", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[1], entries[1].ID)
}

func TestRedisLog_Unreachable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	mr.Close()

	l := NewRedisLog(rdb, 0)
	_, _, err := l.Last(context.Background(), "k")
	assert.Error(t, err)
}

func TestCompareIDs(t *testing.T) {
	assert.Equal(t, 0, CompareIDs("5-1", "5-1"))
	assert.Equal(t, -1, CompareIDs("5-1", "5-2"))
	assert.Equal(t, 1, CompareIDs("10-0", "9-99"))
	assert.Equal(t, -1, CompareIDs(StartID, "1-0"))
	assert.Equal(t, 0, CompareIDs("7", "7-0"))
}

// fakeLog 是可注入故障的内存日志。
type fakeLog struct {
	lastErr error
	failing atomic.Bool
	reads   atomic.Int64
}

func (f *fakeLog) Append(ctx context.Context, key string, rec Record) (string, error) {
	return "", errors.New("append refused")
}

func (f *fakeLog) Last(ctx context.Context, key string) (Entry, bool, error) {
	if f.lastErr != nil {
		return Entry{}, false, f.lastErr
	}
	return Entry{}, false, nil
}

func (f *fakeLog) Read(ctx context.Context, key, afterID string, block time.Duration) ([]Entry, error) {
	f.reads.Add(1)
	if f.failing.Load() {
		return nil, errors.New("connection reset")
	}
	select {
	case <-ctx.Done():
	case <-time.After(block):
	}
	return nil, nil
}

func (f *fakeLog) Range(ctx context.Context, key string, limit int64) ([]Entry, error) {
	return nil, nil
}
