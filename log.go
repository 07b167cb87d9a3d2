package smartcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartID 是空日志的起始偏移，从它开始 tail 会读到第一条记录。
const StartID = "0-0"

// DefaultStreamMaxLen 是日志保留的近似最大条目数。
const DefaultStreamMaxLen = 1000

// Entry 是日志中的一条记录。
type Entry struct {
	ID     string
	Record Record
}

// Time 返回记录写入时间（由 Stream ID 的毫秒部分得到）。
func (e Entry) Time() time.Time {
	ms, _, ok := parseID(e.ID)
	if !ok {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}

// Log 是按 key 有序、持久、可多方消费的追加日志。
// 同一 key 下的记录全序投递，单条记录的多个字段原子可见。
type Log interface {
	// Append 追加一条记录并返回其 ID。
	Append(ctx context.Context, key string, rec Record) (string, error)
	// Last 返回最新的一条记录，日志为空时 ok 为 false。
	Last(ctx context.Context, key string) (e Entry, ok bool, err error)
	// Read 返回 afterID 之后的记录，block > 0 时最多阻塞 block 等待新记录。
	Read(ctx context.Context, key, afterID string, block time.Duration) ([]Entry, error)
	// Range 按从新到旧返回最多 limit 条记录。
	Range(ctx context.Context, key string, limit int64) ([]Entry, error)
}

// RedisLog 基于 Redis Stream 实现 Log。
type RedisLog struct {
	rdb       redis.UniversalClient
	maxLen    int64
	readCount int64
}

// NewRedisLog 创建日志。
// client: Redis 客户端实例（外部传入，DI）。
// maxLen: 追加时按 MAXLEN ~ 裁剪，<= 0 时使用 DefaultStreamMaxLen。
func NewRedisLog(client redis.UniversalClient, maxLen int64) *RedisLog {
	if maxLen <= 0 {
		maxLen = DefaultStreamMaxLen
	}
	return &RedisLog{
		rdb:       client,
		maxLen:    maxLen,
		readCount: 100,
	}
}

// Append 以 XADD 追加整条记录，字段按名称排序。
func (l *RedisLog) Append(ctx context.Context, key string, rec Record) (string, error) {
	if len(rec) == 0 {
		return "", ErrEmptyRecord
	}
	id, err := l.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		MaxLen: l.maxLen,
		Approx: true,
		ID:     "*",
		Values: rec.Pairs(),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", key, err)
	}
	return id, nil
}

// Last 使用 XREVRANGE + - COUNT 1。
func (l *RedisLog) Last(ctx context.Context, key string) (Entry, bool, error) {
	entries, err := l.Range(ctx, key, 1)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[0], true, nil
}

// Range 使用 XREVRANGE，结果从新到旧。
func (l *RedisLog) Range(ctx context.Context, key string, limit int64) ([]Entry, error) {
	msgs, err := l.rdb.XRevRangeN(ctx, key, "+", "-", limit).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", key, err)
	}
	return toEntries(msgs), nil
}

// Read 使用 XREAD，阻塞超时返回 nil, nil。
func (l *RedisLog) Read(ctx context.Context, key, afterID string, block time.Duration) ([]Entry, error) {
	if block <= 0 {
		// go-redis: 负数表示不带 BLOCK 参数
		block = -1
	}
	streams, err := l.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{key, afterID},
		Count:   l.readCount,
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xread %s: %w", key, err)
	}

	var out []Entry
	for _, stream := range streams {
		out = append(out, toEntries(stream.Messages)...)
	}
	return out, nil
}

func toEntries(msgs []redis.XMessage) []Entry {
	out := make([]Entry, 0, len(msgs))
	for _, msg := range msgs {
		rec := make(Record, len(msg.Values))
		for k, v := range msg.Values {
			switch val := v.(type) {
			case string:
				rec[k] = val
			default:
				rec[k] = fmt.Sprint(val)
			}
		}
		out = append(out, Entry{ID: msg.ID, Record: rec})
	}
	return out
}

// CompareIDs 比较两个 Stream ID（ms-seq）。无法解析时退化为字符串比较。
func CompareIDs(a, b string) int {
	am, as, aok := parseID(a)
	bm, bs, bok := parseID(b)
	if !aok || !bok {
		return strings.Compare(a, b)
	}
	switch {
	case am < bm:
		return -1
	case am > bm:
		return 1
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func parseID(id string) (ms, seq uint64, ok bool) {
	msPart, seqPart, found := strings.Cut(id, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if !found {
		return ms, 0, true
	}
	seq, err = strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return ms, seq, true
}
