package smartcache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSettleWindow 是提交后等待本地订阅追上的最长时间。
const DefaultSettleWindow = 2 * time.Second

// Options 是 Open 的参数。
type Options struct {
	Application  string
	StreamMaxLen int64
	SettleWindow time.Duration
	Sync         SyncOptions
	Logger       *slog.Logger
}

// Service 把分析存储、配置日志订阅与发布组合成管理操作。
type Service struct {
	client    redis.UniversalClient // 仅 Open 创建时非空
	analytics Analytics
	sync      *Synchronizer
	publisher *Publisher
	settle    time.Duration
	logger    *slog.Logger
}

// NewService 组装 Service，sync 必须由调用方 Start。
func NewService(analytics Analytics, sync *Synchronizer, publisher *Publisher, settle time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settle <= 0 {
		settle = DefaultSettleWindow
	}
	return &Service{
		analytics: analytics,
		sync:      sync,
		publisher: publisher,
		settle:    settle,
		logger:    logger,
	}
}

// Open 检查连接，启动配置订阅并返回 Service。
// 任何连接问题都以 ConnectivityError 返回。
func Open(ctx context.Context, client redis.UniversalClient, opts Options) (*Service, error) {
	if opts.Application == "" {
		opts.Application = DefaultApplication
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sync.Logger == nil {
		opts.Sync.Logger = opts.Logger
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, &ConnectivityError{Op: "ping", Err: err}
	}

	log := NewRedisLog(client, opts.StreamMaxLen)
	sync := NewSynchronizer(log, opts.Application, opts.Sync)
	if err := sync.Start(ctx); err != nil {
		return nil, err
	}

	svc := NewService(
		NewRedisAnalytics(client, opts.Application),
		sync,
		NewPublisher(log, opts.Application, opts.Logger),
		opts.SettleWindow,
		opts.Logger,
	)
	svc.client = client
	return svc, nil
}

// Ping 检查存储是否可达。
func (s *Service) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &ConnectivityError{Op: "ping", Err: err}
	}
	return nil
}

// Close 停止配置订阅。
func (s *Service) Close() {
	s.sync.Stop()
}

// Rules 返回当前生效的规则集。tail 不可用时记录一次告警。
func (s *Service) Rules() RuleSet {
	if err := s.sync.Err(); err != nil {
		s.logger.Warn("rules may be stale", "error", err)
	}
	return s.sync.Get()
}

// Stale 返回订阅是否已经停止跟上日志。
func (s *Service) Stale() error {
	return s.sync.Err()
}

// Queries 返回观测到的查询，并附加当前匹配的规则。
func (s *Service) Queries(ctx context.Context) ([]QueryInfo, error) {
	queries, err := s.analytics.Queries(ctx)
	if err != nil {
		return nil, err
	}
	AttachRules(queries, s.Rules())
	return queries, nil
}

// Tables 返回按表聚合的统计，并附加第一条包含该表的 TABLES_ANY 规则。
func (s *Service) Tables(ctx context.Context) ([]TableInfo, error) {
	tables, err := s.analytics.Tables(ctx)
	if err != nil {
		return nil, err
	}
	rules := s.Rules()
	for i := range tables {
		tables[i].Rule = TableRule(rules, tables[i].Name)
	}
	return tables, nil
}

// Commit 发布完整规则集，然后在 settle 窗口内等待本地订阅应用它。
// 等待超时不是错误：调用方读到的可能是稍旧的规则集。
func (s *Service) Commit(ctx context.Context, rules RuleSet) (string, error) {
	id, err := s.publisher.Publish(ctx, rules)
	if err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.settle)
	defer cancel()
	if err := s.sync.Await(waitCtx, id); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return id, err
		}
		s.logger.Debug("commit not yet applied locally", "revision", id)
	}
	return id, nil
}

// Prepend 把新规则插入当前规则集最前面并提交。
func (s *Service) Prepend(ctx context.Context, rules ...RuleConfig) (string, error) {
	next := append(RuleSet{}, rules...)
	next = append(next, s.Rules()...)
	return s.Commit(ctx, next)
}

// ResetConfig 发布空规则集，即唯一的 ANY/TTL=0 规则（关闭所有缓存）。
func (s *Service) ResetConfig(ctx context.Context) (string, error) {
	return s.Commit(ctx, nil)
}

// ClearMetrics 清空分析存储中的查询指标。
func (s *Service) ClearMetrics(ctx context.Context) error {
	return s.analytics.ClearMetrics(ctx)
}

// History 返回最近 limit 次提交。
func (s *Service) History(ctx context.Context, limit int64) ([]Revision, error) {
	return s.publisher.History(ctx, limit)
}
