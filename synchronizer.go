package smartcache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SyncOptions 控制 Synchronizer 的 tail 行为。零值字段使用默认值。
type SyncOptions struct {
	TailBlock       time.Duration // 单次 XREAD 阻塞时长
	CheckInterval   time.Duration // 反熵检查间隔
	RetryMaxElapsed time.Duration // 连续失败多久后标记为 stale
	Logger          *slog.Logger
}

// DefaultSyncOptions 返回默认配置。
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		TailBlock:       2 * time.Second,
		CheckInterval:   time.Minute,
		RetryMaxElapsed: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

func (o SyncOptions) withDefaults() SyncOptions {
	def := DefaultSyncOptions()
	if o.TailBlock <= 0 {
		o.TailBlock = def.TailBlock
	}
	if o.CheckInterval <= 0 {
		o.CheckInterval = def.CheckInterval
	}
	if o.RetryMaxElapsed <= 0 {
		o.RetryMaxElapsed = def.RetryMaxElapsed
	}
	if o.Logger == nil {
		o.Logger = def.Logger
	}
	return o
}

// snapshot 是某一时刻已完整应用的状态。
type snapshot struct {
	rules    RuleSet
	revision string // 最后一次成功应用的记录 ID
	offset   string // 最后一次消费的记录 ID（包括被跳过的坏记录）
}

// Synchronizer 持有某个应用唯一的配置日志订阅，维护当前规则集。
// 只有 tail 协程写入快照，Get 可以被任意协程并发调用。
type Synchronizer struct {
	log         Log
	application string
	opts        SyncOptions
	logger      *slog.Logger

	current atomic.Pointer[snapshot]
	stale   atomic.Bool

	notifyMu sync.Mutex
	notify   chan struct{}

	mu     sync.Mutex // 用于 Start / Stop
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSynchronizer 创建一个尚未启动的 Synchronizer。
func NewSynchronizer(log Log, application string, opts SyncOptions) *Synchronizer {
	opts = opts.withDefaults()
	s := &Synchronizer{
		log:         log,
		application: application,
		opts:        opts,
		logger: opts.Logger.With(
			"application", application,
			"consumer", uuid.NewString()),
		notify: make(chan struct{}),
	}
	s.current.Store(&snapshot{
		rules:  RuleSet{DefaultRule()},
		offset: StartID,
	})
	return s
}

// Start 从日志最新一条记录加载规则集，然后在后台开始 tail。
// 无法访问日志时返回 ConnectivityError，调用方应直接退出。
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	if err := s.seed(ctx); err != nil {
		return &ConnectivityError{Op: "load config", Err: err}
	}

	// tail 的生命周期由 Stop 决定，而不是 Start 的 ctx
	tailCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.watch(tailCtx, s.done)

	return nil
}

// Stop 停止 tail 并等待后台协程退出。可以重复调用。
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

// Get 返回最新的、已完整应用的规则集副本。
func (s *Synchronizer) Get() RuleSet {
	return s.current.Load().rules.Clone()
}

// Revision 返回当前规则集对应的记录 ID，尚无记录时为空。
func (s *Synchronizer) Revision() string {
	return s.current.Load().revision
}

// Err 在 tail 重试耗尽后返回 ErrStale，恢复后返回 nil。
func (s *Synchronizer) Err() error {
	if s.stale.Load() {
		return ErrStale
	}
	return nil
}

// Await 等待 id（或其后的记录）被消费，或者 ctx 结束。
func (s *Synchronizer) Await(ctx context.Context, id string) error {
	for {
		s.notifyMu.Lock()
		ch := s.notify
		s.notifyMu.Unlock()

		if CompareIDs(s.current.Load().offset, id) >= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// store 原子替换快照并唤醒 Await。
func (s *Synchronizer) store(ss *snapshot) {
	s.current.Store(ss)

	s.notifyMu.Lock()
	close(s.notify)
	s.notify = make(chan struct{})
	s.notifyMu.Unlock()
}
