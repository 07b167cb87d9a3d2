package smartcache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// watch 从上次消费的偏移开始 tail 配置日志，直到 ctx 结束。
// 失败时按指数退避从同一偏移重试；持续失败超过 RetryMaxElapsed 后
// 标记为 stale 并告警一次，之后继续以最大间隔重试。
func (s *Synchronizer) watch(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	key := KeyConfig(s.application)
	b := s.newBackOff()

	// 定期反熵检查
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkConsistency(ctx)
		default:
		}

		entries, err := s.log.Read(ctx, key, s.current.Load().offset, s.opts.TailBlock)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			wait := b.NextBackOff()
			if wait == backoff.Stop {
				if s.stale.CompareAndSwap(false, true) {
					s.logger.Warn("config tail retries exhausted, serving last known-good rules",
						"revision", s.Revision(),
						"error", err)
				}
				b.Reset()
				wait = b.MaxInterval
			}
			s.logger.Debug("config tail failed", "error", err, "retry_in", wait)

			// 退避等待，防止死循环刷日志
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				continue
			}
		}

		b.Reset()
		if s.stale.CompareAndSwap(true, false) {
			s.logger.Info("config tail recovered", "revision", s.Revision())
		}

		for _, e := range entries {
			s.apply(e)
		}
	}
}

func (s *Synchronizer) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = s.opts.RetryMaxElapsed
	if b.MaxInterval > s.opts.RetryMaxElapsed {
		b.MaxInterval = s.opts.RetryMaxElapsed
	}
	b.Reset()
	return b
}
