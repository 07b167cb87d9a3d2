package smartcache

import (
	"context"
	"errors"
)

// seed 从日志最后一条记录加载规则集。
// 日志为空时保持默认的 ANY/TTL=0 规则，并从日志起点开始 tail。
func (s *Synchronizer) seed(ctx context.Context) error {
	last, ok, err := s.log.Last(ctx, KeyConfig(s.application))
	if err != nil {
		return err
	}
	if !ok {
		s.store(&snapshot{rules: RuleSet{DefaultRule()}, offset: StartID})
		s.logger.Info("config log empty, using default rule")
		return nil
	}

	s.apply(last)
	return nil
}

// apply 解码一条记录并整体替换当前规则集（后写者胜出，不做合并）。
// 坏记录被跳过但偏移前进，单条坏记录不会卡住消费者。
func (s *Synchronizer) apply(e Entry) {
	prev := s.current.Load()

	rules, err := Decode(e.Record)
	if err != nil {
		s.logger.Warn("skipping malformed config entry",
			"entry", e.ID,
			"error", withEntry(err, e.ID))
		s.store(&snapshot{rules: prev.rules, revision: prev.revision, offset: e.ID})
		return
	}

	s.store(&snapshot{rules: rules, revision: e.ID, offset: e.ID})
	s.logger.Info("config applied",
		"revision", e.ID,
		"rules", len(rules),
		"digest", rules.Digest())
}

// checkConsistency 比较日志最新记录与本地偏移。
// 日志被删除或重建（最新 ID 小于本地偏移）时重新加载。
func (s *Synchronizer) checkConsistency(ctx context.Context) {
	last, ok, err := s.log.Last(ctx, KeyConfig(s.application))
	if err != nil {
		s.logger.Debug("check consistency failed", "error", err)
		return
	}

	cur := s.current.Load()
	if !ok {
		if cur.offset != StartID {
			s.logger.Warn("config log disappeared, keeping current rules and tailing from start")
			s.store(&snapshot{rules: cur.rules, revision: cur.revision, offset: StartID})
		}
		return
	}

	if CompareIDs(last.ID, cur.offset) < 0 {
		s.logger.Warn("config log rewound, reloading",
			"local", cur.offset,
			"remote", last.ID)
		s.apply(last)
	}
}

// withEntry 为 SerializationError 补充记录 ID。
func withEntry(err error, id string) error {
	var se *SerializationError
	if errors.As(err, &se) {
		cp := *se
		cp.EntryID = id
		return &cp
	}
	return err
}
