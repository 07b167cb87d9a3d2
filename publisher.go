package smartcache

import (
	"context"
	"log/slog"
)

// Publisher 负责把规则集写入配置日志。
// 每次发布都是完整快照，不做读-改-写：并发提交按日志追加顺序后写者胜出。
type Publisher struct {
	log         Log
	application string
	logger      *slog.Logger
}

// NewPublisher 创建发布者。
// log: 配置日志（外部传入，DI）。
// application: 应用名，决定日志 key。
func NewPublisher(log Log, application string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		log:         log,
		application: application,
		logger:      logger,
	}
}

// Publish 将完整规则集作为一条新记录追加，返回记录 ID。
// 空规则集发布为唯一的 ANY/TTL=0 规则。
func (p *Publisher) Publish(ctx context.Context, rules RuleSet) (string, error) {
	rules = rules.Normalize()
	rec := Encode(rules)

	id, err := p.log.Append(ctx, KeyConfig(p.application), rec)
	if err != nil {
		return "", &CommitError{Err: err}
	}

	p.logger.Info("config published",
		"application", p.application,
		"revision", id,
		"rules", len(rules),
		"digest", rec.Digest())
	return id, nil
}

// History 按从新到旧返回最多 limit 次提交。
// 无法解码的记录同样返回，Err 字段说明原因。
func (p *Publisher) History(ctx context.Context, limit int64) ([]Revision, error) {
	entries, err := p.log.Range(ctx, KeyConfig(p.application), limit)
	if err != nil {
		return nil, err
	}

	out := make([]Revision, 0, len(entries))
	for _, e := range entries {
		rev := Revision{
			ID:        e.ID,
			Timestamp: e.Time(),
		}
		rules, err := Decode(e.Record)
		if err != nil {
			rev.Err = withEntry(err, e.ID)
		} else {
			rev.Rules = rules
			rev.Digest = rules.Digest()
		}
		out = append(out, rev)
	}
	return out, nil
}
