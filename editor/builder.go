package editor

import (
	"time"

	"github.com/btt-go/smartcache"
)

const ttlPrompt = "Enter a TTL for the rule (e.g. 1h, 300s, 5m):"

// BuildRule 引导操作员构造一条规则：选择谓词类型 -> 输入匹配值 -> 输入 TTL -> 可选确认。
// 任一提示处取消都返回 ErrEscape，由调用方放弃整个会话；确认时回答否则回到类型提示。
// 非法输入会展示错误并重新提示。
func BuildRule(p Prompter, confirm bool) (smartcache.RuleConfig, error) {
	names := make([]string, len(smartcache.PredicateTypes))
	for i, t := range smartcache.PredicateTypes {
		names[i] = t.String()
	}

	cursor := 0
	for {
		idx, err := p.Select("Select a rule type:", names, cursor)
		if err != nil {
			return smartcache.RuleConfig{}, err
		}
		cursor = idx
		t := smartcache.PredicateTypes[idx]

		pred, err := promptPredicate(p, t)
		if err != nil {
			return smartcache.RuleConfig{}, err
		}
		ttl, err := PromptTTL(p, ttlPrompt, "")
		if err != nil {
			return smartcache.RuleConfig{}, err
		}

		rule := smartcache.RuleConfig{Predicate: pred, TTL: ttl}
		if !confirm {
			return rule, nil
		}
		ok, err := p.Confirm("Create rule "+rule.String()+"?", true)
		if err != nil {
			return smartcache.RuleConfig{}, err
		}
		if ok {
			return rule, nil
		}
	}
}

func promptPredicate(p Prompter, t smartcache.PredicateType) (smartcache.Predicate, error) {
	if t == smartcache.PredicateAny {
		return smartcache.NewPredicate(t, "")
	}
	for {
		in, err := p.Input(t.Prompt(), "")
		if err != nil {
			return smartcache.Predicate{}, err
		}
		pred, err := smartcache.NewPredicate(t, in)
		if smartcache.IsValidation(err) {
			notify(p, LevelError, "%v", err)
			continue
		}
		return pred, err
	}
}

// PromptTTL 读取 TTL，非法输入时展示错误并重新提示。
func PromptTTL(p Prompter, message, placeholder string) (time.Duration, error) {
	for {
		in, err := p.Input(message, placeholder)
		if err != nil {
			return 0, err
		}
		ttl, err := smartcache.ParseTTL(in)
		if smartcache.IsValidation(err) {
			notify(p, LevelError, "%v", err)
			continue
		}
		return ttl, err
	}
}
