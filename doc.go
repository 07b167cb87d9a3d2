// Package smartcache 管理 SQL 查询缓存的规则配置。
//
// 规则集是有序的 RuleConfig 列表，第一条匹配的规则生效。
// 每次提交把完整规则集扁平化为一条记录追加到 Redis Stream (<app>:config)，
// 各个缓存代理实例独立 tail 该日志并整体替换本地规则集，
// 日志的追加顺序是并发写者之间唯一的裁决依据。
//
// 使用方式：
//
//	svc, err := smartcache.Open(ctx, rdb, smartcache.Options{Application: "smartcache"})
//	if err != nil {
//		// ConnectivityError: 直接退出
//	}
//	defer svc.Close()
//
//	rule, err := smartcache.NewRule("tables-any", "orders", "5m")
//	_, err = svc.Prepend(ctx, rule)
package smartcache
