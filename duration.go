package smartcache

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

var dayUnit = regexp.MustCompile(`(\d+(?:\.\d+)?)d`)

// ParseTTL 解析 TTL 字符串。
// 支持 Go duration 语法，另外支持 d (天) 单位，例如 30m、300s、2d、1d12h。
func ParseTTL(s string) (time.Duration, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, &ValidationError{Field: "ttl", Reason: "missing duration (e.g. 30m, 300s, 1h)"}
	}

	expanded := dayUnit.ReplaceAllStringFunc(in, func(m string) string {
		n, err := strconv.ParseFloat(strings.TrimSuffix(m, "d"), 64)
		if err != nil {
			return m
		}
		return strconv.FormatFloat(n*24, 'f', -1, 64) + "h"
	})

	d, err := time.ParseDuration(expanded)
	if err != nil {
		return 0, &ValidationError{Field: "ttl", Value: in, Reason: "must be a number plus a time unit (e.g. 1h, 300s, 5m)"}
	}
	if d < 0 {
		return 0, &ValidationError{Field: "ttl", Value: in, Reason: "must not be negative"}
	}
	return d, nil
}

// FormatTTL 以最短的精确单位输出 TTL，ParseTTL 可以无损还原。
func FormatTTL(d time.Duration) string {
	switch {
	case d == 0:
		return "0s"
	case d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%ds", d/time.Second)
	case d%time.Millisecond == 0:
		return fmt.Sprintf("%dms", d/time.Millisecond)
	}
	return d.String()
}
