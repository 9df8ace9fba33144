package processor

import (
	"fmt"
	"time"
)

const (
	day  = 24 * time.Hour
	week = 7 * day
)

// DisplayTime 生成 "5m ago" / "3h ago" / "2d ago"，一周以上显示日期。
// 发布时间在未来的按 0 分钟处理
func DisplayTime(published, now time.Time) string {
	diff := now.Sub(published)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < day:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	case diff < week:
		return fmt.Sprintf("%dd ago", int(diff/day))
	}
	return published.Format("1/2/2006")
}

// 上游时间格式并不统一：NYT 的 pub_date 是 +0000 这种不带冒号的时区
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
