package dto

import (
	"fmt"
	"strings"
	"time"
)

// ── 通用 DTO ──

// SeedResult 演示数据写入结果
type SeedResult struct {
	EventsCreated int `json:"eventsCreated"`
	ItemsCreated  int `json:"itemsCreated"`
}

// ImportResult 日历导入结果
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// dateLayouts 浏览器表单可能提交的日期格式
// datetime-local 输入为 2006-01-02T15:04，date 输入为 2006-01-02
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate 解析请求中的日期字符串；无时区信息时按 UTC 处理
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期 %q", s)
}
