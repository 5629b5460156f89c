package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"

	"github.com/sank902/Campus-connect/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将 iCalendar (RFC 5545) 内容解析为活动列表，供管理员批量导入。
//
//   - SUMMARY 为标题，DTSTART 为活动时间，缺一则跳过该 VEVENT
//   - 标题或地点超过 200 字符的 VEVENT 跳过
//   - LOCATION / DESCRIPTION 可选；DESCRIPTION 为空时以标题代替
//   - 同一文件内标题与开始时间相同的 VEVENT 只导入一次
//   - 无时区信息的时间按 TZID 参数解释，否则按 UTC
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize      = 2 * 1024 * 1024 // 2MB
	maxEventTitleLen    = 200
	maxEventLocationLen = 200
)

// ErrCalendarTooLarge 日历文件超过 icsMaxFileSize
var ErrCalendarTooLarge = errors.New("日历文件超过 2MB")

// ParseEventsICS 解析 ICS 内容，返回可导入的活动与被跳过的 VEVENT 数量
func ParseEventsICS(reader io.Reader) ([]model.Event, int, error) {
	data, err := io.ReadAll(io.LimitReader(reader, icsMaxFileSize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("读取 ICS 内容失败: %w", err)
	}
	if len(data) > icsMaxFileSize {
		return nil, 0, ErrCalendarTooLarge
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	type key struct {
		Title string
		Start int64
	}
	seen := make(map[key]bool)

	var (
		events  []model.Event
		skipped int
	)
	for _, comp := range cal.Events() {
		evt, ok := parseVEvent(comp)
		if !ok {
			skipped++
			continue
		}
		k := key{Title: evt.Title, Start: evt.Date.Unix()}
		if seen[k] {
			skipped++
			continue
		}
		seen[k] = true
		events = append(events, evt)
	}
	return events, skipped, nil
}

// parseVEvent 解析单个 VEVENT 组件
func parseVEvent(evt *ics.VEvent) (model.Event, bool) {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return model.Event{}, false
	}
	title := strings.TrimSpace(summary.Value)
	if utf8.RuneCountInString(title) > maxEventTitleLen {
		return model.Event{}, false
	}

	start, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart)
	if err != nil {
		return model.Event{}, false
	}

	location := propertyText(evt, ics.ComponentPropertyLocation)
	if utf8.RuneCountInString(location) > maxEventLocationLen {
		return model.Event{}, false
	}

	description := propertyText(evt, ics.ComponentPropertyDescription)
	if description == "" {
		description = title
	}

	return model.Event{
		Title:           title,
		Date:            start,
		Location:        location,
		Description:     description,
		RegisteredUsers: model.StringArray{},
	}, true
}

func propertyText(evt *ics.VEvent, name ics.ComponentProperty) string {
	if prop := evt.GetProperty(name); prop != nil {
		// TEXT 类型属性在解析时已由 golang-ical 反转义
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，结果统一为 UTC
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	loc := time.UTC
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			if tzLoc, err := time.LoadLocation(v[0]); err == nil {
				loc = tzLoc
			}
		}
	}

	for _, layout := range formats {
		if strings.HasSuffix(layout, "Z") {
			if t, err := time.Parse(layout, val); err == nil {
				return t.UTC(), nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, val, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
