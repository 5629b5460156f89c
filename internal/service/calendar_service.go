package service

import (
	"context"
	"errors"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/repository"
)

// ErrInvalidCalendar 上传内容不是合法的 iCalendar
var ErrInvalidCalendar = errors.New("日历文件格式无效")

// ── iCalendar 订阅 ──────────────────────────────────────────
//
// 将全部活动输出为 RFC 5545 日历，供日历客户端订阅。
// 活动只有开始时间，结束时间按 defaultEventDuration 推算。
// ─────────────────────────────────────────────────────────────

const (
	calendarProductID    = "-//Campus Connect//Events//EN"
	calendarUIDDomain    = "@campus-connect"
	defaultEventDuration = 2 * time.Hour
)

// CalendarService 活动日历业务接口
type CalendarService interface {
	// ExportCalendar 生成包含全部活动的 iCalendar 文本
	ExportCalendar(ctx context.Context) (string, error)
	// ImportCalendar 将 .ics 中的 VEVENT 批量创建为活动（仅管理员）
	ImportCalendar(ctx context.Context, r io.Reader, p access.Principal) (*dto.ImportResult, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger, now: time.Now}
}

func (s *calendarService) ExportCalendar(ctx context.Context) (string, error) {
	events, err := s.repo.Event.List(ctx)
	if err != nil {
		s.logger.Error("列出活动失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName("Campus Connect Events")

	stamp := s.now().UTC()
	for i := range events {
		e := &events[i]
		vevent := cal.AddEvent(e.EventID + calendarUIDDomain)
		vevent.SetDtStampTime(stamp)
		vevent.SetCreatedTime(e.CreatedAt)
		vevent.SetModifiedAt(e.UpdatedAt)
		vevent.SetStartAt(e.Date)
		vevent.SetEndAt(e.Date.Add(defaultEventDuration))
		vevent.SetSummary(e.Title)
		if e.Location != "" {
			vevent.SetLocation(e.Location)
		}
		vevent.SetDescription(e.Description)
	}

	return cal.Serialize(), nil
}

func (s *calendarService) ImportCalendar(ctx context.Context, r io.Reader, p access.Principal) (*dto.ImportResult, error) {
	if !access.ImportEvents.Allow(p, "") {
		return nil, ErrEventForbidden
	}

	events, skipped, err := ParseEventsICS(r)
	if err != nil {
		s.logger.Warn("解析日历文件失败", zap.Error(err))
		if errors.Is(err, ErrCalendarTooLarge) {
			return nil, ErrCalendarTooLarge
		}
		return nil, ErrInvalidCalendar
	}

	creator := p.ID
	for i := range events {
		events[i].CreatedBy = &creator
	}
	if len(events) > 0 {
		if err := s.repo.Event.CreateBatch(ctx, events); err != nil {
			s.logger.Error("导入活动失败", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("日历导入完成",
		zap.String("imported_by", p.ID),
		zap.Int("created", len(events)),
		zap.Int("skipped", skipped),
	)
	return &dto.ImportResult{Created: len(events), Skipped: skipped}, nil
}
