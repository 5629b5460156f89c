package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/internal/access"
	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/internal/repository"
	"github.com/sank902/Campus-connect/pkg/metrics"
)

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound  = errors.New("活动不存在")
	ErrEventForbidden = errors.New("仅管理员可执行该操作")
	ErrInvalidDate    = errors.New("日期格式无效")
)

// EventService 活动业务接口
type EventService interface {
	List(ctx context.Context) ([]dto.EventResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EventResponse, error)
	Create(ctx context.Context, req *dto.CreateEventRequest, p access.Principal) (*dto.EventResponse, error)
	// Register 将身份加入活动报名集合；重复调用不产生额外写入
	Register(ctx context.Context, id string, p access.Principal) (*dto.EventResponse, error)
}

type eventService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) EventService {
	return &eventService{repo: repo, metrics: m, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *eventService) List(ctx context.Context) ([]dto.EventResponse, error) {
	events, err := s.repo.Event.List(ctx)
	if err != nil {
		s.logger.Error("列出活动失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *toEventResponse(&events[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *eventService) GetByID(ctx context.Context, id string) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEventResponse(event), nil
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, p access.Principal) (*dto.EventResponse, error) {
	if !access.CreateEvent.Allow(p, "") {
		return nil, ErrEventForbidden
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	creator := p.ID
	event := &model.Event{
		Title:           strings.TrimSpace(req.Title),
		Date:            date,
		Location:        strings.TrimSpace(req.Location),
		Description:     req.Description,
		RegisteredUsers: model.StringArray{},
		CreatedBy:       &creator,
	}

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("活动已创建",
		zap.String("event_id", event.EventID),
		zap.String("created_by", p.ID),
	)

	return toEventResponse(event), nil
}

// ────────────────────── Register ──────────────────────

func (s *eventService) Register(ctx context.Context, id string, p access.Principal) (*dto.EventResponse, error) {
	if !access.RegisterEvent.Allow(p, "") {
		return nil, ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEventNotFound
	}

	// 条件更新：仅当未报名时追加，并发重复报名最多写入一次
	added, err := s.repo.Event.AddRegistrant(ctx, id, p.ID)
	if err != nil {
		s.logger.Error("活动报名失败", zap.String("event_id", id), zap.Error(err))
		return nil, err
	}

	// 未写入时区分"已报名"与"活动不存在"
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	s.metrics.Registered(added)
	if added {
		s.logger.Info("活动报名成功",
			zap.String("event_id", id),
			zap.String("user_id", p.ID),
		)
	}

	return toEventResponse(event), nil
}

// ── 内部辅助方法 ──

func (s *eventService) getEvent(ctx context.Context, id string) (*model.Event, error) {
	return findEvent(ctx, s.repo, s.logger, id)
}

// findEvent 按 ID 查询活动，非法 ID 与不存在统一返回 ErrEventNotFound
func findEvent(ctx context.Context, repo *repository.Repository, logger *zap.Logger, id string) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEventNotFound
	}

	event, err := repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return event, nil
}

func toEventResponse(e *model.Event) *dto.EventResponse {
	registered := make([]string, len(e.RegisteredUsers))
	copy(registered, e.RegisteredUsers)
	return &dto.EventResponse{
		ID:              e.EventID,
		Title:           e.Title,
		Date:            e.Date,
		Location:        e.Location,
		Description:     e.Description,
		RegisteredUsers: registered,
	}
}
