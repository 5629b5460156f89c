package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/internal/model"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	CreateBatch(ctx context.Context, events []model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	Count(ctx context.Context) (int64, error)
	// AddRegistrant 原子地将 userID 加入报名集合（仅当不存在时）。
	// 返回 true 表示本次实际写入；false 表示已报名或活动不存在。
	AddRegistrant(ctx context.Context, eventID, userID string) (bool, error)
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) CreateBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Event{}).Count(&total).Error
	return total, err
}

// AddRegistrant 单条 UPDATE 完成"判断 + 追加"，并发报名不会产生重复元素
func (r *eventRepo) AddRegistrant(ctx context.Context, eventID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ? AND NOT (registered_users @> ARRAY[?]::text[])", eventID, userID).
		Update("registered_users", gorm.Expr("array_append(registered_users, ?::text)", userID))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
