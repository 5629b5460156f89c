package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/internal/model"
)

// ItemRepository 失物招领数据访问接口
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	CreateBatch(ctx context.Context, items []model.Item) error
	GetByID(ctx context.Context, id string) (*model.Item, error)
	// List 按日期倒序列出；status 为空时不过滤
	List(ctx context.Context, status string) ([]model.Item, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type itemRepo struct {
	db *gorm.DB
}

// NewItemRepo 创建 ItemRepository 实例
func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) CreateBatch(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *itemRepo) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("item_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) List(ctx context.Context, status string) ([]model.Item, error) {
	var items []model.Item
	db := r.db.WithContext(ctx)

	if status != "" {
		db = db.Where("status = ?", status)
	}

	err := db.Order("date DESC").Find(&items).Error
	return items, err
}

func (r *itemRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Count(&total).Error
	return total, err
}

// Delete 物理删除（失物招领无审计要求）
func (r *itemRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("item_id = ?", id).
		Delete(&model.Item{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
