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
)

// ── 失物招领模块业务错误 ──

var (
	ErrItemNotFound      = errors.New("物品不存在")
	ErrNotItemOwner      = errors.New("无权删除该物品")
	ErrInvalidItemStatus = errors.New("状态必须为 Lost 或 Found")
)

// ItemService 失物招领业务接口
type ItemService interface {
	List(ctx context.Context, req *dto.ItemListRequest) ([]dto.ItemResponse, error)
	Create(ctx context.Context, req *dto.CreateItemRequest, p access.Principal) (*dto.ItemResponse, error)
	// Delete 删除物品：仅发布者本人或管理员
	Delete(ctx context.Context, id string, p access.Principal) error
}

type itemService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewItemService 创建 ItemService 实例
func NewItemService(repo *repository.Repository, logger *zap.Logger) ItemService {
	return &itemService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *itemService) List(ctx context.Context, req *dto.ItemListRequest) ([]dto.ItemResponse, error) {
	status := ""
	if req != nil {
		status = req.Status
	}
	if status != "" && !model.ValidItemStatus(status) {
		return nil, ErrInvalidItemStatus
	}

	items, err := s.repo.Item.List(ctx, status)
	if err != nil {
		s.logger.Error("列出失物招领失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		result = append(result, *toItemResponse(&items[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *itemService) Create(ctx context.Context, req *dto.CreateItemRequest, p access.Principal) (*dto.ItemResponse, error) {
	if !access.CreateItem.Allow(p, "") {
		return nil, ErrUnauthenticated
	}
	if !model.ValidItemStatus(req.Status) {
		return nil, ErrInvalidItemStatus
	}

	date, err := dto.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	item := &model.Item{
		Item:        strings.TrimSpace(req.Item),
		Location:    strings.TrimSpace(req.Location),
		Date:        date,
		Status:      req.Status,
		Description: req.Description,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		Reporter:    p.ID,
	}

	if err := s.repo.Item.Create(ctx, item); err != nil {
		s.logger.Error("发布失物招领失败", zap.Error(err))
		return nil, err
	}

	return toItemResponse(item), nil
}

// ────────────────────── Delete ──────────────────────

func (s *itemService) Delete(ctx context.Context, id string, p access.Principal) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrItemNotFound
	}

	item, err := s.repo.Item.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		s.logger.Error("查询物品失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if !access.DeleteItem.Allow(p, item.Reporter) {
		s.logger.Warn("拒绝删除他人物品",
			zap.String("item_id", id),
			zap.String("user_id", p.ID),
		)
		return ErrNotItemOwner
	}

	if err := s.repo.Item.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		s.logger.Error("删除物品失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("物品已删除",
		zap.String("item_id", id),
		zap.String("deleted_by", p.ID),
	)
	return nil
}

// ── 内部辅助方法 ──

func toItemResponse(it *model.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:          it.ItemID,
		Item:        it.Item,
		Location:    it.Location,
		Date:        it.Date,
		Status:      it.Status,
		Description: it.Description,
		ImageURL:    it.ImageURL,
		Reporter:    it.Reporter,
	}
}
