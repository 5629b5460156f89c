package service

import (
	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/config"
	"github.com/sank902/Campus-connect/internal/repository"
	"github.com/sank902/Campus-connect/pkg/jwt"
	"github.com/sank902/Campus-connect/pkg/metrics"
	"github.com/sank902/Campus-connect/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth     AuthService
	Event    EventService
	Item     ItemService
	Export   ExportService
	Calendar CalendarService
	Seed     SeedService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（未启用 Redis 时 Token 注销降级为空操作）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	var revoker TokenRevoker
	if rdb != nil {
		revoker = rdb
	}

	return &Service{
		Auth:     NewAuthService(cfg, repo, jwtMgr, revoker, logger),
		Event:    NewEventService(repo, m, logger),
		Item:     NewItemService(repo, logger),
		Export:   NewExportService(repo, logger),
		Calendar: NewCalendarService(repo, logger),
		Seed:     NewSeedService(repo, logger),
	}
}
