package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/internal/dto"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/internal/repository"
)

// SeedService 演示数据写入
// 只由 cmd/seed 显式调用，任何查询路径都不会触发
type SeedService interface {
	// Seed 仅在对应表为空时写入演示活动与失物招领
	Seed(ctx context.Context) (*dto.SeedResult, error)
}

type seedService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(repo *repository.Repository, logger *zap.Logger) SeedService {
	return &seedService{repo: repo, logger: logger}
}

func (s *seedService) Seed(ctx context.Context) (*dto.SeedResult, error) {
	result := &dto.SeedResult{}

	// 1. 活动
	eventCount, err := s.repo.Event.Count(ctx)
	if err != nil {
		s.logger.Error("统计活动数量失败", zap.Error(err))
		return nil, err
	}
	if eventCount == 0 {
		events := DemoEvents()
		if err := s.repo.Event.CreateBatch(ctx, events); err != nil {
			s.logger.Error("写入演示活动失败", zap.Error(err))
			return nil, err
		}
		result.EventsCreated = len(events)
	} else {
		s.logger.Info("活动表非空，跳过演示活动", zap.Int64("count", eventCount))
	}

	// 2. 失物招领
	itemCount, err := s.repo.Item.Count(ctx)
	if err != nil {
		s.logger.Error("统计失物招领数量失败", zap.Error(err))
		return nil, err
	}
	if itemCount == 0 {
		items := DemoItems()
		if err := s.repo.Item.CreateBatch(ctx, items); err != nil {
			s.logger.Error("写入演示失物招领失败", zap.Error(err))
			return nil, err
		}
		result.ItemsCreated = len(items)
	} else {
		s.logger.Info("失物招领表非空，跳过演示数据", zap.Int64("count", itemCount))
	}

	s.logger.Info("演示数据写入完成",
		zap.Int("events", result.EventsCreated),
		zap.Int("items", result.ItemsCreated),
	)
	return result, nil
}

func seedDate(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// DemoEvents 演示活动
func DemoEvents() []model.Event {
	return []model.Event{
		{
			Title:           "Tech-Connect: 2025 Placement Drive",
			Date:            seedDate("2025-11-20T09:00:00Z"),
			Location:        "Auditorium Complex",
			Description:     "Final year placement drive. Top tech companies will be recruiting. Bring your resumes and be prepared for interviews.",
			RegisteredUsers: model.StringArray{},
		},
		{
			Title:           "Innovate '25: 24-Hour Hackathon",
			Date:            seedDate("2025-11-28T18:00:00Z"),
			Location:        "Engineering Building, Labs 101-105",
			Description:     "Join us for 24 hours of coding, innovation, and fun. Build a project, compete for prizes, and enjoy free food!",
			RegisteredUsers: model.StringArray{},
		},
		{
			Title:           "Workshop: Intro to AI & Machine Learning",
			Date:            seedDate("2025-12-05T14:00:00Z"),
			Location:        "Library Seminar Hall",
			Description:     "A 3-hour hands-on workshop on the fundamentals of AI/ML, led by Dr. Evelyn Reed. No prior experience required.",
			RegisteredUsers: model.StringArray{},
		},
		{
			Title:           "Enigma '25: Annual Cultural Fest",
			Date:            seedDate("2025-12-15T17:00:00Z"),
			Location:        "Main Campus Grounds",
			Description:     "Get ready for three days of music, dance, art, and celebration. Featuring live bands, food stalls, and competitions.",
			RegisteredUsers: model.StringArray{},
		},
	}
}

// DemoItems 演示失物招领；reporter 为占位 ID，不对应真实用户
func DemoItems() []model.Item {
	return []model.Item{
		{
			Item:        "Blue Hydroflask Water Bottle",
			Location:    "Library, 2nd Floor",
			Date:        seedDate("2025-11-15T10:00:00Z"),
			Status:      model.ItemStatusLost,
			Description: "Lost my favorite water bottle. It has a 'Code' sticker on it.",
			Reporter:    "s12345",
			ImageURL:    "https://placehold.co/600x400/FFE4E6/F43F5E?text=Lost+Bottle",
		},
		{
			Item:        "Set of Keys on Red Lanyard",
			Location:    "Main Quad, by the fountain",
			Date:        seedDate("2025-11-16T14:30:00Z"),
			Status:      model.ItemStatusFound,
			Description: "Found a set of keys with a car remote and a small red lanyard. Turned into the Admin Office.",
			Reporter:    "a001",
			ImageURL:    "https://placehold.co/600x400/BFDBFE/3B82F6?text=Found+Keys",
		},
		{
			Item:        "Black Ray-Ban Sunglasses",
			Location:    "Cafeteria (South)",
			Date:        seedDate("2025-11-16T12:00:00Z"),
			Status:      model.ItemStatusLost,
			Description: "Left my sunglasses on a table near the window.",
			Reporter:    "s56789",
			ImageURL:    "https://placehold.co/600x400/FFE4E6/F43F5E?text=Lost+Sunglasses",
		},
		{
			Item:        "Student ID Card",
			Location:    "Engineering Building, Hallway",
			Date:        seedDate("2025-11-17T09:15:00Z"),
			Status:      model.ItemStatusFound,
			Description: "Found a Student ID card for 'Alex Johnson'. It's at the front desk of the building.",
			Reporter:    "a001",
			ImageURL:    "https://placehold.co/600x400/BFDBFE/3B82F6?text=Found+ID",
		},
	}
}
