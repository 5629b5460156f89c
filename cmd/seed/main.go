// Command seed 向空的活动表与失物招领表写入演示数据。
//
// 与服务进程分离，任何 API 请求都不会触发写入；重复执行时跳过非空表。
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sank902/Campus-connect/config"
	"github.com/sank902/Campus-connect/internal/repository"
	"github.com/sank902/Campus-connect/internal/service"
	"github.com/sank902/Campus-connect/pkg/database"
	"github.com/sank902/Campus-connect/pkg/jwt"
	applogger "github.com/sank902/Campus-connect/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("CAMPUS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log, "campus-seed")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := service.NewService(cfg, repository.NewRepository(db), jwt.NewManager(&cfg.Auth), nil, nil, logger)
	result, err := svc.Seed.Seed(ctx)
	if err != nil {
		logger.Fatal("写入演示数据失败", zap.Error(err))
	}

	fmt.Printf("events created: %d, items created: %d\n", result.EventsCreated, result.ItemsCreated)
}
