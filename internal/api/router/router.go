package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sank902/Campus-connect/config"
	"github.com/sank902/Campus-connect/internal/api/handler"
	"github.com/sank902/Campus-connect/internal/api/middleware"
	"github.com/sank902/Campus-connect/internal/model"
	"github.com/sank902/Campus-connect/pkg/jwt"
	"github.com/sank902/Campus-connect/pkg/metrics"
	"github.com/sank902/Campus-connect/pkg/redis"
)

// maxBodyBytes 请求体上限，需容纳 2MB 的 .ics 上传及 multipart 开销
const maxBodyBytes = 3 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb、db、m 均可为 nil：分别关闭黑名单与限流、数据库健康检查、指标采集
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// nil *redis.Client 不能直接作为接口传入
	var (
		denylist middleware.TokenDenylist
		limiter  middleware.RateLimiter
	)
	if rdb != nil {
		denylist, limiter = rdb, rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 基础路由 ──
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Campus Connect API is running...")
	})
	r.GET("/health", healthCheck(db))
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(maxBodyBytes))
	{
		// 认证模块（无需认证）
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login",
				middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, logger),
				h.Auth.Login,
			)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, denylist, m, logger))
		{
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 活动模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.POST("", middleware.RoleAuth(model.RoleAdmin), h.Event.CreateEvent)
				events.GET("/calendar.ics", h.Event.Calendar)
				events.POST("/import", middleware.RoleAuth(model.RoleAdmin), h.Event.ImportCalendar)
				events.GET("/:id", h.Event.GetEvent)
				events.POST("/:id/register", h.Event.RegisterEvent)
				events.GET("/:id/registrants/export", middleware.RoleAuth(model.RoleAdmin), h.Event.ExportRegistrants)
			}

			// 失物招领模块（删除权限由 Service 层按归属校验）
			items := authorized.Group("/items")
			{
				items.GET("", h.Item.ListItems)
				items.POST("", h.Item.CreateItem)
				items.DELETE("/:id", h.Item.DeleteItem)
			}
		}
	}

	return r
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
