package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timesheet-recon/backend/config"
	"timesheet-recon/backend/internal/api/handler"
	"timesheet-recon/backend/internal/api/middleware"
	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/pkg/jwt"
	"timesheet-recon/backend/pkg/redis"
)

const (
	maxBodyBytes   = 1 << 20
	loginRateLimit = 10
	loginWindow    = time.Minute
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎；rdb 为 nil 时不启用黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db Pinger, logger *zap.Logger) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		blacklist middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health"))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(limiter, loginRateLimit, loginWindow), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.POST("/auth/register", middleware.RoleAuth(model.RoleAdmin), h.Auth.Register)

			// 财务核对模块
			finance := authorized.Group("/finance")
			finance.Use(middleware.RoleAuth(model.RoleFinance))
			{
				finance.GET("/reconciliation", h.Finance.Reconcile)
				finance.GET("/report", h.Finance.DownloadReport)
				finance.PUT("/status", h.Finance.UpdateStatus)
				finance.GET("/faculty/:name", h.Finance.FacultyDetails)
			}

			// 工时填报模块
			timesheets := authorized.Group("/timesheets")
			timesheets.Use(middleware.RoleAuth(model.RoleFaculty))
			{
				timesheets.POST("", h.Timesheet.Submit)
				timesheets.GET("/me", h.Timesheet.View)
			}
		}
	}

	return r
}
