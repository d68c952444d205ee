// Package app 组装服务端与命令行共用的依赖：数据库、Redis、课表与 Service
package app

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timesheet-recon/backend/config"
	"timesheet-recon/backend/internal/repository"
	"timesheet-recon/backend/internal/schedule"
	"timesheet-recon/backend/internal/service"
	"timesheet-recon/backend/pkg/database"
	"timesheet-recon/backend/pkg/jwt"
	"timesheet-recon/backend/pkg/redis"
)

// runLockKey 核对运行锁在 Redis 中的键
const runLockKey = "reconcile:run"

// App 已初始化的应用依赖
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client // 未启用或连接失败时为 nil
	Repo    *repository.Repository
	JWT     *jwt.Manager
	Service *service.Service
}

// New 连接数据库并执行迁移，按配置接入 Redis，最后组装 Service
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	// Redis 可选：连接失败时降级运行，不中断启动
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与跨实例运行锁将不可用", zap.Error(err))
			rdb = nil
		}
	}

	loader := schedule.NewLoader(cfg.Schedule.Path, cfg.Schedule.Sheet, cfg.Schedule.Location(), logger)

	deps := service.Deps{Schedules: loader}
	if rdb != nil {
		deps.Locker = service.NewRedisLocker(rdb, runLockKey, cfg.Reconcile.LockTTL, logger)
		deps.Blacklist = rdb
	}

	repo := repository.NewRepository(db)
	jwtMgr := jwt.NewManager(&cfg.Auth)

	return &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Repo:    repo,
		JWT:     jwtMgr,
		Service: service.NewService(cfg, repo, jwtMgr, deps, logger),
	}, nil
}

// Close 释放数据库与 Redis 连接
func (a *App) Close() {
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
