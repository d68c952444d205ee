package service

import (
	"go.uber.org/zap"

	"timesheet-recon/backend/config"
	"timesheet-recon/backend/internal/repository"
	"timesheet-recon/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Finance   FinanceService
	Timesheet TimesheetService
}

// Deps 可选的外部依赖；为 nil 时退化为单机实现
type Deps struct {
	Schedules ScheduleSource
	Locker    RunLocker
	Blacklist TokenBlacklist
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:      NewAuthService(repo, jwtMgr, deps.Blacklist, logger),
		Finance:   NewFinanceService(&cfg.Reconcile, repo, deps.Schedules, deps.Locker, logger),
		Timesheet: NewTimesheetService(repo, logger),
	}
}
