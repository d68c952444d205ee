package handler

import "timesheet-recon/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Finance   *FinanceHandler
	Timesheet *TimesheetHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Finance:   NewFinanceHandler(svc.Finance),
		Timesheet: NewTimesheetHandler(svc.Timesheet),
	}
}
