package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"timesheet-recon/backend/internal/reconcile"
)

// ── 财务核对模块 DTO ──

// ReconcileQuery 核对区间，日期格式 YYYY-MM-DD，均可为空
type ReconcileQuery struct {
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// ReportQuery 报表下载参数
type ReportQuery struct {
	ReconcileQuery
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

// UpdateStatusRequest 手工修改核对状态
type UpdateStatusRequest struct {
	FacultyName string `json:"faculty_name" binding:"required"`
	Status      string `json:"status"       binding:"required"`
}

// ReportRow 核对报表中的一行
type ReportRow struct {
	FacultyName string          `json:"faculty_name"`
	HoursWorked decimal.Decimal `json:"hours_worked"`
	Status      string          `json:"status"`
}

// StatusChange 本次核对产生的状态变更
type StatusChange struct {
	FacultyName string `json:"faculty_name"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// ReconcileResponse 核对结果
type ReconcileResponse struct {
	FromDate    string                 `json:"from_date,omitempty"`
	ToDate      string                 `json:"to_date,omitempty"`
	Rows        []ReportRow            `json:"rows"`
	Messages    []string               `json:"messages"`
	Diagnostics []reconcile.Diagnostic `json:"diagnostics"`
	Updates     []StatusChange         `json:"updates"`
	Aborted     bool                   `json:"aborted"`
	Applied     bool                   `json:"applied"`
}

// UpdateStatusResponse 状态修改结果
type UpdateStatusResponse struct {
	FacultyName string `json:"faculty_name"`
	Status      string `json:"status"`
}

// FacultyEntry 教师工时明细，字段按存储原样返回
type FacultyEntry struct {
	Date        string          `json:"date"`
	Day         string          `json:"day"`
	CourseCode  string          `json:"course_code"`
	HoursWorked json.RawMessage `json:"hours_worked"`
	Comments    string          `json:"comments"`
}

// FacultyDetailsResponse 教师工时明细
type FacultyDetailsResponse struct {
	FacultyName string         `json:"faculty_name"`
	Status      string         `json:"status"`
	Entries     []FacultyEntry `json:"entries"`
}
