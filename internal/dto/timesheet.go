package dto

import (
	"encoding/json"

	"timesheet-recon/backend/internal/model"
)

// ── 工时填报模块 DTO ──

// TimesheetEntryRequest 单条工时；hours_worked 接受数字或数字字符串
type TimesheetEntryRequest struct {
	Date        string          `json:"date"         binding:"required"`
	Day         string          `json:"day"          binding:"required"`
	CourseCode  string          `json:"course_code"  binding:"required"`
	HoursWorked json.RawMessage `json:"hours_worked" binding:"required"`
	Comments    string          `json:"comments"`
}

// SubmitTimesheetRequest 工时提交请求
type SubmitTimesheetRequest struct {
	StartDate       string                  `json:"start_date"`
	EndDate         string                  `json:"end_date"`
	TimesheetData   []TimesheetEntryRequest `json:"timesheet_data"   binding:"required,min=1,dive"`
	ConfirmOverride bool                    `json:"confirm_override"`
}

// SubmitTimesheetResponse 提交结果统计
type SubmitTimesheetResponse struct {
	Added     int `json:"added"`
	Replaced  int `json:"replaced"`
	Unchanged int `json:"unchanged"`
}

// TimesheetConflict 与已存在记录工时不一致
type TimesheetConflict struct {
	Date          string `json:"date"`
	CourseCode    string `json:"course_code"`
	ExistingHours string `json:"existing_hours"`
}

// TimesheetViewResponse 当前教师的全部工时
type TimesheetViewResponse struct {
	Username   string                 `json:"username"`
	Status     string                 `json:"status"`
	Timesheets []model.TimesheetGroup `json:"timesheets"`
}
