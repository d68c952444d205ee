package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/service"
	pkgerrors "timesheet-recon/backend/pkg/errors"
	"timesheet-recon/backend/pkg/response"
)

// TimesheetHandler 工时填报模块 HTTP 处理器
type TimesheetHandler struct {
	timesheetSvc service.TimesheetService
}

// NewTimesheetHandler 创建 TimesheetHandler
func NewTimesheetHandler(timesheetSvc service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheetSvc: timesheetSvc}
}

// Submit 提交工时
// POST /api/v1/timesheets
func (h *TimesheetHandler) Submit(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	var req dto.SubmitTimesheetRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.timesheetSvc.Submit(c.Request.Context(), username, &req)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

// View 查看本人工时
// GET /api/v1/timesheets/me
func (h *TimesheetHandler) View(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	result, err := h.timesheetSvc.View(c.Request.Context(), username)
	if err != nil {
		handleTimesheetError(c, err)
		return
	}

	response.OK(c, result)
}

func handleTimesheetError(c *gin.Context, err error) {
	var conflict *service.TimesheetConflictError
	switch {
	case errors.As(err, &conflict):
		response.ErrorWithData(c, http.StatusConflict, 21001, conflict.Error(), dto.TimesheetConflict{
			Date:          conflict.Date,
			CourseCode:    conflict.CourseCode,
			ExistingHours: conflict.ExistingHours,
		})
	case errors.Is(err, service.ErrInvalidHours),
		errors.Is(err, service.ErrInvalidEntryDate),
		errors.Is(err, service.ErrInvalidDateRange):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21002, "工时数据无效", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 21003, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 21004, err.Error())
	default:
		response.InternalError(c)
	}
}
