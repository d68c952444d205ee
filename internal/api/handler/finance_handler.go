package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/service"
	pkgerrors "timesheet-recon/backend/pkg/errors"
	"timesheet-recon/backend/pkg/response"
)

// FinanceHandler 财务核对模块 HTTP 处理器
type FinanceHandler struct {
	financeSvc service.FinanceService
}

// NewFinanceHandler 创建 FinanceHandler
func NewFinanceHandler(financeSvc service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeSvc: financeSvc}
}

// Reconcile 执行核对并返回结果
// GET /api/v1/finance/reconciliation?from_date=&to_date=
func (h *FinanceHandler) Reconcile(c *gin.Context) {
	var q dto.ReconcileQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.financeSvc.Reconcile(c.Request.Context(), &q)
	if err != nil {
		// 存储中断时仍返回已完成部分
		if errors.Is(err, service.ErrReconcileUnavailable) && result != nil {
			response.ErrorWithData(c, http.StatusServiceUnavailable, 20006, "核对中断，结果不完整", result)
			return
		}
		handleFinanceError(c, err)
		return
	}

	response.OK(c, result)
}

// DownloadReport 下载核对报表
// GET /api/v1/finance/report?from_date=&to_date=&format=csv|xlsx
func (h *FinanceHandler) DownloadReport(c *gin.Context) {
	var q dto.ReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	file, err := h.financeSvc.ExportReport(c.Request.Context(), &q)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.Attachment(c, file.ContentType, file.Filename, file.Body)
}

// UpdateStatus 手工修改教师核对状态
// PUT /api/v1/finance/status
func (h *FinanceHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.financeSvc.UpdateStatus(c.Request.Context(), &req)
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, result)
}

// FacultyDetails 查看教师全部工时
// GET /api/v1/finance/faculty/:name
func (h *FinanceHandler) FacultyDetails(c *gin.Context) {
	result, err := h.financeSvc.FacultyDetails(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleFinanceError(c, err)
		return
	}

	response.OK(c, result)
}

func handleFinanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reconcile.ErrInvalidWindow):
		response.ErrorWithDetails(c, http.StatusBadRequest, 20001, "日期区间无效", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 20002, err.Error())
	case errors.Is(err, service.ErrFacultyNotFound):
		response.NotFound(c, 20003, err.Error())
	case errors.Is(err, service.ErrStatusUnchanged):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrReportEmpty):
		response.NotFound(c, 20005, err.Error())
	case errors.Is(err, service.ErrReconcileUnavailable), errors.Is(err, reconcile.ErrStorageUnavailable):
		response.ServiceUnavailable(c, 20006, "核对过程中存储不可用")
	case errors.Is(err, pkgerrors.ErrRunInProgress):
		response.Conflict(c, 20007, err.Error())
	case errors.Is(err, service.ErrScheduleUnavailable):
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, 20008, "课表加载失败", err.Error())
	case errors.Is(err, service.ErrUnsupportedFormat):
		response.BadRequest(c, 20009, err.Error())
	default:
		response.InternalError(c)
	}
}
