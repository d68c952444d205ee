package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"timesheet-recon/backend/internal/api/middleware"
	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/service"
	pkgerrors "timesheet-recon/backend/pkg/errors"
	"timesheet-recon/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult    *dto.TokenResponse
	loginErr       error
	registerResult *dto.RegisterResponse
	registerErr    error
	logoutErr      error

	loggedOutJTI string
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.loggedOutJTI = jti
	return m.logoutErr
}

// ── Mock FinanceService ──

type mockFinanceService struct {
	reconcileResult *dto.ReconcileResponse
	reconcileErr    error
	updateResult    *dto.UpdateStatusResponse
	updateErr       error
	detailsResult   *dto.FacultyDetailsResponse
	detailsErr      error
	exportResult    *service.ReportFile
	exportErr       error

	lastQuery *dto.ReconcileQuery
	lastName  string
}

func (m *mockFinanceService) Run(_ context.Context, _ reconcile.Window, _ service.RunOptions) (*reconcile.Report, error) {
	return nil, errors.New("not used")
}
func (m *mockFinanceService) Reconcile(_ context.Context, q *dto.ReconcileQuery) (*dto.ReconcileResponse, error) {
	m.lastQuery = q
	return m.reconcileResult, m.reconcileErr
}
func (m *mockFinanceService) UpdateStatus(_ context.Context, _ *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockFinanceService) FacultyDetails(_ context.Context, name string) (*dto.FacultyDetailsResponse, error) {
	m.lastName = name
	return m.detailsResult, m.detailsErr
}
func (m *mockFinanceService) ExportReport(_ context.Context, _ *dto.ReportQuery) (*service.ReportFile, error) {
	return m.exportResult, m.exportErr
}

// ── Mock TimesheetService ──

type mockTimesheetService struct {
	submitResult *dto.SubmitTimesheetResponse
	submitErr    error
	viewResult   *dto.TimesheetViewResponse
	viewErr      error

	lastUsername string
}

func (m *mockTimesheetService) Submit(_ context.Context, username string, _ *dto.SubmitTimesheetRequest) (*dto.SubmitTimesheetResponse, error) {
	m.lastUsername = username
	return m.submitResult, m.submitErr
}
func (m *mockTimesheetService) View(_ context.Context, username string) (*dto.TimesheetViewResponse, error) {
	m.lastUsername = username
	return m.viewResult, m.viewErr
}

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context, username, role string) {
	c.Set(middleware.CtxUserID, "test-user-id")
	c.Set(middleware.CtxUsername, username)
	c.Set(middleware.CtxRole, role)
	c.Set(middleware.CtxTokenID, "test-jti")
	c.Set(middleware.CtxExpiresAt, time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "test-access-token", ExpiresIn: 900},
	}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "jdoe", Password: "Test1234"}))

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code 0，实际: %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", bytes.NewReader([]byte("invalid json")))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		err      error
		wantHTTP int
		wantCode int
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, 11001},
		{service.ErrRoleMismatch, http.StatusForbidden, 11002},
		{errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{loginErr: tt.err})
			r := gin.New()
			r.POST("/auth/login", h.Login)
			w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{Username: "jdoe", Password: "x"}))

			if w.Code != tt.wantHTTP {
				t.Errorf("期望 %d，实际: %d", tt.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望 code %d，实际: %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c, "jdoe", "Faculty")
		h.Logout(c)
	})
	w := serve(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if mock.loggedOutJTI != "test-jti" {
		t.Errorf("期望注销 test-jti，实际: %q", mock.loggedOutJTI)
	}
}

func TestAuthHandler_Register(t *testing.T) {
	mock := &mockAuthService{registerResult: &dto.RegisterResponse{ID: "u1", Username: "asmith", Role: "Faculty"}}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/register", h.Register)

	w := serve(r, "POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "asmith", Password: "password123", Role: "Faculty",
	}))
	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际: %d", w.Code)
	}

	w = serve(r, "POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "asmith", Password: "password123", Role: "Student",
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法角色期望 400，实际: %d", w.Code)
	}

	mock.registerErr = service.ErrUsernameTaken
	w = serve(r, "POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username: "asmith", Password: "password123", Role: "Faculty",
	}))
	if w.Code != http.StatusConflict {
		t.Errorf("用户名重复期望 409，实际: %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// FinanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestFinanceHandler_Reconcile_Success(t *testing.T) {
	mock := &mockFinanceService{
		reconcileResult: &dto.ReconcileResponse{
			Rows:     []dto.ReportRow{{FacultyName: "jdoe", HoursWorked: decimal.NewFromInt(3), Status: "✓"}},
			Messages: []string{},
		},
	}
	h := NewFinanceHandler(mock)

	r := gin.New()
	r.GET("/finance/reconciliation", h.Reconcile)
	w := serve(r, "GET", "/finance/reconciliation?from_date=2024-01-01&to_date=2024-01-31", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if mock.lastQuery.FromDate != "2024-01-01" || mock.lastQuery.ToDate != "2024-01-31" {
		t.Errorf("查询参数未正确绑定: %+v", mock.lastQuery)
	}
}

func TestFinanceHandler_Reconcile_AbortedReturnsPartial(t *testing.T) {
	mock := &mockFinanceService{
		reconcileResult: &dto.ReconcileResponse{Aborted: true},
		reconcileErr:    service.ErrReconcileUnavailable,
	}
	h := NewFinanceHandler(mock)

	r := gin.New()
	r.GET("/finance/reconciliation", h.Reconcile)
	w := serve(r, "GET", "/finance/reconciliation", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际: %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 20006 || resp.Data == nil {
		t.Errorf("期望 code 20006 且附带部分结果，实际: %+v", resp)
	}
}

func TestFinanceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"日期非法", reconcile.ErrInvalidWindow, http.StatusBadRequest, 20001},
		{"运行中", pkgerrors.ErrRunInProgress, http.StatusConflict, 20007},
		{"课表失败", service.ErrScheduleUnavailable, http.StatusServiceUnavailable, 20008},
		{"无数据", service.ErrReportEmpty, http.StatusNotFound, 20005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewFinanceHandler(&mockFinanceService{reconcileErr: tt.err, exportErr: tt.err})
			r := gin.New()
			r.GET("/finance/reconciliation", h.Reconcile)
			r.GET("/finance/report", h.DownloadReport)

			for _, path := range []string{"/finance/reconciliation", "/finance/report"} {
				w := serve(r, "GET", path, nil)
				if w.Code != tt.wantHTTP {
					t.Errorf("%s 期望 %d，实际: %d", path, tt.wantHTTP, w.Code)
				}
				if resp := parseResponse(w); resp.Code != tt.wantCode {
					t.Errorf("%s 期望 code %d，实际: %d", path, tt.wantCode, resp.Code)
				}
			}
		})
	}
}

func TestFinanceHandler_DownloadReport(t *testing.T) {
	mock := &mockFinanceService{exportResult: &service.ReportFile{
		ContentType: "text/csv; charset=utf-8",
		Filename:    "report_profiles.csv",
		Body:        []byte("Faculty Name,Hours Worked,Status\njdoe,3,Hours Matched\n"),
	}}
	h := NewFinanceHandler(mock)

	r := gin.New()
	r.GET("/finance/report", h.DownloadReport)
	w := serve(r, "GET", "/finance/report?format=csv", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "report_profiles.csv") {
		t.Errorf("Content-Disposition 不正确: %s", cd)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type 不正确: %s", w.Header().Get("Content-Type"))
	}

	w = serve(r, "GET", "/finance/report?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法格式期望 400，实际: %d", w.Code)
	}
}

func TestFinanceHandler_UpdateStatus(t *testing.T) {
	mock := &mockFinanceService{updateResult: &dto.UpdateStatusResponse{FacultyName: "jdoe", Status: "✓"}}
	h := NewFinanceHandler(mock)

	r := gin.New()
	r.PUT("/finance/status", h.UpdateStatus)

	w := serve(r, "PUT", "/finance/status", jsonBody(dto.UpdateStatusRequest{FacultyName: "jdoe", Status: "✓"}))
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}

	w = serve(r, "PUT", "/finance/status", jsonBody(map[string]string{"status": "✓"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少 faculty_name 期望 400，实际: %d", w.Code)
	}

	mock.updateErr = service.ErrStatusUnchanged
	w = serve(r, "PUT", "/finance/status", jsonBody(dto.UpdateStatusRequest{FacultyName: "jdoe", Status: "✓"}))
	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 20004 {
		t.Errorf("期望 400/20004，实际: %d/%d", w.Code, resp.Code)
	}
}

func TestFinanceHandler_FacultyDetails(t *testing.T) {
	mock := &mockFinanceService{detailsErr: service.ErrFacultyNotFound}
	h := NewFinanceHandler(mock)

	r := gin.New()
	r.GET("/finance/faculty/:name", h.FacultyDetails)
	w := serve(r, "GET", "/finance/faculty/jdoe", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
	if mock.lastName != "jdoe" {
		t.Errorf("期望路径参数 jdoe，实际: %q", mock.lastName)
	}
}

// ═══════════════════════════════════════════════════════════
// TimesheetHandler Tests
// ═══════════════════════════════════════════════════════════

func submitBody() io.Reader {
	return jsonBody(map[string]any{
		"start_date": "2024-01-08",
		"end_date":   "2024-01-21",
		"timesheet_data": []map[string]any{{
			"date": "2024-01-09", "day": "Tuesday", "course_code": "CS101", "hours_worked": "3",
		}},
	})
}

func TestTimesheetHandler_Submit_Success(t *testing.T) {
	mock := &mockTimesheetService{submitResult: &dto.SubmitTimesheetResponse{Added: 1}}
	h := NewTimesheetHandler(mock)

	r := gin.New()
	r.POST("/timesheets", func(c *gin.Context) {
		setAuth(c, "jdoe", "Faculty")
		h.Submit(c)
	})
	w := serve(r, "POST", "/timesheets", submitBody())

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if mock.lastUsername != "jdoe" {
		t.Errorf("期望以当前用户提交，实际: %q", mock.lastUsername)
	}
}

func TestTimesheetHandler_Submit_Conflict(t *testing.T) {
	mock := &mockTimesheetService{submitErr: &service.TimesheetConflictError{
		Date: "2024-01-09", CourseCode: "CS101", ExistingHours: "2",
	}}
	h := NewTimesheetHandler(mock)

	r := gin.New()
	r.POST("/timesheets", func(c *gin.Context) {
		setAuth(c, "jdoe", "Faculty")
		h.Submit(c)
	})
	w := serve(r, "POST", "/timesheets", submitBody())

	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际: %d", w.Code)
	}
	resp := parseResponse(w)
	data, _ := resp.Data.(map[string]interface{})
	if resp.Code != 21001 || data["existing_hours"] != "2" {
		t.Errorf("冲突响应不符: %+v", resp)
	}
}

func TestTimesheetHandler_Submit_EmptyData(t *testing.T) {
	h := NewTimesheetHandler(&mockTimesheetService{})

	r := gin.New()
	r.POST("/timesheets", func(c *gin.Context) {
		setAuth(c, "jdoe", "Faculty")
		h.Submit(c)
	})
	w := serve(r, "POST", "/timesheets", jsonBody(map[string]any{"timesheet_data": []any{}}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestTimesheetHandler_View_Unauthenticated(t *testing.T) {
	h := NewTimesheetHandler(&mockTimesheetService{})

	r := gin.New()
	r.GET("/timesheets/me", h.View)
	w := serve(r, "GET", "/timesheets/me", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际: %d", w.Code)
	}
}
