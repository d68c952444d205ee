package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timesheet-recon/backend/config"
	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/repository"
	"timesheet-recon/backend/internal/schedule"
)

// ── 财务核对模块业务错误 ──

var (
	ErrFacultyNotFound      = errors.New("教师不存在")
	ErrInvalidStatus        = errors.New("状态值只能为 ✓ 或 ✗")
	ErrStatusUnchanged      = errors.New("状态未发生变化")
	ErrScheduleUnavailable  = errors.New("课表加载失败")
	ErrReconcileUnavailable = errors.New("核对过程中存储不可用")
)

// ScheduleSource 机构课表来源，由 *schedule.Loader 实现
type ScheduleSource interface {
	Load(ctx context.Context) (*schedule.Schedule, error)
}

// RunOptions 单次核对的执行选项
type RunOptions struct {
	Persist bool // 写回状态变更；为 true 时需要持有运行锁
}

// FinanceService 财务核对业务接口
type FinanceService interface {
	// Run 执行一次核对并返回原始报表，供 HTTP 与命令行共用
	Run(ctx context.Context, w reconcile.Window, opts RunOptions) (*reconcile.Report, error)
	Reconcile(ctx context.Context, q *dto.ReconcileQuery) (*dto.ReconcileResponse, error)
	UpdateStatus(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error)
	FacultyDetails(ctx context.Context, facultyName string) (*dto.FacultyDetailsResponse, error)
	ExportReport(ctx context.Context, q *dto.ReportQuery) (*ReportFile, error)
}

type financeService struct {
	cfg       *config.ReconcileConfig
	repo      *repository.Repository
	store     reconcile.Store
	schedules ScheduleSource
	locker    RunLocker
	logger    *zap.Logger
}

// NewFinanceService 创建 FinanceService 实例；locker 为 nil 时使用进程内锁
func NewFinanceService(
	cfg *config.ReconcileConfig,
	repo *repository.Repository,
	schedules ScheduleSource,
	locker RunLocker,
	logger *zap.Logger,
) FinanceService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &financeService{
		cfg:       cfg,
		repo:      repo,
		store:     newFacultyStore(repo.User),
		schedules: schedules,
		locker:    locker,
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Run：加载课表、加锁并执行核对引擎
// ═══════════════════════════════════════════════════════════

func (s *financeService) Run(ctx context.Context, w reconcile.Window, opts RunOptions) (*reconcile.Report, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	sched, err := s.schedules.Load(ctx)
	if err != nil {
		s.logger.Error("加载课表失败", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrScheduleUnavailable, err)
	}

	if opts.Persist {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	policy := reconcile.PolicyLastWriterWins
	if s.cfg.RequireAllMatch {
		policy = reconcile.PolicyRequireAllMatch
	}
	engine := reconcile.New(s.store, reconcile.Options{
		Policy:       policy,
		Workers:      s.cfg.Workers,
		ApplyUpdates: opts.Persist,
	}, s.logger)

	report, err := engine.Run(ctx, sched.Index(), w)
	if err != nil {
		s.logger.Error("核对中断", zap.Error(err))
		return report, err
	}
	return report, nil
}

// ═══════════════════════════════════════════════════════════
// Reconcile：核对并返回页面数据
// ═══════════════════════════════════════════════════════════

func (s *financeService) Reconcile(ctx context.Context, q *dto.ReconcileQuery) (*dto.ReconcileResponse, error) {
	w, err := reconcile.ParseWindow(q.FromDate, q.ToDate)
	if err != nil {
		return nil, err
	}

	report, err := s.Run(ctx, w, RunOptions{Persist: s.cfg.PersistStatus})
	if report == nil {
		return nil, err
	}
	resp := toReconcileResponse(q, report)
	if err != nil {
		return resp, fmt.Errorf("%w: %w", ErrReconcileUnavailable, err)
	}
	return resp, nil
}

func toReconcileResponse(q *dto.ReconcileQuery, report *reconcile.Report) *dto.ReconcileResponse {
	resp := &dto.ReconcileResponse{
		FromDate:    strings.TrimSpace(q.FromDate),
		ToDate:      strings.TrimSpace(q.ToDate),
		Rows:        make([]dto.ReportRow, 0, len(report.Rows)),
		Messages:    report.Messages(),
		Diagnostics: report.Diagnostics,
		Updates:     make([]dto.StatusChange, 0, len(report.Updates)),
		Aborted:     report.Aborted,
		Applied:     report.Applied,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []reconcile.Diagnostic{}
	}
	for _, r := range report.Rows {
		resp.Rows = append(resp.Rows, dto.ReportRow{
			FacultyName: r.FacultyName,
			HoursWorked: r.TotalHours,
			Status:      string(r.Status),
		})
	}
	for _, u := range report.Updates {
		resp.Updates = append(resp.Updates, dto.StatusChange{
			FacultyName: u.FacultyName,
			From:        string(u.From),
			To:          string(u.To),
		})
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// UpdateStatus：财务手工修改核对状态
// ═══════════════════════════════════════════════════════════

func (s *financeService) UpdateStatus(ctx context.Context, req *dto.UpdateStatusRequest) (*dto.UpdateStatusResponse, error) {
	status := model.Status(strings.TrimSpace(req.Status))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	faculty, err := s.getFaculty(ctx, req.FacultyName)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.User.SetStatus(ctx, faculty.Username, status)
	if err != nil {
		s.logger.Error("更新核对状态失败", zap.String("faculty", faculty.Username), zap.Error(err))
		return nil, err
	}
	if !changed {
		return nil, ErrStatusUnchanged
	}

	s.logger.Info("核对状态已手工修改",
		zap.String("faculty", faculty.Username),
		zap.String("from", string(faculty.Status)),
		zap.String("to", string(status)),
	)
	return &dto.UpdateStatusResponse{FacultyName: faculty.Username, Status: string(status)}, nil
}

// ═══════════════════════════════════════════════════════════
// FacultyDetails：教师全部工时明细
// ═══════════════════════════════════════════════════════════

func (s *financeService) FacultyDetails(ctx context.Context, facultyName string) (*dto.FacultyDetailsResponse, error) {
	faculty, err := s.getFaculty(ctx, facultyName)
	if err != nil {
		return nil, err
	}

	resp := &dto.FacultyDetailsResponse{
		FacultyName: faculty.Username,
		Status:      string(faculty.Status.OrDefault()),
		Entries:     []dto.FacultyEntry{},
	}
	for _, group := range faculty.Timesheets {
		for _, week := range group.Weeks() {
			for _, rec := range week {
				comments := rec.Comments
				if comments == "" {
					comments = "N/A"
				}
				resp.Entries = append(resp.Entries, dto.FacultyEntry{
					Date:        rec.Date,
					Day:         rec.Day,
					CourseCode:  rec.CourseCode,
					HoursWorked: rec.HoursWorked,
					Comments:    comments,
				})
			}
		}
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// ExportReport：下载核对报表
// ═══════════════════════════════════════════════════════════

func (s *financeService) ExportReport(ctx context.Context, q *dto.ReportQuery) (*ReportFile, error) {
	switch q.Format {
	case "", FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, q.Format)
	}

	w, err := reconcile.ParseWindow(q.FromDate, q.ToDate)
	if err != nil {
		return nil, err
	}

	report, err := s.Run(ctx, w, RunOptions{Persist: s.cfg.PersistStatus})
	if err != nil {
		return nil, err
	}

	file, err := RenderReport(report.Rows, q.Format)
	if err != nil {
		if !errors.Is(err, ErrReportEmpty) {
			s.logger.Error("生成报表失败", zap.Error(err))
		}
		return nil, err
	}
	return file, nil
}

func (s *financeService) getFaculty(ctx context.Context, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrFacultyNotFound
	}
	user, err := s.repo.User.GetByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		s.logger.Error("查询教师失败", zap.String("faculty", name), zap.Error(err))
		return nil, err
	}
	if user.Role != model.RoleFaculty {
		return nil, ErrFacultyNotFound
	}
	return user, nil
}
