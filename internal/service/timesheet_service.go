package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"timesheet-recon/backend/internal/dto"
	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/repository"
)

// ── 工时填报模块业务错误 ──

var (
	ErrInvalidHours      = errors.New("工时必须为非负数字")
	ErrInvalidEntryDate  = errors.New("日期格式应为 YYYY-MM-DD")
	ErrInvalidDateRange  = errors.New("结束日期不能早于开始日期")
	ErrTimesheetConflict = errors.New("工时记录已存在且小时数不同")
)

// TimesheetConflictError 与已有记录冲突的详情
type TimesheetConflictError struct {
	Date          string
	CourseCode    string
	ExistingHours string
}

func (e *TimesheetConflictError) Error() string {
	return fmt.Sprintf("%s 在 %s 已有 %s 小时的工时记录，确认覆盖请设置 confirm_override",
		e.CourseCode, e.Date, e.ExistingHours)
}

func (e *TimesheetConflictError) Unwrap() error { return ErrTimesheetConflict }

// TimesheetService 教师工时填报接口
type TimesheetService interface {
	// Submit 提交工时；任一条冲突且未确认覆盖时整体不写入
	Submit(ctx context.Context, username string, req *dto.SubmitTimesheetRequest) (*dto.SubmitTimesheetResponse, error)
	View(ctx context.Context, username string) (*dto.TimesheetViewResponse, error)
}

type timesheetService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimesheetService 创建 TimesheetService 实例
func NewTimesheetService(repo *repository.Repository, logger *zap.Logger) TimesheetService {
	return &timesheetService{repo: repo, logger: logger}
}

// pendingEntry 已校验、待写入的工时
type pendingEntry struct {
	record model.TimesheetRecord
	hours  decimal.Decimal
}

func (s *timesheetService) Submit(ctx context.Context, username string, req *dto.SubmitTimesheetRequest) (*dto.SubmitTimesheetResponse, error) {
	// 1. 校验请求
	if err := validatePeriod(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	pending := make([]pendingEntry, 0, len(req.TimesheetData))
	for _, e := range req.TimesheetData {
		p, err := toPendingEntry(e)
		if err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}

	// 2. 查询当前工时
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 3. 在副本上合并，冲突时不写入
	groups := cloneGroups(user.Timesheets)
	resp := &dto.SubmitTimesheetResponse{}
	for _, p := range pending {
		gi, wi, ri, found := findRecord(groups, p.record)
		if !found {
			groups = append(groups, model.TimesheetGroup{Week1: []model.TimesheetRecord{p.record}})
			resp.Added++
			continue
		}

		existing := weekOf(&groups[gi], wi)
		old := (*existing)[ri]
		if oldHours, err := reconcile.ParseHours(old.HoursWorked); err == nil && oldHours.Equal(p.hours) {
			resp.Unchanged++
			continue
		}
		if !req.ConfirmOverride {
			return nil, &TimesheetConflictError{
				Date:          p.record.Date,
				CourseCode:    p.record.CourseCode,
				ExistingHours: strings.Trim(string(old.HoursWorked), `"`),
			}
		}

		*existing = append((*existing)[:ri:ri], (*existing)[ri+1:]...)
		if len(groups[gi].Week1) == 0 && len(groups[gi].Week2) == 0 {
			groups = append(groups[:gi:gi], groups[gi+1:]...)
		}
		groups = append(groups, model.TimesheetGroup{Week1: []model.TimesheetRecord{p.record}})
		resp.Replaced++
	}

	if resp.Added == 0 && resp.Replaced == 0 {
		return resp, nil
	}

	// 4. 乐观锁写回
	user.Timesheets = groups
	if err := s.repo.User.UpdateTimesheets(ctx, user); err != nil {
		s.logger.Error("写入工时失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("工时已提交",
		zap.String("username", username),
		zap.Int("added", resp.Added),
		zap.Int("replaced", resp.Replaced),
		zap.Int("unchanged", resp.Unchanged),
	)
	return resp, nil
}

func (s *timesheetService) View(ctx context.Context, username string) (*dto.TimesheetViewResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	timesheets := []model.TimesheetGroup(user.Timesheets)
	if timesheets == nil {
		timesheets = []model.TimesheetGroup{}
	}
	return &dto.TimesheetViewResponse{
		Username:   user.Username,
		Status:     string(user.Status.OrDefault()),
		Timesheets: timesheets,
	}, nil
}

// ── 内部工具 ──

func validatePeriod(start, end string) error {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(reconcile.EntryDateLayout, start); err != nil {
			return fmt.Errorf("%w: start_date=%q", ErrInvalidEntryDate, start)
		}
	}
	if end != "" {
		if e, err = time.Parse(reconcile.EntryDateLayout, end); err != nil {
			return fmt.Errorf("%w: end_date=%q", ErrInvalidEntryDate, end)
		}
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return ErrInvalidDateRange
	}
	return nil
}

func toPendingEntry(e dto.TimesheetEntryRequest) (pendingEntry, error) {
	date := strings.TrimSpace(e.Date)
	if _, err := time.Parse(reconcile.EntryDateLayout, date); err != nil {
		return pendingEntry{}, fmt.Errorf("%w: date=%q", ErrInvalidEntryDate, e.Date)
	}
	hours, err := reconcile.ParseHours(e.HoursWorked)
	if err != nil {
		return pendingEntry{}, fmt.Errorf("%w: %s", ErrInvalidHours, err)
	}
	return pendingEntry{
		record: model.TimesheetRecord{
			Date:        date,
			Day:         strings.TrimSpace(e.Day),
			CourseCode:  strings.TrimSpace(e.CourseCode),
			HoursWorked: json.RawMessage(hours.String()),
			Comments:    e.Comments,
		},
		hours: hours,
	}, nil
}

// findRecord 按 (date, day, courseCode) 查找已有记录
func findRecord(groups []model.TimesheetGroup, rec model.TimesheetRecord) (gi, wi, ri int, found bool) {
	for i, g := range groups {
		for j, week := range g.Weeks() {
			for k, r := range week {
				if strings.TrimSpace(r.Date) == rec.Date &&
					strings.TrimSpace(r.Day) == rec.Day &&
					strings.TrimSpace(r.CourseCode) == rec.CourseCode {
					return i, j, k, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

func weekOf(g *model.TimesheetGroup, wi int) *[]model.TimesheetRecord {
	if wi == 0 {
		return &g.Week1
	}
	return &g.Week2
}

func cloneGroups(src []model.TimesheetGroup) []model.TimesheetGroup {
	out := make([]model.TimesheetGroup, len(src))
	for i, g := range src {
		out[i] = model.TimesheetGroup{
			Week1: append([]model.TimesheetRecord(nil), g.Week1...),
			Week2: append([]model.TimesheetRecord(nil), g.Week2...),
		}
	}
	return out
}
