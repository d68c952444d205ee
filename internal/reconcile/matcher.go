package reconcile

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"timesheet-recon/backend/internal/model"
)

// Outcome 单次比对结果
type Outcome string

const (
	OutcomeMatched          Outcome = "matched"
	OutcomeWeekdayMismatch  Outcome = "weekday_mismatch"
	OutcomeDateNotScheduled Outcome = "date_not_scheduled"
	OutcomeHoursMismatch    Outcome = "hours_mismatch"
	OutcomeNoSchedule       Outcome = "no_schedule"
	OutcomeInvalidSchedule  Outcome = "invalid_schedule"
	OutcomeSkippedVerified  Outcome = "skipped_verified"
)

// StatusPolicy 多次比对结果合成教师状态的策略
type StatusPolicy int

const (
	// PolicyLastWriterWins 每次比对覆盖上一次结果，最终状态取最后一次比对
	PolicyLastWriterWins StatusPolicy = iota
	// PolicyRequireAllMatch 任一比对失败即固定为 ✗，全部通过才为 ✓
	PolicyRequireAllMatch
)

// CourseLookup 按教师与课程代码从存储中查询工时记录
type CourseLookup interface {
	FindByCourse(ctx context.Context, username, courseCode string) ([]FacultyRecord, error)
}

// EntryCheck 单条工时记录的核对明细
type EntryCheck struct {
	Entry          TimesheetEntry
	ScheduledHours int
	Outcome        Outcome
}

// FacultyResult 单个教师的核对结果
type FacultyResult struct {
	FacultyName   string
	InitialStatus model.Status
	Status        model.Status
	Skipped       bool // 已是 ✓，仅统计工时
	TotalHours    decimal.Decimal
	Compared      int
	Checks        []EntryCheck
	Diagnostics   []Diagnostic
}

// Matcher 差异比对器
type Matcher struct {
	index  *ScheduleIndex
	lookup CourseLookup
	policy StatusPolicy
	logger *zap.Logger
}

// NewMatcher 创建 Matcher
func NewMatcher(index *ScheduleIndex, lookup CourseLookup, policy StatusPolicy, logger *zap.Logger) *Matcher {
	return &Matcher{index: index, lookup: lookup, policy: policy, logger: logger}
}

// Match 核对单个教师在区间内的全部工时
//
// 工时总数无条件累加，与比对结果无关；只有存储错误（或 ctx 取消）会返回 error。
func (m *Matcher) Match(ctx context.Context, rec FacultyRecord, w Window) (*FacultyResult, error) {
	initial := rec.Status.OrDefault()
	res := &FacultyResult{
		FacultyName:   rec.Username,
		InitialStatus: initial,
		Status:        initial,
		TotalHours:    decimal.Zero,
	}

	if initial == model.StatusVerified {
		res.Skipped = true
		for item := range Walk(rec, w) {
			if item.Err != nil {
				continue
			}
			res.TotalHours = res.TotalHours.Add(item.Entry.HoursWorked)
			res.Checks = append(res.Checks, EntryCheck{Entry: item.Entry, Outcome: OutcomeSkippedVerified})
		}
		return res, nil
	}

	tracker := verdictTracker{policy: m.policy, status: initial}
	courses := make(map[string]*courseCheck)

	for item := range Walk(rec, w) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item.Err != nil {
			res.Diagnostics = append(res.Diagnostics, malformedDiagnostic(rec.Username, item.Err))
			continue
		}

		e := item.Entry
		res.TotalHours = res.TotalHours.Add(e.HoursWorked)

		rows := m.index.Lookup(rec.Username, e.CourseCode)
		if len(rows) == 0 {
			res.Diagnostics = append(res.Diagnostics, noScheduleDiagnostic(e))
			res.Checks = append(res.Checks, EntryCheck{Entry: e, Outcome: OutcomeNoSchedule})
			continue
		}

		cc, ok := courses[e.CourseCode]
		if !ok {
			var err error
			cc, err = m.checkCourse(ctx, rec.Username, e.CourseCode, rows)
			if err != nil {
				return nil, err
			}
			courses[e.CourseCode] = cc
			res.Diagnostics = append(res.Diagnostics, cc.diagnostics...)
		}

		// 同一课程的比对结果在本次核对内不变，重放即可保持逐条覆盖的语义
		for _, o := range cc.outcomes {
			tracker.record(o)
		}
		res.Checks = append(res.Checks, EntryCheck{
			Entry:          e,
			ScheduledHours: cc.scheduledHours,
			Outcome:        cc.entryOutcome(e),
		})
	}

	res.Status = tracker.status
	res.Compared = tracker.compared

	m.logger.Debug("教师核对完成",
		zap.String("faculty", res.FacultyName),
		zap.String("status", string(res.Status)),
		zap.Int("compared", res.Compared),
		zap.String("total_hours", res.TotalHours.String()),
	)
	return res, nil
}

// courseCheck 单个 (教师, 课程) 的比对缓存
type courseCheck struct {
	rows           []preparedRow
	scheduledHours int
	outcomes       []Outcome
	diagnostics    []Diagnostic
}

// preparedRow 已计算时长与应上课日期的课表行
type preparedRow struct {
	entry ScheduleEntry
	hours decimal.Decimal
	dates map[string]struct{}
}

func (m *Matcher) checkCourse(ctx context.Context, faculty, course string, rows []ScheduleEntry) (*courseCheck, error) {
	cc := &courseCheck{}
	cc.scheduledHours, _ = HoursFromScheduleMatch(rows)

	for _, row := range rows {
		h, err := HoursFromInterval(row.StartTime, row.EndTime)
		if err != nil {
			cc.diagnostics = append(cc.diagnostics, scheduleRowDiagnostic(DiagInvalidInterval, faculty, course, row, err))
			continue
		}
		if row.Weekdays.Empty() {
			cc.diagnostics = append(cc.diagnostics, scheduleRowDiagnostic(DiagInvalidWeekday, faculty, course, row, ErrInvalidWeekday))
			continue
		}
		dates := make(map[string]struct{})
		for _, d := range ExpandDates(row.StartDate, row.EndDate, row.Weekdays) {
			dates[dateKey(d)] = struct{}{}
		}
		cc.rows = append(cc.rows, preparedRow{entry: row, hours: h, dates: dates})
	}
	if len(cc.rows) == 0 {
		return cc, nil
	}

	records, err := m.lookup.FindByCourse(ctx, faculty, course)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, storageError("按课程查询工时", err)
	}

	stored := storedEntries(records, course)
	for _, pr := range cc.rows {
		for _, s := range stored {
			cc.outcomes = append(cc.outcomes, pr.compare(s))
		}
	}
	return cc, nil
}

// entryOutcome 单条记录对本课程各课表行的比对：任一行通过即 matched，否则取最后一行的失败原因
func (cc *courseCheck) entryOutcome(e TimesheetEntry) Outcome {
	if len(cc.rows) == 0 {
		return OutcomeInvalidSchedule
	}
	var last Outcome
	for _, pr := range cc.rows {
		o := pr.compare(e)
		if o == OutcomeMatched {
			return o
		}
		last = o
	}
	return last
}

// compare 依次检查：星期 → 日期 → 时长（精确相等），首个失败即返回
func (pr preparedRow) compare(s TimesheetEntry) Outcome {
	day, err := ParseWeekdayLabel(s.WeekdayLabel)
	if err != nil || !pr.entry.Weekdays.Has(day) {
		return OutcomeWeekdayMismatch
	}
	if _, ok := pr.dates[dateKey(s.Date)]; !ok {
		return OutcomeDateNotScheduled
	}
	if !pr.hours.Equal(s.HoursWorked) {
		return OutcomeHoursMismatch
	}
	return OutcomeMatched
}

// storedEntries 取出记录中课程代码完全一致的全部有效工时（不做日期过滤）
func storedEntries(records []FacultyRecord, course string) []TimesheetEntry {
	var out []TimesheetEntry
	for _, rec := range records {
		for item := range Walk(rec, Window{}) {
			if item.Err == nil && item.Entry.CourseCode == course {
				out = append(out, item.Entry)
			}
		}
	}
	return out
}

// verdictTracker 按策略合成状态
type verdictTracker struct {
	policy   StatusPolicy
	status   model.Status
	compared int
	failed   bool
}

func (t *verdictTracker) record(o Outcome) {
	t.compared++
	ok := o == OutcomeMatched
	switch t.policy {
	case PolicyRequireAllMatch:
		if !ok {
			t.failed = true
		}
		if t.failed {
			t.status = model.StatusUnverified
		} else {
			t.status = model.StatusVerified
		}
	default:
		if ok {
			t.status = model.StatusVerified
		} else {
			t.status = model.StatusUnverified
		}
	}
}
