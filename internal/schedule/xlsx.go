package schedule

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"timesheet-recon/backend/internal/reconcile"
)

// DefaultSheet 机构课表默认工作表名
const DefaultSheet = "Activities - Groups"

// 表头列名（去除首尾空白后精确匹配）
const (
	colInstructor = "Instructor"
	colSubject    = "Subject"
	colRoom       = "Room"
	colStartDate  = "Start Date"
	colEndDate    = "End Date"
	colStartTime  = "Start Time"
	colEndTime    = "End Time"
	colDays       = "Days of the Week"
)

var requiredColumns = []string{
	colInstructor, colSubject, colStartDate, colEndDate, colStartTime, colEndTime, colDays,
}

// sheetRow 表格中的一行原始值
type sheetRow struct {
	Instructor string `validate:"required"`
	Subject    string `validate:"required"`
	Room       string
	StartDate  string `validate:"required"`
	EndDate    string `validate:"required"`
	StartTime  string `validate:"required"`
	EndTime    string `validate:"required"`
	Days       string `validate:"required"`
}

var validate = validator.New()

// LoadXLSX 读取 Excel 课表
//
// 第一行为表头，按列名定位；空行跳过。
// 日期、时间单元格以原始值读取，同时兼容文本与 Excel 序列号两种存储方式。
func LoadXLSX(r io.Reader, sheet string) (*Schedule, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("打开 Excel 失败: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySchedule
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	get := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := &Schedule{Source: "xlsx"}
	for n, row := range rows[1:] {
		line := n + 2
		if isBlank(row) {
			continue
		}
		raw := sheetRow{
			Instructor: get(row, colInstructor),
			Subject:    get(row, colSubject),
			Room:       get(row, colRoom),
			StartDate:  get(row, colStartDate),
			EndDate:    get(row, colEndDate),
			StartTime:  get(row, colStartTime),
			EndTime:    get(row, colEndTime),
			Days:       get(row, colDays),
		}
		entry, err := raw.toEntry()
		if err != nil {
			out.Skipped = append(out.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func (r sheetRow) toEntry() (reconcile.ScheduleEntry, error) {
	if err := validate.Struct(r); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Field())
			}
			return reconcile.ScheduleEntry{}, fmt.Errorf("缺少字段: %s", strings.Join(fields, ", "))
		}
		return reconcile.ScheduleEntry{}, err
	}

	start, err := parseDate(r.StartDate)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("Start Date: %w", err)
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("End Date: %w", err)
	}
	startTime, err := parseTime(r.StartTime)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("Start Time: %w", err)
	}
	endTime, err := parseTime(r.EndTime)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("End Time: %w", err)
	}
	// 无法解析的星期保留为空集合，由引擎给出诊断
	days, _ := reconcile.ParseWeekdayPattern(r.Days)

	return reconcile.ScheduleEntry{
		Instructor: r.Instructor,
		CourseCode: r.Subject,
		Room:       r.Room,
		StartDate:  start,
		EndDate:    end,
		StartTime:  startTime,
		EndTime:    endTime,
		Weekdays:   days,
	}, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
