package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-recon/backend/internal/model"
)

// EntryDateLayout 工时记录中的日期格式
const EntryDateLayout = time.DateOnly

// TimesheetEntry 解析后的单条工时记录
type TimesheetEntry struct {
	FacultyName  string
	Date         time.Time
	WeekdayLabel string
	CourseCode   string
	HoursWorked  decimal.Decimal
	Comments     string
}

// FacultyRecord 引擎视角下的教师记录
type FacultyRecord struct {
	Username   string
	Status     model.Status
	Timesheets []model.TimesheetGroup
}

// Window 日期过滤区间（闭区间），零值边界表示不限
type Window struct {
	From time.Time
	To   time.Time
}

// ParseWindow 解析 YYYY-MM-DD 格式的起止日期，空字符串表示不限
func ParseWindow(from, to string) (Window, error) {
	var w Window
	if from = strings.TrimSpace(from); from != "" {
		t, err := time.Parse(EntryDateLayout, from)
		if err != nil {
			return Window{}, fmt.Errorf("%w: from_date=%q", ErrInvalidWindow, from)
		}
		w.From = t
	}
	if to = strings.TrimSpace(to); to != "" {
		t, err := time.Parse(EntryDateLayout, to)
		if err != nil {
			return Window{}, fmt.Errorf("%w: to_date=%q", ErrInvalidWindow, to)
		}
		w.To = t
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.To.Before(w.From) {
		return Window{}, fmt.Errorf("%w: to_date 早于 from_date", ErrInvalidWindow)
	}
	return w, nil
}

// Contains 日期是否落在区间内
func (w Window) Contains(d time.Time) bool {
	if !w.From.IsZero() && d.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && d.After(w.To) {
		return false
	}
	return true
}

// EntryResult 遍历结果：成功解析的记录，或单条记录的解析错误
type EntryResult struct {
	Entry TimesheetEntry
	Err   error
}

// Walk 惰性遍历教师全部工时分组（week1 → week2），按区间过滤
//
// 单条记录解析失败只产出带 Err 的结果，不中断遍历；
// 返回的序列可重复 range，每次从头开始。
func Walk(rec FacultyRecord, w Window) iter.Seq[EntryResult] {
	return func(yield func(EntryResult) bool) {
		for _, group := range rec.Timesheets {
			for _, week := range group.Weeks() {
				for _, raw := range week {
					entry, err := ParseRecord(rec.Username, raw)
					if err != nil {
						// 日期可解析且不在区间内的损坏记录直接忽略
						if d, derr := time.Parse(EntryDateLayout, strings.TrimSpace(raw.Date)); derr == nil && !w.Contains(d) {
							continue
						}
						if !yield(EntryResult{Err: err}) {
							return
						}
						continue
					}
					if !w.Contains(entry.Date) {
						continue
					}
					if !yield(EntryResult{Entry: entry}) {
						return
					}
				}
			}
		}
	}
}

// ParseRecord 将存储中的原始记录解析为 TimesheetEntry
func ParseRecord(facultyName string, raw model.TimesheetRecord) (TimesheetEntry, error) {
	date, err := time.Parse(EntryDateLayout, strings.TrimSpace(raw.Date))
	if err != nil {
		return TimesheetEntry{}, &MalformedEntryError{Field: "date", Value: raw.Date, Reason: "日期格式应为 YYYY-MM-DD"}
	}
	hours, err := ParseHours(raw.HoursWorked)
	if err != nil {
		return TimesheetEntry{}, &MalformedEntryError{Field: "hoursWorked", Value: string(raw.HoursWorked), Reason: err.Error()}
	}
	course := strings.TrimSpace(raw.CourseCode)
	if course == "" {
		return TimesheetEntry{}, &MalformedEntryError{Field: "courseCode", Reason: "课程代码为空"}
	}
	return TimesheetEntry{
		FacultyName:  facultyName,
		Date:         date,
		WeekdayLabel: strings.TrimSpace(raw.Day),
		CourseCode:   course,
		HoursWorked:  hours,
		Comments:     raw.Comments,
	}, nil
}

// ParseHours 解析 hoursWorked：接受 JSON 数字或数字字符串，必须非负
func ParseHours(raw json.RawMessage) (decimal.Decimal, error) {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return decimal.Zero, errors.New("缺少工时")
	}
	s := string(v)
	if v[0] == '"' {
		if err := json.Unmarshal(v, &s); err != nil {
			return decimal.Zero, fmt.Errorf("非法字符串: %w", err)
		}
		s = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("不是合法数字")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("工时不能为负数")
	}
	return d, nil
}
