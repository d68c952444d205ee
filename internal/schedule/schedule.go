package schedule

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"timesheet-recon/backend/internal/reconcile"
)

// ── 课表导入 ──────────────────────────────────────────────
//
// 职责：将机构课表（.xlsx / .ics）解析为 reconcile.ScheduleEntry 列表。
//
// 时间段顺序与星期字段在此不做拒绝：非法时间段、无法解析的星期
// 原样交给核对引擎，由引擎在匹配时给出诊断。
// 缺少必填字段或日期无法解析的行记录为 Skipped。
// ─────────────────────────────────────────────────────────────

var (
	ErrUnsupportedFormat = errors.New("不支持的课表格式")
	ErrSheetNotFound     = errors.New("课表中不存在指定工作表")
	ErrMissingColumn     = errors.New("课表缺少必需的列")
	ErrEmptySchedule     = errors.New("课表为空")
)

// Schedule 导入结果
type Schedule struct {
	Entries []reconcile.ScheduleEntry
	Skipped []SkippedRow
	Source  string
}

// SkippedRow 被忽略的课表行
type SkippedRow struct {
	Line   int // xlsx 为行号（1-based），ics 为事件序号
	Reason string
}

func (s SkippedRow) String() string {
	return fmt.Sprintf("row %d: %s", s.Line, s.Reason)
}

// Index 构建核对用的只读索引
func (s *Schedule) Index() *reconcile.ScheduleIndex {
	return reconcile.NewScheduleIndex(s.Entries)
}

// ── 单元格值解析 ──

var dateLayouts = []string{
	"1/2/2006",
	time.DateOnly,
	"1/2/06",
	"2006/1/2",
}

// parseDate 接受 MM/DD/YYYY、M/D/YYYY、ISO 日期或 Excel 日期序列号
func parseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, errors.New("日期为空")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	// 带时间部分的日期（如 "01/02/2024 00:00:00"）
	if i := strings.IndexByte(v, ' '); i > 0 {
		if t, err := parseDate(v[:i]); err == nil {
			return t, nil
		}
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		t, err := excelize.ExcelDateToTime(f, false)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %q", s)
}

// parseTime 接受 "09:00"、"9:00 AM" 或 Excel 时间小数（0.375 = 09:00）
func parseTime(s string) (reconcile.TimeOfDay, error) {
	if t, err := reconcile.ParseTimeOfDay(s); err == nil {
		return t, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("无法解析时间: %q", s)
	}
	_, frac := math.Modf(f)
	secs := int(math.Round(frac * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return reconcile.TimeOfDay(secs), nil
}
