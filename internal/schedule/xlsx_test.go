package schedule

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"timesheet-recon/backend/internal/reconcile"
)

// ── 测试辅助 ──

var scheduleHeader = []any{
	" Instructor ", "Subject", "Room", "Start Date", "End Date", "Start Time", "End Time", "Days of the Week",
}

func buildWorkbook(t *testing.T, sheet string, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("创建工作表失败: %v", err)
		}
		f.DeleteSheet("Sheet1")
	}
	all := append([][]any{scheduleHeader}, rows...)
	for i, row := range all {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("写入行失败: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("写入 Excel 失败: %v", err)
	}
	return buf
}

// ── LoadXLSX ──

func TestLoadXLSX_TextCells(t *testing.T) {
	buf := buildWorkbook(t, DefaultSheet,
		[]any{"jdoe", "CS101", "B204", "01/01/2024", "03/01/2024", "9:00 AM", "12:00 PM", "T"},
		[]any{"asmith", "MATH200", "", "2024-01-08", "2024-04-26", "13:30", "14:45", "MWF"},
	)

	s, err := LoadXLSX(buf, "")
	if err != nil {
		t.Fatalf("LoadXLSX 应成功: %v", err)
	}
	if len(s.Entries) != 2 || len(s.Skipped) != 0 {
		t.Fatalf("期望 2 行、0 跳过，实际: %d, %d (%v)", len(s.Entries), len(s.Skipped), s.Skipped)
	}

	e := s.Entries[0]
	if e.Instructor != "jdoe" || e.CourseCode != "CS101" || e.Room != "B204" {
		t.Errorf("字段映射错误: %+v", e)
	}
	if !e.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !e.EndDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("日期解析错误: %s - %s", e.StartDate, e.EndDate)
	}
	if e.StartTime != reconcile.NewTimeOfDay(9, 0, 0) || e.EndTime != reconcile.NewTimeOfDay(12, 0, 0) {
		t.Errorf("时间解析错误: %s - %s", e.StartTime, e.EndTime)
	}
	if e.Weekdays != reconcile.NewWeekdaySet(time.Tuesday) {
		t.Errorf("星期解析错误: %s", e.Weekdays)
	}

	if s.Entries[1].Weekdays.String() != "MWF" {
		t.Errorf("期望 MWF，实际: %s", s.Entries[1].Weekdays)
	}
}

func TestLoadXLSX_NativeDateAndTimeCells(t *testing.T) {
	buf := buildWorkbook(t, DefaultSheet,
		[]any{"jdoe", "CS101", "B204",
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			0.375, 0.5, "TTh"},
	)

	s, err := LoadXLSX(buf, DefaultSheet)
	if err != nil {
		t.Fatalf("LoadXLSX 应成功: %v", err)
	}
	if len(s.Entries) != 1 {
		t.Fatalf("期望 1 行，实际: %d (%v)", len(s.Entries), s.Skipped)
	}
	e := s.Entries[0]
	if e.StartDate.Format(time.DateOnly) != "2024-01-01" || e.EndDate.Format(time.DateOnly) != "2024-03-01" {
		t.Errorf("Excel 日期序列号解析错误: %s - %s", e.StartDate, e.EndDate)
	}
	if e.StartTime != reconcile.NewTimeOfDay(9, 0, 0) || e.EndTime != reconcile.NewTimeOfDay(12, 0, 0) {
		t.Errorf("Excel 时间小数解析错误: %s - %s", e.StartTime, e.EndTime)
	}
}

func TestLoadXLSX_SkipsInvalidRows(t *testing.T) {
	buf := buildWorkbook(t, DefaultSheet,
		[]any{"", "CS101", "", "01/01/2024", "03/01/2024", "09:00", "12:00", "T"},
		[]any{},
		[]any{"jdoe", "CS101", "", "someday", "03/01/2024", "09:00", "12:00", "T"},
		[]any{"jdoe", "CS102", "", "01/01/2024", "03/01/2024", "12:00", "09:00", "Q"},
	)

	s, err := LoadXLSX(buf, "")
	if err != nil {
		t.Fatalf("LoadXLSX 应成功: %v", err)
	}
	if len(s.Skipped) != 2 {
		t.Fatalf("期望 2 行跳过，实际: %v", s.Skipped)
	}
	if s.Skipped[0].Line != 2 || s.Skipped[1].Line != 4 {
		t.Errorf("跳过行号错误: %v", s.Skipped)
	}

	// 时间段倒置、星期无法识别的行保留，交由核对引擎诊断
	if len(s.Entries) != 1 {
		t.Fatalf("期望保留 1 行，实际: %d", len(s.Entries))
	}
	if !s.Entries[0].Weekdays.Empty() {
		t.Errorf("无法识别的星期应为空集合，实际: %s", s.Entries[0].Weekdays)
	}
}

func TestLoadXLSX_MissingSheetOrColumns(t *testing.T) {
	buf := buildWorkbook(t, "Sheet1")
	if _, err := LoadXLSX(buf, DefaultSheet); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("期望 ErrSheetNotFound，实际: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetRow("Sheet1", "A1", &[]any{"Instructor", "Subject"})
	out := new(bytes.Buffer)
	if err := f.Write(out); err != nil {
		t.Fatalf("写入 Excel 失败: %v", err)
	}
	if _, err := LoadXLSX(out, "Sheet1"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("期望 ErrMissingColumn，实际: %v", err)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"02/06/2024", "2/6/2024", "2024-02-06", "2/6/24", "02/06/2024 00:00:00", "45328"} {
		got, err := parseDate(in)
		if err != nil {
			t.Errorf("%q 应解析成功: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%q 期望 2024-02-06，实际: %s", in, got.Format(time.DateOnly))
		}
	}
	if _, err := parseDate("tomorrow"); err == nil {
		t.Error("非法日期应返回错误")
	}
}
