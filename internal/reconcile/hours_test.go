package reconcile

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := map[string]TimeOfDay{
		"09:00":       NewTimeOfDay(9, 0, 0),
		"09:00:00":    NewTimeOfDay(9, 0, 0),
		"13:30:15":    NewTimeOfDay(13, 30, 15),
		"1:30 PM":     NewTimeOfDay(13, 30, 0),
		"9:05am":      NewTimeOfDay(9, 5, 0),
		"12:00:00 AM": NewTimeOfDay(0, 0, 0),
	}
	for in, want := range tests {
		got, err := ParseTimeOfDay(in)
		if err != nil {
			t.Errorf("%q 应解析成功: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q 期望 %s，实际: %s", in, want, got)
		}
	}

	if _, err := ParseTimeOfDay("25:99"); err == nil {
		t.Error("非法时间应返回错误")
	}
}

func TestHoursFromInterval(t *testing.T) {
	h, err := HoursFromInterval(NewTimeOfDay(9, 0, 0), NewTimeOfDay(12, 0, 0))
	if err != nil {
		t.Fatalf("应成功: %v", err)
	}
	if !h.Equal(decimal.NewFromInt(3)) {
		t.Errorf("期望 3，实际: %s", h)
	}

	h, _ = HoursFromInterval(NewTimeOfDay(10, 0, 0), NewTimeOfDay(11, 30, 0))
	if !h.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("期望 1.5，实际: %s", h)
	}

	h, _ = HoursFromInterval(NewTimeOfDay(10, 0, 0), NewTimeOfDay(10, 0, 0))
	if !h.IsZero() {
		t.Errorf("起止相同期望 0，实际: %s", h)
	}
}

func TestHoursFromInterval_EndBeforeStart(t *testing.T) {
	_, err := HoursFromInterval(NewTimeOfDay(14, 0, 0), NewTimeOfDay(13, 0, 0))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("期望 ErrInvalidInterval，实际: %v", err)
	}
}

func TestHoursFromScheduleMatch_CeilOfSum(t *testing.T) {
	rows := []ScheduleEntry{
		{StartTime: NewTimeOfDay(9, 0, 0), EndTime: NewTimeOfDay(10, 15, 0)},  // 1.25
		{StartTime: NewTimeOfDay(13, 0, 0), EndTime: NewTimeOfDay(14, 15, 0)}, // 1.25
	}
	got, errs := HoursFromScheduleMatch(rows)
	if len(errs) != 0 {
		t.Fatalf("不应有错误: %v", errs)
	}
	if got != 3 {
		t.Errorf("ceil(2.5) 期望 3，实际: %d", got)
	}
}

func TestHoursFromScheduleMatch_Monotonic(t *testing.T) {
	rows := []ScheduleEntry{
		{StartTime: NewTimeOfDay(9, 0, 0), EndTime: NewTimeOfDay(9, 20, 0)},
	}
	prev, _ := HoursFromScheduleMatch(rows)
	for i := 0; i < 6; i++ {
		rows = append(rows, ScheduleEntry{StartTime: NewTimeOfDay(9, 0, 0), EndTime: NewTimeOfDay(9, 20, 0)})
		cur, _ := HoursFromScheduleMatch(rows)
		if cur < prev {
			t.Fatalf("增加课表行后结果不应减小: %d -> %d", prev, cur)
		}
		prev = cur
	}
}

func TestHoursFromScheduleMatch_SkipsInvalidRows(t *testing.T) {
	rows := []ScheduleEntry{
		{StartTime: NewTimeOfDay(9, 0, 0), EndTime: NewTimeOfDay(11, 0, 0)},
		{StartTime: NewTimeOfDay(15, 0, 0), EndTime: NewTimeOfDay(14, 0, 0)},
	}
	got, errs := HoursFromScheduleMatch(rows)
	if got != 2 {
		t.Errorf("期望 2，实际: %d", got)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidInterval) {
		t.Errorf("期望 1 个 ErrInvalidInterval，实际: %v", errs)
	}

	if got, _ := HoursFromScheduleMatch(nil); got != 0 {
		t.Errorf("空输入期望 0，实际: %d", got)
	}
}
