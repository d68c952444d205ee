package reconcile

import (
	"testing"
	"time"
)

func TestScheduleIndex_Lookup(t *testing.T) {
	rows := []ScheduleEntry{
		{Instructor: " JDoe ", CourseCode: "CS101-01", Weekdays: NewWeekdaySet(time.Tuesday)},
		{Instructor: "jdoe", CourseCode: "CS102", Weekdays: NewWeekdaySet(time.Monday)},
		{Instructor: "jdoe", CourseCode: "cs101-02", Weekdays: NewWeekdaySet(time.Thursday)},
		{Instructor: "asmith", CourseCode: "CS101", Weekdays: NewWeekdaySet(time.Friday)},
	}
	ix := NewScheduleIndex(rows)

	if ix.Len() != 4 {
		t.Errorf("期望 Len=4，实际: %d", ix.Len())
	}

	got := ix.Lookup("JDOE", "cs101")
	if len(got) != 2 {
		t.Fatalf("期望 2 条匹配，实际: %d", len(got))
	}
	if got[0].CourseCode != "cs101-01" || got[1].CourseCode != "cs101-02" {
		t.Errorf("应保持课表原有顺序，实际: %s, %s", got[0].CourseCode, got[1].CourseCode)
	}

	if got := ix.Lookup("jdoe", "MATH200"); len(got) != 0 {
		t.Errorf("无匹配期望空，实际: %d", len(got))
	}
	if got := ix.Lookup("j", "CS101"); len(got) != 0 {
		t.Errorf("教师需精确匹配，实际: %d", len(got))
	}
	if got := ix.Lookup("jdoe", ""); got != nil {
		t.Errorf("空课程代码期望 nil，实际: %v", got)
	}
}

func TestNewScheduleIndex_DoesNotMutateInput(t *testing.T) {
	rows := []ScheduleEntry{{Instructor: " JDoe ", CourseCode: "CS101"}}
	NewScheduleIndex(rows)
	if rows[0].Instructor != " JDoe " || rows[0].CourseCode != "CS101" {
		t.Errorf("入参不应被修改，实际: %+v", rows[0])
	}
}
