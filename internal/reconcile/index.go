package reconcile

import (
	"strings"
	"time"
)

// ScheduleEntry 课表中的一行（一门课在一个时间段的安排）
type ScheduleEntry struct {
	Instructor string
	CourseCode string
	Room       string
	StartDate  time.Time // 含
	EndDate    time.Time // 含
	StartTime  TimeOfDay
	EndTime    TimeOfDay
	Weekdays   WeekdaySet
}

// ScheduleIndex 课表只读索引
//
// 构建时复制并规范化 instructor/course（去空白、小写），
// 之后所有查询只读共享，可在多个 goroutine 间并发使用。
type ScheduleIndex struct {
	byInstructor map[string][]ScheduleEntry
	size         int
}

// NewScheduleIndex 构建索引，不修改入参
func NewScheduleIndex(entries []ScheduleEntry) *ScheduleIndex {
	ix := &ScheduleIndex{byInstructor: make(map[string][]ScheduleEntry)}
	for _, e := range entries {
		e.Instructor = normalizeKey(e.Instructor)
		e.CourseCode = normalizeKey(e.CourseCode)
		e.StartDate = civilDate(e.StartDate)
		e.EndDate = civilDate(e.EndDate)
		ix.byInstructor[e.Instructor] = append(ix.byInstructor[e.Instructor], e)
		ix.size++
	}
	return ix
}

// Lookup 按教师精确匹配、课程代码前缀匹配查询，保持课表原有顺序
// 无匹配返回空切片
func (ix *ScheduleIndex) Lookup(instructor, coursePrefix string) []ScheduleEntry {
	prefix := normalizeKey(coursePrefix)
	if prefix == "" {
		return nil
	}
	var out []ScheduleEntry
	for _, e := range ix.byInstructor[normalizeKey(instructor)] {
		if strings.HasPrefix(e.CourseCode, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// Len 索引中的课表行数
func (ix *ScheduleIndex) Len() int { return ix.size }

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
