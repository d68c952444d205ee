package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// ── 星期映射表 ──
//
// 课表使用单/双字母代码（M T W Th F Sa Su），工时记录使用完整英文名（Tuesday），
// 展开与比对共用同一张表。

var weekdayTable = [...]struct {
	code string
	day  time.Weekday
}{
	{"M", time.Monday},
	{"T", time.Tuesday},
	{"W", time.Wednesday},
	{"Th", time.Thursday},
	{"F", time.Friday},
	{"Sa", time.Saturday},
	{"Su", time.Sunday},
}

// compactAliases 紧凑写法中允许出现的代码（小写），双字母优先匹配
var compactAliases = map[string]time.Weekday{
	"th": time.Thursday,
	"tu": time.Tuesday,
	"sa": time.Saturday,
	"su": time.Sunday,
	"m":  time.Monday,
	"t":  time.Tuesday,
	"w":  time.Wednesday,
	"r":  time.Thursday,
	"f":  time.Friday,
}

var weekdayNames = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 21)
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		m[full] = d
		m[full[:3]] = d
	}
	m["tues"] = time.Tuesday
	m["thur"] = time.Thursday
	m["thurs"] = time.Thursday
	return m
}()

// WeekdayCode 返回星期对应的课表代码
func WeekdayCode(d time.Weekday) string {
	for _, e := range weekdayTable {
		if e.day == d {
			return e.code
		}
	}
	return ""
}

// ParseWeekdayLabel 解析单个星期标签，接受完整名称、三字母缩写或课表代码，大小写不敏感
func ParseWeekdayLabel(label string) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	if d, ok := weekdayNames[s]; ok {
		return d, nil
	}
	if d, ok := compactAliases[s]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, label)
}

// WeekdaySet 星期集合（位图，bit i 对应 time.Weekday(i)）
type WeekdaySet uint8

// NewWeekdaySet 由若干星期构造集合
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With 返回加入 d 后的集合
func (s WeekdaySet) With(d time.Weekday) WeekdaySet { return s | 1<<uint(d) }

// Has 集合是否包含 d
func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

// Empty 集合是否为空
func (s WeekdaySet) Empty() bool { return s == 0 }

// Days 按周一到周日的顺序返回集合中的星期
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, e := range weekdayTable {
		if s.Has(e.day) {
			days = append(days, e.day)
		}
	}
	return days
}

// String 以课表代码形式输出，如 "TTh"
func (s WeekdaySet) String() string {
	var b strings.Builder
	for _, d := range s.Days() {
		b.WriteString(WeekdayCode(d))
	}
	return b.String()
}

// ParseWeekdayPattern 解析课表 "Days of the Week" 字段
//
// 支持：
//   - 紧凑写法 "MWF"、"TTh"、"TuTh"、"SaSu"
//   - 分隔写法 "M, W, F"、"Tue/Thu"、"Monday Wednesday"
func ParseWeekdayPattern(pattern string) (WeekdaySet, error) {
	tokens := strings.FieldsFunc(pattern, func(r rune) bool {
		return r == ' ' || r == ',' || r == '/' || r == ';' || r == '\t'
	})
	if len(tokens) == 0 {
		return 0, fmt.Errorf("%w: 空的星期字段", ErrInvalidWeekday)
	}

	var set WeekdaySet
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if d, ok := weekdayNames[lower]; ok {
			set = set.With(d)
			continue
		}
		parsed, err := parseCompactDays(lower)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, pattern)
		}
		set |= parsed
	}
	return set, nil
}

// parseCompactDays 贪心解析紧凑代码串，双字母代码优先
func parseCompactDays(s string) (WeekdaySet, error) {
	var set WeekdaySet
	for i := 0; i < len(s); {
		if i+2 <= len(s) {
			if d, ok := compactAliases[s[i:i+2]]; ok {
				set = set.With(d)
				i += 2
				continue
			}
		}
		d, ok := compactAliases[s[i:i+1]]
		if !ok {
			return 0, ErrInvalidWeekday
		}
		set = set.With(d)
		i++
	}
	return set, nil
}

// ExpandDates 返回 [start, end] 闭区间内落在 days 上的所有日期（按时间升序）
func ExpandDates(start, end time.Time, days WeekdaySet) []time.Time {
	start, end = civilDate(start), civilDate(end)
	if end.Before(start) || days.Empty() {
		return nil
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if days.Has(d.Weekday()) {
			dates = append(dates, d)
		}
	}
	return dates
}

// civilDate 截断为 UTC 零点，作为纯日期使用
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) string { return t.Format(time.DateOnly) }
