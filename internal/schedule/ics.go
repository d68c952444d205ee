package schedule

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"timesheet-recon/backend/internal/reconcile"
)

// ── ICS 导入 ──
//
// 每个 VEVENT 对应一条课表行：
//   - SUMMARY → 课程代码，LOCATION → 教室
//   - ORGANIZER 的 CN（或 DESCRIPTION 中的 "Instructor:" 行）→ 教师
//   - DTSTART/DTEND → 首次上课日期与时间段
//   - RRULE 的 BYDAY → 星期集合（缺省取 DTSTART 的星期），UNTIL/COUNT → 结束日期
//   - 无 RRULE 的单次事件：起止日期相同

var icsDayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

// LoadICS 解析 iCalendar 课表，loc 为浮动时间所在时区
func LoadICS(r io.Reader, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	out := &Schedule{Source: "ics"}
	for i, evt := range cal.Events() {
		entry, err := parseCourseEvent(evt, loc)
		if err != nil {
			out.Skipped = append(out.Skipped, SkippedRow{Line: i + 1, Reason: err.Error()})
			continue
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func parseCourseEvent(evt *ics.VEvent, loc *time.Location) (reconcile.ScheduleEntry, error) {
	subject := propValue(evt, ics.ComponentPropertySummary)
	if subject == "" {
		return reconcile.ScheduleEntry{}, errors.New("缺少 SUMMARY")
	}
	instructor := eventInstructor(evt)
	if instructor == "" {
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: 缺少教师信息", subject)
	}

	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: %w", subject, err)
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: %w", subject, err)
	}

	entry := reconcile.ScheduleEntry{
		Instructor: instructor,
		CourseCode: subject,
		Room:       propValue(evt, ics.ComponentPropertyLocation),
		StartDate:  civil(dtStart),
		EndDate:    civil(dtStart),
		StartTime:  reconcile.NewTimeOfDay(dtStart.Hour(), dtStart.Minute(), dtStart.Second()),
		EndTime:    reconcile.NewTimeOfDay(dtEnd.Hour(), dtEnd.Minute(), dtEnd.Second()),
		Weekdays:   reconcile.NewWeekdaySet(dtStart.Weekday()),
	}

	rruleProp := evt.GetProperty(ics.ComponentPropertyRrule)
	if rruleProp == nil {
		return entry, nil
	}

	rule := parseRRule(rruleProp.Value)
	if rule.freq != "WEEKLY" {
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: 不支持的重复频率 %q", subject, rule.freq)
	}
	if rule.interval > 1 {
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: 不支持 INTERVAL=%d", subject, rule.interval)
	}
	if !rule.byDay.Empty() {
		entry.Weekdays = rule.byDay
	}

	switch {
	case !rule.until.IsZero():
		entry.EndDate = civil(rule.until.In(loc))
	case rule.count > 0:
		entry.EndDate = nthOccurrence(entry.StartDate, entry.Weekdays, rule.count)
	default:
		return reconcile.ScheduleEntry{}, fmt.Errorf("%s: RRULE 缺少 UNTIL/COUNT", subject)
	}
	return entry, nil
}

// eventInstructor ORGANIZER;CN=... 优先，其次 DESCRIPTION 中的 "Instructor: xxx"
func eventInstructor(evt *ics.VEvent) string {
	if prop := evt.GetProperty(ics.ComponentPropertyOrganizer); prop != nil {
		for k, v := range prop.ICalParameters {
			if strings.EqualFold(k, "CN") && len(v) > 0 && strings.TrimSpace(v[0]) != "" {
				return strings.TrimSpace(v[0])
			}
		}
	}
	desc := propValue(evt, ics.ComponentPropertyDescription)
	desc = strings.ReplaceAll(desc, `\n`, "\n")
	for _, line := range strings.Split(desc, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > len("instructor:") && strings.EqualFold(line[:len("instructor:")], "instructor:") {
			return strings.TrimSpace(line[len("instructor:"):])
		}
	}
	return ""
}

func propValue(evt *ics.VEvent, name ics.ComponentProperty) string {
	if prop := evt.GetProperty(name); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

// nthOccurrence 从 start 起第 n 次上课的日期
func nthOccurrence(start time.Time, days reconcile.WeekdaySet, n int) time.Time {
	d := start
	for seen := 0; ; d = d.AddDate(0, 0, 1) {
		if days.Has(d.Weekday()) {
			seen++
			if seen == n {
				return d
			}
		}
	}
}

func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
	byDay    reconcile.WeekdaySet
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;BYDAY=TU,TH;UNTIL=20240301T235959Z）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "FREQ":
			r.freq = strings.ToUpper(kv[1])
		case "INTERVAL":
			if n, err := strconv.Atoi(kv[1]); err == nil {
				r.interval = n
			}
		case "COUNT":
			if n, err := strconv.Atoi(kv[1]); err == nil {
				r.count = n
			}
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", kv[1])
			if err != nil {
				t, _ = time.Parse("20060102", kv[1])
			}
			r.until = t
		case "BYDAY":
			for _, code := range strings.Split(kv[1], ",") {
				code = strings.ToUpper(strings.TrimSpace(code))
				// 去掉序数前缀，如 "1MO"
				if len(code) > 2 {
					code = code[len(code)-2:]
				}
				if d, ok := icsDayCodes[code]; ok {
					r.byDay = r.byDay.With(d)
				}
			}
		}
	}
	return r
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("缺少 %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
