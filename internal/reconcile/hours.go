package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeOfDay 一天内的时刻（自零点起的秒数）
type TimeOfDay int

var timeOfDayLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
}

// ParseTimeOfDay 解析课表中的时间字段
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("无法解析时间: %q", s)
}

// NewTimeOfDay 由时分秒构造
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

func (t TimeOfDay) String() string {
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

var secondsPerHour = decimal.NewFromInt(3600)

// HoursFromInterval 计算单节课时长（小时）
// end 早于 start 视为 ErrInvalidInterval，不返回负数
func HoursFromInterval(start, end TimeOfDay) (decimal.Decimal, error) {
	if end < start {
		return decimal.Zero, fmt.Errorf("%w: %s-%s", ErrInvalidInterval, start, end)
	}
	return decimal.NewFromInt(int64(end - start)).Div(secondsPerHour), nil
}

// HoursFromScheduleMatch 汇总匹配课表行的时长并向上取整
//
// 先求和再取 ceil，单行匹配同样取整。
// 时间区间非法的行不计入总和，错误按行返回。
func HoursFromScheduleMatch(rows []ScheduleEntry) (int, []error) {
	total := decimal.Zero
	var errs []error
	for _, row := range rows {
		h, err := HoursFromInterval(row.StartTime, row.EndTime)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total = total.Add(h)
	}
	return int(total.Ceil().IntPart()), errs
}
