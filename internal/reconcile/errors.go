package reconcile

import (
	"errors"
	"fmt"
)

// ── 核对引擎错误 ──
//
// 除 ErrStorageUnavailable 外均为单条/单行级错误，由引擎就地降级为诊断信息，
// 不会中断整次核对。

var (
	ErrMalformedEntry     = errors.New("工时记录格式错误")
	ErrNoScheduleMatch    = errors.New("课表中无匹配记录")
	ErrInvalidInterval    = errors.New("结束时间早于开始时间")
	ErrInvalidWeekday     = errors.New("无效的星期代码")
	ErrInvalidWindow      = errors.New("无效的日期区间")
	ErrStorageUnavailable = errors.New("存储不可用")
)

// MalformedEntryError 单条工时记录解析失败的详情
type MalformedEntryError struct {
	Field  string // date | hoursWorked | courseCode
	Value  string
	Reason string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("%s: %s=%q %s", ErrMalformedEntry, e.Field, e.Value, e.Reason)
}

func (e *MalformedEntryError) Unwrap() error { return ErrMalformedEntry }

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
