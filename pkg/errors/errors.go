package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrRunInProgress 已有核对任务在执行，且会写回状态
var ErrRunInProgress = errors.New("已有核对任务正在执行，请稍后重试")
