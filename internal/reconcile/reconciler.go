package reconcile

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"timesheet-recon/backend/internal/model"
)

// Store 引擎依赖的存储能力
type Store interface {
	CourseLookup
	// ListFaculty 返回全部教师，顺序稳定
	ListFaculty(ctx context.Context) ([]FacultyRecord, error)
	// SetStatus 更新状态，返回是否实际发生变化
	SetStatus(ctx context.Context, username string, status model.Status) (bool, error)
}

// Options 核对选项
type Options struct {
	Policy       StatusPolicy
	Workers      int  // <= 0 时取 GOMAXPROCS
	ApplyUpdates bool // 核对成功后写回状态变更
}

// Reconciler 核对引擎入口
type Reconciler struct {
	store  Store
	opts   Options
	logger *zap.Logger
}

// New 创建 Reconciler
func New(store Store, opts Options, logger *zap.Logger) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, opts: opts, logger: logger}
}

// Run 对全部教师执行一次核对
//
// 教师之间并发处理，结果按 ListFaculty 的顺序输出。
// 出现存储错误时返回 Aborted=true 的部分报表及错误，此时不写回任何状态。
func (r *Reconciler) Run(ctx context.Context, index *ScheduleIndex, w Window) (*Report, error) {
	start := time.Now()

	records, err := r.store.ListFaculty(ctx)
	if err != nil {
		if !errors.Is(err, ErrStorageUnavailable) {
			err = storageError("查询教师列表", err)
		}
		r.logger.Error("查询教师列表失败", zap.Error(err))
		return &Report{Window: w, Aborted: true}, err
	}

	matcher := NewMatcher(index, r.store, r.opts.Policy, r.logger)
	results := make([]*FacultyResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, rec := range records {
		g.Go(func() error {
			res, err := matcher.Match(gctx, rec, w)
			if err != nil {
				return fmt.Errorf("核对教师 %s: %w", rec.Username, err)
			}
			results[i] = res
			return nil
		})
	}
	err = g.Wait()

	report := Aggregate(w, results)
	if err != nil {
		report.Aborted = true
		r.logger.Error("核对中断",
			zap.Int("completed", len(report.Faculty)),
			zap.Int("faculty", len(records)),
			zap.Error(err),
		)
		return report, err
	}

	if r.opts.ApplyUpdates {
		for _, u := range report.Updates {
			if _, err := r.store.SetStatus(ctx, u.FacultyName, u.To); err != nil {
				if !errors.Is(err, ErrStorageUnavailable) {
					err = storageError("写回状态", err)
				}
				r.logger.Error("写回状态失败", zap.String("faculty", u.FacultyName), zap.Error(err))
				return report, err
			}
		}
		report.Applied = true
	}

	r.logger.Info("核对完成",
		zap.Int("faculty", len(records)),
		zap.Int("rows", len(report.Rows)),
		zap.Int("updates", len(report.Updates)),
		zap.Int("diagnostics", len(report.Diagnostics)),
		zap.Bool("applied", report.Applied),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
