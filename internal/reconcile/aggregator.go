package reconcile

import (
	"github.com/shopspring/decimal"

	"timesheet-recon/backend/internal/model"
)

// Row 报表中的一行
type Row struct {
	FacultyName string
	TotalHours  decimal.Decimal
	Status      model.Status
}

// StatusUpdate 需要写回存储的状态变更
type StatusUpdate struct {
	FacultyName string
	From        model.Status
	To          model.Status
}

// Report 一次核对的完整结果
type Report struct {
	Window      Window
	Rows        []Row
	Diagnostics []Diagnostic
	Updates     []StatusUpdate
	Faculty     []*FacultyResult
	Aborted     bool // 存储错误中断，结果只含已完成的教师
	Applied     bool // Updates 已写回
}

// Aggregate 按教师原始顺序合并结果
//
// 未完成（nil）的结果直接跳过；总工时为 0 的教师不出现在 Rows 中，
// 但其诊断与状态变更照常保留。
func Aggregate(w Window, results []*FacultyResult) *Report {
	report := &Report{Window: w}
	for _, res := range results {
		if res == nil {
			continue
		}
		report.Faculty = append(report.Faculty, res)
		report.Diagnostics = append(report.Diagnostics, res.Diagnostics...)
		if res.TotalHours.IsPositive() {
			report.Rows = append(report.Rows, Row{
				FacultyName: res.FacultyName,
				TotalHours:  res.TotalHours,
				Status:      res.Status,
			})
		}
		if res.Status != res.InitialStatus {
			report.Updates = append(report.Updates, StatusUpdate{
				FacultyName: res.FacultyName,
				From:        res.InitialStatus,
				To:          res.Status,
			})
		}
	}
	return report
}

// Messages 诊断文本列表
func (r *Report) Messages() []string {
	out := make([]string, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

// TotalHours 报表中全部教师工时之和
func (r *Report) TotalHours() decimal.Decimal {
	sum := decimal.Zero
	for _, row := range r.Rows {
		sum = sum.Add(row.TotalHours)
	}
	return sum
}

// Result 按教师名查询核对结果
func (r *Report) Result(facultyName string) (*FacultyResult, bool) {
	for _, res := range r.Faculty {
		if res.FacultyName == facultyName {
			return res, true
		}
	}
	return nil, false
}
