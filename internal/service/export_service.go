package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/reconcile"
)

// ── 报表导出错误 ──

var (
	ErrReportEmpty        = errors.New("所选日期区间内没有可导出的工时")
	ErrUnsupportedFormat  = errors.New("不支持的报表格式")
	ErrExportGenerateFail = errors.New("生成报表文件失败")
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	reportBaseName = "report_profiles"
	reportSheet    = "Report"
)

var reportHeader = []string{"Faculty Name", "Hours Worked", "Status"}

// ReportFile 待下载的报表文件
type ReportFile struct {
	ContentType string
	Filename    string
	Body        []byte
}

// StatusLabel 报表中的状态文字
func StatusLabel(s model.Status) string {
	if s == model.StatusVerified {
		return "Hours Matched"
	}
	return "Hours Unmatched"
}

// RenderReport 将核对结果渲染为 csv 或 xlsx；无数据行时返回 ErrReportEmpty
func RenderReport(rows []reconcile.Row, format string) (*ReportFile, error) {
	if len(rows) == 0 {
		return nil, ErrReportEmpty
	}
	switch format {
	case "", FormatCSV:
		return renderCSV(rows)
	case FormatXLSX:
		return renderXLSX(rows)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func renderCSV(rows []reconcile.Row) (*ReportFile, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(reportHeader)
	for _, r := range rows {
		_ = w.Write([]string{r.FacultyName, r.TotalHours.String(), StatusLabel(r.Status)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
	}
	return &ReportFile{
		ContentType: "text/csv; charset=utf-8",
		Filename:    reportBaseName + ".csv",
		Body:        buf.Bytes(),
	}, nil
}

func renderXLSX(rows []reconcile.Row) (*ReportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(reportSheet, "A", "A", 28)
	f.SetColWidth(reportSheet, "B", "B", 14)
	f.SetColWidth(reportSheet, "C", "C", 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	if err := f.SetSheetRow(reportSheet, "A1", &reportHeader); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
	}
	f.SetCellStyle(reportSheet, "A1", "C1", headerStyle)

	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{r.FacultyName, r.TotalHours.InexactFloat64(), StatusLabel(r.Status)}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportGenerateFail, err)
	}
	return &ReportFile{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Filename:    reportBaseName + ".xlsx",
		Body:        buf.Bytes(),
	}, nil
}
