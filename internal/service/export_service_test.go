package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"timesheet-recon/backend/internal/model"
	"timesheet-recon/backend/internal/reconcile"
)

func TestRenderReport_Empty(t *testing.T) {
	if _, err := RenderReport(nil, FormatCSV); !errors.Is(err, ErrReportEmpty) {
		t.Errorf("期望 ErrReportEmpty，实际: %v", err)
	}
}

func TestRenderReport_DefaultsToCSV(t *testing.T) {
	rows := []reconcile.Row{
		{FacultyName: "Doe, Jane", TotalHours: decimal.RequireFromString("7.5"), Status: model.StatusUnverified},
	}

	file, err := RenderReport(rows, "")
	if err != nil {
		t.Fatalf("RenderReport 失败: %v", err)
	}
	if !strings.HasPrefix(file.ContentType, "text/csv") {
		t.Errorf("期望 text/csv，实际: %s", file.ContentType)
	}
	body := string(file.Body)
	if !strings.Contains(body, `"Doe, Jane",7.5,Hours Unmatched`) {
		t.Errorf("含逗号的姓名应加引号，实际:\n%s", body)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(model.StatusVerified); got != "Hours Matched" {
		t.Errorf("期望 Hours Matched，实际: %s", got)
	}
	if got := StatusLabel(""); got != "Hours Unmatched" {
		t.Errorf("期望 Hours Unmatched，实际: %s", got)
	}
}
