package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/service"
)

// writeReport 以指定格式输出核对报表
func writeReport(w io.Writer, report *reconcile.Report, format string) error {
	if format == formatTable {
		return writeTable(w, report)
	}

	file, err := service.RenderReport(report.Rows, format)
	if err != nil {
		return err
	}
	_, err = w.Write(file.Body)
	return err
}

func writeTable(w io.Writer, report *reconcile.Report) error {
	if len(report.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No faculty with hours in the selected window.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FACULTY NAME\tHOURS WORKED\tSTATUS")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.FacultyName, row.TotalHours.String(), service.StatusLabel(row.Status))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t\n", report.TotalHours().String())
	return tw.Flush()
}
