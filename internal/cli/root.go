// Package cli 命令行核对入口
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timesheet-recon/backend/config"
	"timesheet-recon/backend/internal/app"
	"timesheet-recon/backend/internal/reconcile"
	"timesheet-recon/backend/internal/service"
	applogger "timesheet-recon/backend/pkg/logger"
)

const formatTable = "table"

var (
	configPath string
	fromDate   string
	toDate     string
	dryRun     bool
	format     string
	outPath    string
)

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile faculty timesheets against the institutional schedule",
	Long: `Run one reconciliation pass over every faculty member's timesheet.

Entries are matched against the schedule file configured under schedule.path.
Faculty whose hours all match are marked verified unless --dry-run is given.

Examples:
  reconcile
  reconcile --from 2024-01-01 --to 2024-01-31
  reconcile --dry-run --format csv --out report.csv`,
	SilenceUsage: true,
	RunE:         runReconcile,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ./config/config.yaml)")
	rootCmd.Flags().StringVar(&fromDate, "from", "", "window start date, YYYY-MM-DD")
	rootCmd.Flags().StringVar(&toDate, "to", "", "window end date, YYYY-MM-DD")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do not persist status changes")
	rootCmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, csv or xlsx")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	switch format {
	case formatTable, service.FormatCSV, service.FormatXLSX:
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	if format == service.FormatXLSX && outPath == "" {
		return fmt.Errorf("--out is required for xlsx output")
	}

	w, err := reconcile.ParseWindow(fromDate, toDate)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.Service.Finance.Run(ctx, w, service.RunOptions{
		Persist: !dryRun && cfg.Reconcile.PersistStatus,
	})
	if report != nil {
		writeDiagnostics(cmd.ErrOrStderr(), report)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	if err := writeReport(out, report, format); err != nil {
		return err
	}

	logger.Info("命令行核对完成",
		zap.Int("rows", len(report.Rows)),
		zap.Int("updates", len(report.Updates)),
		zap.Bool("applied", report.Applied),
	)
	return nil
}

// writeDiagnostics 按发现顺序输出诊断信息
func writeDiagnostics(w io.Writer, report *reconcile.Report) {
	for _, msg := range report.Messages() {
		fmt.Fprintln(w, msg)
	}
}
