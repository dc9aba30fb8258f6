package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/sitesearch/internal/log"
	"github.com/nao1215/sitesearch/internal/report"
	"github.com/spf13/cobra"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Stats prints the number of pages and lemmas stored for every configured
site together with the status of its last crawl. Sites that were never
crawled are shown as WAIT.

Examples:
  sitesearch stats
  sitesearch stats --markdown -o report/stats.md`,
		Args: cobra.NoArgs,
		RunE: runStatsCmd,
	}

	addReportFlags(cmd)

	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.stats.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}

	return writeReport(cfg, cmd.OutOrStdout(), func(w report.Writer) error {
		_, err := w.WriteStatistics(stats)
		return err
	})
}
