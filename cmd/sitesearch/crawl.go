package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/sitesearch/internal/log"
	"github.com/nao1215/sitesearch/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Rebuild the index of every configured site",
		Long: `Crawl discards the stored pages of every configured site and crawls
them again from their root page, indexing each page as it is fetched.

Press Ctrl+C to stop early. Pages fetched so far stay indexed and the
unfinished sites are marked FAILED ("stopped by user").

Examples:
  # Crawl the sites from .sitesearch
  sitesearch crawl

  # Crawl with debug logging and print statistics as Markdown
  sitesearch crawl -v --markdown`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().Bool("json-logs", false, "Write logs as JSON")
	addReportFlags(cmd)

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
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

	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		return err
	}
	logger := log.NewServiceLogger(cmd.ErrOrStderr(), cfg.Verbose, jsonLogs)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := a.orchestrator.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start crawl: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Crawling %d sites...\n", len(cfg.Sites))

	select {
	case <-run.Done():
	case <-ctx.Done():
		logger.Warn("received shutdown signal, stopping crawl...")
		if err := stopRun(a); err != nil {
			return err
		}
	}

	runErr := run.Wait()
	fmt.Fprintf(out, "Crawl finished in %s\n\n", time.Since(run.StartedAt).Round(time.Millisecond))

	// ctx may already be cancelled by the signal.
	stats, err := a.stats.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	if err := writeReport(cfg, out, func(w report.Writer) error {
		_, err := w.WriteStatistics(stats)
		return err
	}); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return nil
}
