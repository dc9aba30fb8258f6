package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/sitesearch/internal/log"
	"github.com/spf13/cobra"
)

// NewIndexPageCmd creates the index-page command.
func NewIndexPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index-page <url>",
		Short: "Fetch and re-index a single page",
		Long: `Index-page fetches one page of a configured site, replaces its stored
copy and updates the lemma index. The page's links are not followed.

Examples:
  sitesearch index-page https://example.com/about`,
		Args: cobra.ExactArgs(1),
		RunE: runIndexPageCmd,
	}
}

func runIndexPageCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := a.orchestrator.IndexPage(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s (HTTP %d)\n", args[0], page.Code)
	return nil
}
