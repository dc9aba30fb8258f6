package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/sitesearch/internal/api"
	"github.com/nao1215/sitesearch/internal/log"
	"github.com/nao1215/sitesearch/internal/orchestrator"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search HTTP API",
		Long: `Serve starts the HTTP API used to control indexing and run searches.

Routes:
  GET  /api/statistics
  GET  /api/startIndexing
  GET  /api/stopIndexing
  POST /api/indexPage   (form field "url")
  GET  /api/search?query=...&site=...&offset=...&limit=...

On SIGINT or SIGTERM a running crawl is stopped and the server shuts down
gracefully.

Examples:
  # Serve on the configured address (default :8080)
  sitesearch serve

  # Serve on another address with JSON logs
  sitesearch serve -a 127.0.0.1:9000 --json-logs`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("address", "a", "",
		"Listen address (default: server.address from the config file, or :8080)")
	cmd.Flags().Bool("json-logs", false, "Write logs as JSON")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	address, err := cmd.Flags().GetString("address")
	if err != nil {
		return err
	}
	if address != "" {
		cfg.ListenAddress = address
	}

	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
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

	return serve(ctx, a)
}

// serve runs the API until ctx is done, then stops any crawl in progress
// and waits for its final statuses to be written.
func serve(ctx context.Context, a *app) error {
	srv := api.NewServer(a.orchestrator, a.engine, a.stats, api.WithLogger(a.logger))

	serveErr := srv.ListenAndServe(ctx, a.cfg.ListenAddress)
	stopErr := stopRun(a)
	return errors.Join(serveErr, stopErr)
}

// stopRun stops the run in progress, if any, and waits for it to finish.
func stopRun(a *app) error {
	run := a.orchestrator.Current()
	if run == nil {
		return nil
	}

	if err := a.orchestrator.Stop(); err != nil && !errors.Is(err, orchestrator.ErrNotRunning) {
		return err
	}
	a.logger.Info("waiting for crawl to stop", "run", run.ID)
	return run.Wait()
}
