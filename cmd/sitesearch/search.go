package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/sitesearch/internal/log"
	"github.com/nao1215/sitesearch/internal/report"
	"github.com/nao1215/sitesearch/internal/search"
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the index",
		Long: `Search ranks the indexed pages containing every word of the query.

Words are reduced to their dictionary forms, so "cats" also finds "cat".
Very common words are ignored when enough pages are indexed.

Examples:
  # Search every configured site
  sitesearch search leopards hunting

  # Search one site and show the second page of ten results
  sitesearch search --site https://example.com --offset 10 --limit 10 leopards

  # Output JSON in the same shape as the HTTP API
  sitesearch search --json leopards`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("site", "s", "", "Restrict the search to one configured site URL")
	cmd.Flags().Int("offset", 0, "Number of ranked results to skip")
	cmd.Flags().IntP("limit", "l", 0,
		"Maximum number of results (default: search.defaultLimit from the config file, or 20)")
	addReportFlags(cmd)

	return cmd
}

func runSearchCmd(cmd *cobra.Command, args []string) error {
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

	req := search.Request{Query: strings.Join(args, " ")}
	if req.Site, err = cmd.Flags().GetString("site"); err != nil {
		return err
	}
	if req.Offset, err = cmd.Flags().GetInt("offset"); err != nil {
		return err
	}
	if req.Limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.engine.Search(cmd.Context(), req)
	if err != nil {
		return err
	}

	return writeReport(cfg, cmd.OutOrStdout(), func(w report.Writer) error {
		_, err := w.WriteSearch(req.Query, resp)
		return err
	})
}
