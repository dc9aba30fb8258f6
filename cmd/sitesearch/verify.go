package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/log"
	"github.com/spf13/cobra"
)

// errIndexInconsistent makes verify exit non-zero.
var errIndexInconsistent = errors.New("index is inconsistent")

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check lemma frequencies against the index",
		Long: `Verify lists every lemma whose stored frequency differs from the number
of pages that reference it. The command exits with a non-zero status when
any lemma is listed. Run it while no crawl is in progress.`,
		Args: cobra.NoArgs,
		RunE: runVerifyCmd,
	}
}

func runVerifyCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	drifts, err := db.InconsistentLemmas(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(drifts) == 0 {
		fmt.Fprintln(out, "Index is consistent.")
		return nil
	}

	for _, d := range drifts {
		fmt.Fprintf(out, "site %d lemma %q: frequency %d, pages %d\n",
			d.Lemma.SiteID, d.Lemma.Lemma, d.Lemma.Frequency, d.Entries)
	}
	return fmt.Errorf("%w: %d lemmas drifted", errIndexInconsistent, len(drifts))
}
