package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitesearch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitesearch",
		Short: "Crawl, index and search a fixed set of web sites",
		Long: `sitesearch crawls the web sites listed in its configuration file,
reduces every page to dictionary word forms (English and Russian) and
answers ranked searches over the resulting index.

Sites are configured in .sitesearch (current or home directory) or in the
file given with --config. Run "sitesearch init" to create one.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .sitesearch in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"Directory holding the index database (default: XDG data directory)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewIndexPageCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewVerifyCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
