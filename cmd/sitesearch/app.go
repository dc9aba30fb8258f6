package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/sitesearch/internal/config"
	"github.com/nao1215/sitesearch/internal/crawler"
	"github.com/nao1215/sitesearch/internal/database"
	"github.com/nao1215/sitesearch/internal/indexer"
	"github.com/nao1215/sitesearch/internal/lemma"
	"github.com/nao1215/sitesearch/internal/orchestrator"
	"github.com/nao1215/sitesearch/internal/search"
	"github.com/nao1215/sitesearch/internal/stats"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getStringFlag retrieves a string flag from the command or the root's
// persistent flags.
func getStringFlag(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// loadConfig builds a Config from defaults, the configuration file and the
// global flags. It does not validate.
//
// If the user explicitly specified a config file that does not exist, an
// error is returned. Otherwise a missing file leaves the defaults in place.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = getStringFlag(cmd, "config")
	cfg.Verbose = getVerboseFlag(cmd)

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if dbDir := getStringFlag(cmd, "db-dir"); dbDir != "" {
		cfg.DBDir = dbDir
	}

	return cfg, nil
}

// app holds the components shared by the commands.
type app struct {
	cfg          *config.Config
	db           *database.SearchDB
	orchestrator *orchestrator.Orchestrator
	engine       *search.Engine
	stats        *stats.Service
	logger       *slog.Logger
}

// newApp opens the database and wires every component from cfg.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	lemmatizer := lemma.New(lemma.WithLogger(logger))

	fetcher := crawler.NewFetcher(
		crawler.NewHTTPClient(cfg.Timeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithReferrer(cfg.Referrer),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	)

	frontier := crawler.NewFrontier(
		fetcher,
		db,
		indexer.New(db, lemmatizer,
			indexer.WithWorkers(cfg.IndexWorkers),
			indexer.WithLogger(logger),
		),
		crawler.WithParallelism(cfg.Parallelism),
		crawler.WithRespectRobots(cfg.RespectRobots),
		crawler.WithLogger(logger),
	)

	orch := orchestrator.New(db, frontier, cfg.Sites, orchestrator.WithLogger(logger))

	engine := search.New(db, lemmatizer, cfg.Sites,
		search.WithLogger(logger),
		search.WithFrequencyThreshold(cfg.FrequencyThreshold),
		search.WithPruneMinPages(cfg.PruneMinPages),
		search.WithSnippetSegments(cfg.SnippetSegments),
		search.WithDefaultLimit(cfg.SearchLimit),
	)

	return &app{
		cfg:          cfg,
		db:           db,
		orchestrator: orch,
		engine:       engine,
		stats:        stats.NewService(db, orch, cfg.Sites),
		logger:       logger,
	}, nil
}

// Close releases the database.
func (a *app) Close() error {
	return a.db.Close()
}
