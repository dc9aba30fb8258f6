package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitesearch"

	// DefaultTimeout bounds a single page fetch, body included.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the crawler in HTTP requests.
	DefaultUserAgent = "SiteSearchBot/1.0 (+https://github.com/nao1215/sitesearch)"

	// DefaultReferrer is sent as the Referer header of every fetch.
	DefaultReferrer = "https://www.google.com"

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultParallelism is the number of concurrent fetches per site.
	DefaultParallelism = 8

	// DefaultIndexWorkers is the number of concurrent lemma upserts per page.
	DefaultIndexWorkers = 4

	// DefaultFrequencyThreshold is the share of a scope's pages above which a
	// query lemma is considered too common and dropped.
	DefaultFrequencyThreshold = 0.8

	// DefaultPruneMinPages is the scope size below which no lemma is dropped.
	// Zero prunes every scope, so the frequency threshold alone decides.
	DefaultPruneMinPages = 0

	// DefaultSnippetSegments is the number of matching text fragments per result.
	DefaultSnippetSegments = 3

	// DefaultSearchLimit is the page size of search results.
	DefaultSearchLimit = 20

	// DefaultListenAddress is the HTTP API address.
	DefaultListenAddress = ":8080"
)

// Config holds all configuration options for sitesearch.
// It is populated from defaults, then the configuration file, then CLI flags,
// and passed to components explicitly.
type Config struct {
	// Sites are the web sites to crawl and search, in configuration order.
	Sites []Site

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Referrer is the Referer header sent with HTTP requests.
	Referrer string

	// Timeout is the deadline for a single page fetch.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// Parallelism is the number of concurrent fetches within one site.
	Parallelism int

	// IndexWorkers is the number of concurrent lemma upserts per page.
	IndexWorkers int

	// RespectRobots makes the crawler obey robots.txt. Off by default.
	RespectRobots bool

	// FrequencyThreshold drops query lemmas present on more than this share
	// of the pages in scope. Must be in (0, 1].
	FrequencyThreshold float64

	// PruneMinPages disables frequency pruning for scopes with fewer pages.
	PruneMinPages int

	// SnippetSegments is the maximum number of fragments in a snippet.
	SnippetSegments int

	// SearchLimit is the default number of results per search page.
	SearchLimit int

	// ListenAddress is the address the HTTP API listens on.
	ListenAddress string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/sitesearch on Linux).
	DBDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .sitesearch is searched in the current and home directories.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport selects JSON output for reporting commands.
	JSONReport bool

	// MarkdownReport selects Markdown output for reporting commands.
	MarkdownReport bool

	// ReportFile is the path to write reports to. Empty means stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values and no sites.
func NewConfig() *Config {
	return &Config{
		UserAgent:          DefaultUserAgent,
		Referrer:           DefaultReferrer,
		Timeout:            DefaultTimeout,
		MaxBodySize:        DefaultMaxBodySize,
		Parallelism:        DefaultParallelism,
		IndexWorkers:       DefaultIndexWorkers,
		FrequencyThreshold: DefaultFrequencyThreshold,
		PruneMinPages:      DefaultPruneMinPages,
		SnippetSegments:    DefaultSnippetSegments,
		SearchLimit:        DefaultSearchLimit,
		ListenAddress:      DefaultListenAddress,
		DBDir:              XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitesearch.
// On Linux: ~/.local/share/sitesearch
// On macOS: ~/Library/Application Support/sitesearch
// On Windows: %LOCALAPPDATA%\sitesearch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitesearch.
// On Linux: ~/.config/sitesearch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSites
	}

	seen := make(map[string]bool, len(c.Sites))
	for _, site := range c.Sites {
		if err := site.Validate(); err != nil {
			return err
		}
		if seen[site.URL] {
			return fmt.Errorf("%w: %s", ErrDuplicateSite, site.URL)
		}
		seen[site.URL] = true
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Parallelism <= 0 {
		return ErrInvalidParallelism
	}

	if c.IndexWorkers <= 0 {
		return ErrInvalidIndexWorkers
	}

	if c.FrequencyThreshold <= 0 || c.FrequencyThreshold > 1 {
		return ErrInvalidThreshold
	}

	if c.PruneMinPages < 0 {
		return ErrInvalidPruneMinPages
	}

	if c.SnippetSegments <= 0 {
		return ErrInvalidSnippetSegments
	}

	if c.SearchLimit <= 0 {
		return ErrInvalidSearchLimit
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// SiteURLs returns the URLs of the configured sites in order.
func (c *Config) SiteURLs() []string {
	urls := make([]string, len(c.Sites))
	for i, site := range c.Sites {
		urls[i] = site.URL
	}
	return urls
}

// SiteForURL returns the configured site whose host matches rawURL.
func (c *Config) SiteForURL(rawURL string) (Site, bool) {
	return MatchSite(c.Sites, rawURL)
}
