package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sitesearch"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .sitesearch configuration file.
// Zero values leave the corresponding Config defaults untouched.
type File struct {
	Sites      []Site            `yaml:"sites"`
	Connection ConnectionSection `yaml:"connection,omitempty"`
	Crawl      CrawlSection      `yaml:"crawl,omitempty"`
	Search     SearchSection     `yaml:"search,omitempty"`
	Server     ServerSection     `yaml:"server,omitempty"`
	Database   DatabaseSection   `yaml:"database,omitempty"`
}

// ConnectionSection configures HTTP fetches.
type ConnectionSection struct {
	UserAgent   string        `yaml:"userAgent,omitempty"`
	Referrer    string        `yaml:"referrer,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize int64         `yaml:"maxBodySize,omitempty"`
}

// CrawlSection configures crawl concurrency and politeness.
type CrawlSection struct {
	Parallelism   int   `yaml:"parallelism,omitempty"`
	IndexWorkers  int   `yaml:"indexWorkers,omitempty"`
	RespectRobots *bool `yaml:"respectRobots,omitempty"`
}

// SearchSection configures ranking and result presentation.
type SearchSection struct {
	FrequencyThreshold float64 `yaml:"frequencyThreshold,omitempty"`
	PruneMinPages      *int    `yaml:"pruneMinPages,omitempty"`
	SnippetSegments    int     `yaml:"snippetSegments,omitempty"`
	DefaultLimit       int     `yaml:"defaultLimit,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Address string `yaml:"address,omitempty"`
}

// DatabaseSection configures storage.
type DatabaseSection struct {
	Dir string `yaml:"dir,omitempty"`
}

// Apply copies every value set in the file onto cfg. Sites replace the
// configured list and are normalized.
func (cf *File) Apply(cfg *Config) {
	if len(cf.Sites) > 0 {
		cfg.Sites = make([]Site, len(cf.Sites))
		for i, site := range cf.Sites {
			cfg.Sites[i] = site.Normalize()
		}
	}

	if cf.Connection.UserAgent != "" {
		cfg.UserAgent = cf.Connection.UserAgent
	}
	if cf.Connection.Referrer != "" {
		cfg.Referrer = cf.Connection.Referrer
	}
	if cf.Connection.Timeout != 0 {
		cfg.Timeout = cf.Connection.Timeout
	}
	if cf.Connection.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.Connection.MaxBodySize
	}

	if cf.Crawl.Parallelism != 0 {
		cfg.Parallelism = cf.Crawl.Parallelism
	}
	if cf.Crawl.IndexWorkers != 0 {
		cfg.IndexWorkers = cf.Crawl.IndexWorkers
	}
	if cf.Crawl.RespectRobots != nil {
		cfg.RespectRobots = *cf.Crawl.RespectRobots
	}

	if cf.Search.FrequencyThreshold != 0 {
		cfg.FrequencyThreshold = cf.Search.FrequencyThreshold
	}
	if cf.Search.PruneMinPages != nil {
		cfg.PruneMinPages = *cf.Search.PruneMinPages
	}
	if cf.Search.SnippetSegments != 0 {
		cfg.SnippetSegments = cf.Search.SnippetSegments
	}
	if cf.Search.DefaultLimit != 0 {
		cfg.SearchLimit = cf.Search.DefaultLimit
	}

	if cf.Server.Address != "" {
		cfg.ListenAddress = cf.Server.Address
	}
	if cf.Database.Dir != "" {
		cfg.DBDir = cf.Database.Dir
	}
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sitesearch in the current directory
// 3. Look for .sitesearch in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
