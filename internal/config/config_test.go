package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default timeout", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != DefaultTimeout {
			t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
		}
	})

	t.Run("default user agent and referrer", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("expected user agent %q, got %q", DefaultUserAgent, cfg.UserAgent)
		}
		if cfg.Referrer != DefaultReferrer {
			t.Errorf("expected referrer %q, got %q", DefaultReferrer, cfg.Referrer)
		}
	})

	t.Run("default search tuning", func(t *testing.T) {
		t.Parallel()
		if cfg.FrequencyThreshold != DefaultFrequencyThreshold {
			t.Errorf("expected threshold %v, got %v", DefaultFrequencyThreshold, cfg.FrequencyThreshold)
		}
		if cfg.PruneMinPages != DefaultPruneMinPages {
			t.Errorf("expected prune minimum %d, got %d", DefaultPruneMinPages, cfg.PruneMinPages)
		}
		if cfg.SnippetSegments != DefaultSnippetSegments {
			t.Errorf("expected snippet segments %d, got %d", DefaultSnippetSegments, cfg.SnippetSegments)
		}
		if cfg.SearchLimit != DefaultSearchLimit {
			t.Errorf("expected search limit %d, got %d", DefaultSearchLimit, cfg.SearchLimit)
		}
	})

	t.Run("robots are ignored by default", func(t *testing.T) {
		t.Parallel()
		if cfg.RespectRobots {
			t.Error("expected RespectRobots to be false by default")
		}
	})

	t.Run("default database directory", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected db dir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("no sites", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Sites) != 0 {
			t.Errorf("expected no sites, got %d", len(cfg.Sites))
		}
	})
}

func validConfig() *Config {
	cfg := NewConfig()
	cfg.Sites = []Site{
		{Name: "Example", URL: "https://example.com"},
		{Name: "Blog", URL: "http://blog.example.org:8080"},
	}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "no sites", modify: func(c *Config) { c.Sites = nil }, wantErr: ErrNoSites},
		{
			name:    "relative site URL",
			modify:  func(c *Config) { c.Sites[0].URL = "example.com" },
			wantErr: ErrInvalidSiteURL,
		},
		{
			name:    "unsupported scheme",
			modify:  func(c *Config) { c.Sites[0].URL = "ftp://example.com" },
			wantErr: ErrInvalidSiteURL,
		},
		{
			name:    "site URL with path",
			modify:  func(c *Config) { c.Sites[0].URL = "https://example.com/docs" },
			wantErr: ErrInvalidSiteURL,
		},
		{
			name:    "duplicate site",
			modify:  func(c *Config) { c.Sites[1].URL = c.Sites[0].URL },
			wantErr: ErrDuplicateSite,
		},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "zero parallelism", modify: func(c *Config) { c.Parallelism = 0 }, wantErr: ErrInvalidParallelism},
		{name: "zero index workers", modify: func(c *Config) { c.IndexWorkers = 0 }, wantErr: ErrInvalidIndexWorkers},
		{name: "zero threshold", modify: func(c *Config) { c.FrequencyThreshold = 0 }, wantErr: ErrInvalidThreshold},
		{name: "threshold above one", modify: func(c *Config) { c.FrequencyThreshold = 1.5 }, wantErr: ErrInvalidThreshold},
		{name: "threshold of one", modify: func(c *Config) { c.FrequencyThreshold = 1 }},
		{name: "negative prune minimum", modify: func(c *Config) { c.PruneMinPages = -1 }, wantErr: ErrInvalidPruneMinPages},
		{name: "zero snippet segments", modify: func(c *Config) { c.SnippetSegments = 0 }, wantErr: ErrInvalidSnippetSegments},
		{name: "zero search limit", modify: func(c *Config) { c.SearchLimit = 0 }, wantErr: ErrInvalidSearchLimit},
		{
			name: "json and markdown",
			modify: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSiteForURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	tests := []struct {
		raw      string
		wantName string
		wantOK   bool
	}{
		{raw: "https://example.com/about", wantName: "Example", wantOK: true},
		{raw: "https://EXAMPLE.com/", wantName: "Example", wantOK: true},
		{raw: "http://example.com/news?id=1", wantName: "Example", wantOK: true},
		{raw: "http://blog.example.org:8080/post", wantName: "Blog", wantOK: true},
		{raw: "http://blog.example.org/post", wantOK: false},
		{raw: "https://other.com/", wantOK: false},
		{raw: "not a url", wantOK: false},
		{raw: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			site, ok := cfg.SiteForURL(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("SiteForURL(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && site.Name != tt.wantName {
				t.Errorf("SiteForURL(%q) = %q, want %q", tt.raw, site.Name, tt.wantName)
			}
		})
	}
}

func TestSiteNormalize(t *testing.T) {
	t.Parallel()

	site := Site{URL: " https://Example.com/ "}.Normalize()
	if site.URL != "https://Example.com" {
		t.Errorf("expected trailing slash removed, got %q", site.URL)
	}
	if site.Name != "example.com" {
		t.Errorf("expected name to default to host, got %q", site.Name)
	}

	named := Site{Name: " Docs ", URL: "https://docs.example.com"}.Normalize()
	if named.Name != "Docs" {
		t.Errorf("expected trimmed name, got %q", named.Name)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("apply overrides defaults", func(t *testing.T) {
		t.Parallel()

		content := `sites:
  - name: Example
    url: https://example.com/
  - url: https://docs.example.com
connection:
  userAgent: TestBot/2.0
  timeout: 15s
crawl:
  parallelism: 2
  respectRobots: true
search:
  frequencyThreshold: 0.5
  pruneMinPages: 25
  defaultLimit: 5
server:
  address: 127.0.0.1:9090
database:
  dir: /tmp/sitesearch-test
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}

		cfg := NewConfig()
		cf.Apply(cfg)

		if len(cfg.Sites) != 2 {
			t.Fatalf("expected 2 sites, got %d", len(cfg.Sites))
		}
		if cfg.Sites[0].URL != "https://example.com" {
			t.Errorf("expected normalized URL, got %q", cfg.Sites[0].URL)
		}
		if cfg.Sites[1].Name != "docs.example.com" {
			t.Errorf("expected default name, got %q", cfg.Sites[1].Name)
		}
		if cfg.UserAgent != "TestBot/2.0" {
			t.Errorf("expected user agent override, got %q", cfg.UserAgent)
		}
		if cfg.Referrer != DefaultReferrer {
			t.Errorf("expected default referrer kept, got %q", cfg.Referrer)
		}
		if cfg.Timeout != 15*time.Second {
			t.Errorf("expected 15s timeout, got %v", cfg.Timeout)
		}
		if cfg.Parallelism != 2 {
			t.Errorf("expected parallelism 2, got %d", cfg.Parallelism)
		}
		if cfg.IndexWorkers != DefaultIndexWorkers {
			t.Errorf("expected default index workers, got %d", cfg.IndexWorkers)
		}
		if !cfg.RespectRobots {
			t.Error("expected RespectRobots to be true")
		}
		if cfg.FrequencyThreshold != 0.5 {
			t.Errorf("expected threshold 0.5, got %v", cfg.FrequencyThreshold)
		}
		if cfg.PruneMinPages != 25 {
			t.Errorf("expected prune minimum 25, got %d", cfg.PruneMinPages)
		}
		if cfg.SnippetSegments != DefaultSnippetSegments {
			t.Errorf("expected default snippet segments, got %d", cfg.SnippetSegments)
		}
		if cfg.SearchLimit != 5 {
			t.Errorf("expected limit 5, got %d", cfg.SearchLimit)
		}
		if cfg.ListenAddress != "127.0.0.1:9090" {
			t.Errorf("expected address override, got %q", cfg.ListenAddress)
		}
		if cfg.DBDir != "/tmp/sitesearch-test" {
			t.Errorf("expected db dir override, got %q", cfg.DBDir)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected loaded config to validate: %v", err)
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit path exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("sites: []\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}
