package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Site is a configured web site.
type Site struct {
	// Name is shown in statistics and search results.
	Name string `yaml:"name"`

	// URL is the site root, e.g. "https://example.com". A trailing slash is
	// removed by Normalize.
	URL string `yaml:"url"`
}

// Normalize trims whitespace and trailing slashes from the URL and defaults
// the name to the host.
func (s Site) Normalize() Site {
	s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = s.Host()
	}
	return s
}

// Validate checks that URL is an absolute http(s) URL without a path.
func (s Site) Validate() error {
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSiteURL, s.URL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSiteURL, s.URL)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%w: %q: site URL must not contain a path", ErrInvalidSiteURL, s.URL)
	}
	return nil
}

// Host returns the lowercase host (with port, if any) of the site URL.
func (s Site) Host() string {
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// MatchSite returns the site whose host equals the host of rawURL.
func MatchSite(sites []Site, rawURL string) (Site, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return Site{}, false
	}

	host := strings.ToLower(u.Host)
	for _, site := range sites {
		if site.Host() == host {
			return site, true
		}
	}
	return Site{}, false
}
