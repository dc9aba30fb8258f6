// Package config provides configuration structures and utilities for sitesearch.
// It defines the configured sites, crawl and connection settings, search
// tuning knobs and the HTTP server address, and loads them from the
// .sitesearch YAML file.
package config
