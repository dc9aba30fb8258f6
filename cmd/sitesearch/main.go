// Package main provides the entry point for the sitesearch CLI.
//
// sitesearch crawls a fixed set of web sites, builds a lemma index of their
// pages and answers ranked full-text searches over that index.
//
// Usage:
//
//	sitesearch serve
//	sitesearch crawl
//	sitesearch search <query>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
