package model

import "strings"

// RootPath is the path of a site's home page.
const RootPath = "/"

// Page is the result of the last fetch attempt for one site-relative path.
// A page is unique per (SiteID, Path).
type Page struct {
	// ID is the storage identifier.
	ID int64 `json:"id"`

	// SiteID references the owning Site.
	SiteID int64 `json:"siteId"`

	// Path is relative to the site root and always starts with "/".
	Path string `json:"path"`

	// Code is the HTTP status of a successful fetch, or the failure
	// classification code of an unsuccessful one (-1 when unclassified).
	Code int `json:"code"`

	// Content is the rendered <head> and <body> of the document.
	// It is empty when the fetch failed.
	Content string `json:"-"`
}

// HasContent reports whether the page holds indexable content.
func (p *Page) HasContent() bool {
	return strings.TrimSpace(p.Content) != ""
}
