// Package api exposes indexing, search and statistics over HTTP.
//
// Routes:
//
//	GET  /api/statistics
//	GET  /api/startIndexing
//	GET  /api/stopIndexing
//	POST /api/indexPage       form value "url"
//	GET  /api/search          query, site, offset, limit
//
// Every response is JSON with a boolean "result"; rejections carry an
// "error" message and a 4xx status, unexpected failures a 500.
package api
