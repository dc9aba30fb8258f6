package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/sitesearch/internal/model"
	"github.com/nao1215/sitesearch/internal/orchestrator"
	"github.com/nao1215/sitesearch/internal/search"
)

var (
	errMissingURL   = errors.New("url is required")
	errSearchFailed = errors.New("search failed")
	errStatistics   = errors.New("failed to compute statistics")
	errIndexPage    = errors.New("failed to index page")
	errInvalidParam = errors.New("offset and limit must be integers")
)

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Statistics(r.Context())
	if err != nil {
		s.logger.Error("statistics failed", "error", err)
		writeError(w, http.StatusInternalServerError, errStatistics)
		return
	}
	writeJSON(w, http.StatusOK, model.StatisticsEnvelope{Result: true, Statistics: stats})
}

func (s *Server) handleStartIndexing(w http.ResponseWriter, r *http.Request) {
	run, err := s.indexing.Start(r.Context())
	if err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err)
			return
		}
		s.logger.Error("start indexing failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("indexing started", "run", run.ID)
	writeOK(w)
}

func (s *Server) handleStopIndexing(w http.ResponseWriter, _ *http.Request) {
	if err := s.indexing.Stop(); err != nil {
		if errors.Is(err, orchestrator.ErrNotRunning) {
			writeError(w, http.StatusMethodNotAllowed, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeOK(w)
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.FormValue("url"))
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, errMissingURL)
		return
	}

	if _, err := s.indexing.IndexPage(r.Context(), rawURL); err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrOutsideSites):
			writeError(w, http.StatusBadRequest, orchestrator.ErrOutsideSites)
		case errors.Is(err, orchestrator.ErrInvalidURL):
			writeError(w, http.StatusBadRequest, orchestrator.ErrInvalidURL)
		default:
			s.logger.Error("index page failed", "url", rawURL, "error", err)
			writeError(w, http.StatusInternalServerError, errIndexPage)
		}
		return
	}
	writeOK(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidParam)
		return
	}
	limit, err := queryInt(q.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidParam)
		return
	}

	resp, err := s.searcher.Search(r.Context(), search.Request{
		Query:  q.Get("query"),
		Site:   q.Get("site"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, search.ErrEmptyQuery)
		case errors.Is(err, search.ErrIndexNotReady):
			writeError(w, http.StatusBadRequest, search.ErrIndexNotReady)
		default:
			s.logger.Error("search failed", "query", q.Get("query"), "error", err)
			writeError(w, http.StatusInternalServerError, errSearchFailed)
		}
		return
	}
	writeJSON(w, http.StatusOK, model.SearchEnvelope{Result: true, SearchResponse: resp})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // the client is gone if this fails
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"result": true})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, model.ErrorEnvelope{Result: false, Error: err.Error()})
}

// queryInt parses an optional integer query parameter.
func queryInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
