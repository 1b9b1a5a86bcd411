package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jing2uo/tsanalyst/analysis"
	"github.com/jing2uo/tsanalyst/model"
	"github.com/jing2uo/tsanalyst/utils"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	code, err := utils.Classify(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"code":   code.String(),
		"market": string(code.Market),
	})
}

type analysisResponse struct {
	Report  *analysis.Report           `json:"report"`
	Request *analysis.NarrativeRequest `json:"request,omitempty"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	horizon := model.Horizon(r.URL.Query().Get("horizon"))
	if horizon == "" {
		horizon = model.HorizonNextDay
	}
	if !horizon.Valid() {
		s.writeError(w, http.StatusBadRequest, "horizon must be next_day, week or month")
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}

	resp := analysisResponse{Report: report}
	if report.OK() {
		req, err := analysis.NewRequest(report, horizon, r.URL.Query().Get("style"))
		if err == nil {
			resp.Request = req
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.analyzer.Series(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeAnalyzeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, series.Rows())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	hits, err := s.analyzer.Search(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if hits == nil {
		hits = []model.BasicInfo{}
	}
	s.writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotImplemented, "history requires a database")
		return
	}
	code, err := utils.Classify(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 30
	}

	records, err := s.history.QuerySnapshots(r.Context(), code.String(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []model.SnapshotRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	code, err := utils.Classify(chi.URLParam(r, "code"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := s.cache.InvalidateCode(code.String())
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":    code.String(),
		"evicted": n,
	})
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, err error) {
	var ce *utils.ClassifyError
	switch {
	case errors.As(err, &ce):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNoData):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
