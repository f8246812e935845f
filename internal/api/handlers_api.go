package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/lox/skyline/internal/analysis"
	"github.com/lox/skyline/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":     "ok",
		"structures": s.engine.Dataset().Len(),
	})
}

func (s *Server) handleStructures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Dataset().Structures())
}

func (s *Server) handleHeights(w http.ResponseWriter, r *http.Request) {
	metric, mode, err := metricAndMode(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	view, err := s.engine.HeightBySelection(metric, mode, r.URL.Query()["key"])
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// handleHeightsRange defaults low to 0 and high to the bound ceiling.
func (s *Server) handleHeightsRange(w http.ResponseWriter, r *http.Request) {
	metric, mode, err := metricAndMode(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	low, err := intParam(r, "low", 0)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	high, err := intParam(r, "high", -1)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if r.URL.Query().Get("high") == "" {
		bound, err := s.engine.Bound(metric, mode)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		high = bound.Ceiling
	}

	view, err := s.engine.HeightByRange(metric, mode, low, high)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	metric, mode, err := metricAndMode(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	bound, err := s.engine.Bound(metric, mode)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, bound)
}

func (s *Server) handleCityAverage(w http.ResponseWriter, r *http.Request) {
	metric, err := metricParam(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	aggs, err := s.engine.AverageByCity(metric)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, aggs)
}

func (s *Server) handleCityCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.CityCounts())
}

func (s *Server) handleCityShare(w http.ResponseWriter, r *http.Request) {
	shares, err := s.engine.CityShares(r.URL.Query()["key"])
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, shares)
}

func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.engine.Completions())
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	st, ok := s.engine.Locate(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("no structure named %q", name))
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

var errBadParam = errors.New("bad parameter")

// metricParam reads ?metric=, defaulting to meters.
func metricParam(r *http.Request) (models.Metric, error) {
	v := r.URL.Query().Get("metric")
	if v == "" {
		return models.Meters, nil
	}
	return models.ParseMetric(v)
}

func metricAndMode(r *http.Request) (models.Metric, models.Mode, error) {
	metric, err := metricParam(r)
	if err != nil {
		return "", "", err
	}
	mode := models.ByName
	if v := r.URL.Query().Get("mode"); v != "" {
		if mode, err = models.ParseMode(v); err != nil {
			return "", "", err
		}
	}
	return metric, mode, nil
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadParam, name, v)
	}
	return n, nil
}

// writeEngineError maps engine errors to statuses. An empty selection is the
// caller's to correct, so it is a 400 with a prompt rather than a failure.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrSelectionRequired):
		writeError(w, r, http.StatusBadRequest, "Please select at least 1 building name or city")
	case errors.Is(err, models.ErrUnknownMetric),
		errors.Is(err, models.ErrUnknownMode),
		errors.Is(err, errBadParam):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, analysis.ErrEmptyDataset):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode %s: %v", r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}
