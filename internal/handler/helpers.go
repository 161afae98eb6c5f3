package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// rangeFromRequest resolves the date range from query parameters: either
// a named preset (?range=30d) or an explicit ?start=...&end=... pair.
// Dates accept RFC3339 or plain YYYY-MM-DD; a date-only end is extended
// to the end of that day so the range stays inclusive.
func rangeFromRequest(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	if preset := q.Get("range"); preset != "" {
		return domain.PresetRange(preset, time.Now())
	}

	startStr, endStr := q.Get("start"), q.Get("end")
	if startStr == "" && endStr == "" {
		return domain.PresetRange(domain.Preset30Days, time.Now())
	}
	if startStr == "" || endStr == "" {
		return domain.DateRange{}, &domain.ErrValidation{Field: "range", Message: "start and end must be given together"}
	}

	start, _, err := parseDate(startStr)
	if err != nil {
		return domain.DateRange{}, &domain.ErrValidation{Field: "start", Message: err.Error()}
	}
	end, dateOnly, err := parseDate(endStr)
	if err != nil {
		return domain.DateRange{}, &domain.ErrValidation{Field: "end", Message: err.Error()}
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return domain.CustomRange(start, end)
}

func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, errors.New("expected RFC3339 or YYYY-MM-DD")
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &external):
		logger.Error("upstream failure", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
