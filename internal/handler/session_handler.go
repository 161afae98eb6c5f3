package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/service"
	"github.com/kmenon/spendlens-go/internal/view"
)

// ============================================================
// Live dashboard sessions
// ============================================================

type sessionResponse struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Range     string `json:"range"`
}

type statusResponse struct {
	Status view.Status `json:"status"`
	Error  string      `json:"error,omitempty"`
}

func createSessionHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions")
		defer span.End()

		rng, err := rangeFromRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		id, model, err := svc.CreateSession(ctx, UserIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{
			SessionID: id,
			UserID:    model.UserID(),
			Range:     rng.Label,
		})
	}
}

// sessionModel resolves the session from the URL or writes the error.
func sessionModel(w http.ResponseWriter, r *http.Request, svc *service.DashboardService, logger *zap.Logger) (*view.Model, bool) {
	model, err := svc.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		handleServiceError(w, err, logger)
		return nil, false
	}
	return model, true
}

func sessionTableHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/sessions/{sessionID}/table")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, model.Table())
	}
}

func sessionSummaryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/sessions/{sessionID}/summary")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, model.Summary())
	}
}

func sessionStatusHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		status, errMsg := model.Status()
		writeJSON(w, http.StatusOK, statusResponse{Status: status, Error: errMsg})
	}
}

func sessionQueryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		model.SetQuery(body.Query)
		writeJSON(w, http.StatusOK, model.Table())
	}
}

func sessionSortHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			Key domain.SortKey `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := model.SortBy(body.Key); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, model.Table())
	}
}

func sessionPageHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			Page int `json:"page"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		model.SetPage(body.Page)
		writeJSON(w, http.StatusOK, model.Table())
	}
}

func sessionPageSizeHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			PageSize int `json:"page_size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := model.SetPageSize(body.PageSize); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, model.Table())
	}
}

func sessionRangeHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sessions/{sessionID}/range")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		rng, err := rangeFromRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := model.SetRange(ctx, rng); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status, errMsg := model.Status()
		writeJSON(w, http.StatusAccepted, statusResponse{Status: status, Error: errMsg})
	}
}

func sessionRefreshHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions/{sessionID}/refresh")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		model.Refresh(ctx)
		status, errMsg := model.Status()
		writeJSON(w, http.StatusAccepted, statusResponse{Status: status, Error: errMsg})
	}
}

// ============================================================
// Edit session
// ============================================================

type editStateResponse struct {
	Active   bool         `json:"active"`
	TargetID string       `json:"target_id,omitempty"`
	Draft    domain.Draft `json:"draft"`
}

func editState(model *view.Model) editStateResponse {
	id, draft, active := model.EditState()
	return editStateResponse{Active: active, TargetID: id, Draft: draft}
}

func beginEditHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := model.BeginEdit(body.ID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, editState(model))
	}
}

func updateDraftHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		var body struct {
			Field string `json:"field"`
			Value string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := model.UpdateDraft(body.Field, body.Value); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, editState(model))
	}
}

func saveEditHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sessions/{sessionID}/edit/save")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		if err := model.SaveEdit(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		svc.Invalidate(model.UserID())
		status, errMsg := model.Status()
		writeJSON(w, http.StatusOK, statusResponse{Status: status, Error: errMsg})
	}
}

func cancelEditHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		model.CancelEdit()
		writeJSON(w, http.StatusOK, editState(model))
	}
}

func sessionDeleteTxHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sessions/{sessionID}/transactions/{txID}")
		defer span.End()

		model, ok := sessionModel(w, r, svc, logger)
		if !ok {
			return
		}
		if err := model.Delete(ctx, chi.URLParam(r, "txID")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		svc.Invalidate(model.UserID())
		w.WriteHeader(http.StatusNoContent)
	}
}

func closeSessionHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.CloseSession(chi.URLParam(r, "sessionID"))
		w.WriteHeader(http.StatusNoContent)
	}
}
