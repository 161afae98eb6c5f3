package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/service"
)

// ============================================================
// One-shot dashboard payload and stateless mutations
// ============================================================

func getDashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userID}/dashboard")
		defer span.End()

		userID := chi.URLParam(r, "userID")
		span.SetAttributes(attribute.String("user.id", userID))
		if resolved := UserIDFromContext(ctx); resolved != userID {
			writeError(w, http.StatusUnauthorized, "token does not match requested user")
			return
		}

		rng, err := rangeFromRequest(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		data, err := svc.BuildDashboard(ctx, userID, rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

func updateExpenseHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/expenses/{expenseID}")
		defer span.End()

		var body struct {
			Category    *string        `json:"category"`
			Description *string        `json:"description"`
			Amount      *float64       `json:"amount"`
			Kind        *domain.TxKind `json:"type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		update := domain.TransactionUpdate{
			Category:    body.Category,
			Description: body.Description,
			Amount:      body.Amount,
			Kind:        body.Kind,
		}
		err := svc.UpdateExpense(ctx, UserIDFromContext(ctx), chi.URLParam(r, "expenseID"), update)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteExpenseHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/expenses/{expenseID}")
		defer span.End()

		err := svc.DeleteExpense(ctx, UserIDFromContext(ctx), chi.URLParam(r, "expenseID"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func featureRequestHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/feature-requests")
		defer span.End()

		var body struct {
			Text     string `json:"text"`
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := svc.SubmitFeatureRequest(ctx, body.Text, body.Username); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "received"})
	}
}

// ============================================================
// Signed dashboard links (bot only)
// ============================================================

func issueLinkHandler(links *service.LinkService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		link, err := links.IssueLink(body.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"url": link})
	}
}

// ============================================================
// Operational endpoints
// ============================================================

func metricsSnapshotHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
