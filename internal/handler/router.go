package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc *service.DashboardService, links *service.LinkService, botAPIKey string, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		r.Get("/metrics/snapshot", metricsSnapshotHandler(metrics))

		// Link minting, reachable by the bot only.
		r.Group(func(r chi.Router) {
			r.Use(BotKeyGuard(botAPIKey, logger))
			r.Post("/links", issueLinkHandler(links, logger))
		})

		// Everything below acts on behalf of a user, resolved from a
		// signed link token or an explicit user_id.
		r.Group(func(r chi.Router) {
			r.Use(UserResolver(links, logger))

			// =============================================
			// Live dashboard sessions
			// =============================================
			r.Post("/sessions", createSessionHandler(svc, logger))
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Delete("/", closeSessionHandler(svc, logger))
				r.Get("/table", sessionTableHandler(svc, logger))
				r.Get("/summary", sessionSummaryHandler(svc, logger))
				r.Get("/status", sessionStatusHandler(svc, logger))
				r.Put("/query", sessionQueryHandler(svc, logger))
				r.Put("/sort", sessionSortHandler(svc, logger))
				r.Put("/page", sessionPageHandler(svc, logger))
				r.Put("/page-size", sessionPageSizeHandler(svc, logger))
				r.Put("/range", sessionRangeHandler(svc, logger))
				r.Post("/refresh", sessionRefreshHandler(svc, logger))

				r.Post("/edit", beginEditHandler(svc, logger))
				r.Put("/edit", updateDraftHandler(svc, logger))
				r.Post("/edit/save", saveEditHandler(svc, logger))
				r.Delete("/edit", cancelEditHandler(svc, logger))

				r.Delete("/transactions/{txID}", sessionDeleteTxHandler(svc, logger))
			})

			// =============================================
			// One-shot payload and stateless mutations
			// =============================================
			r.Get("/users/{userID}/dashboard", getDashboardHandler(svc, logger))
			r.Put("/expenses/{expenseID}", updateExpenseHandler(svc, logger))
			r.Delete("/expenses/{expenseID}", deleteExpenseHandler(svc, logger))
			r.Post("/feature-requests", featureRequestHandler(svc, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "spendlens",
		})
	}
}
