// Package service composes the view-model into user-facing operations:
// live dashboard sessions, the stateless one-shot payload, and signed
// dashboard links for the bot.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/port"
	"github.com/kmenon/spendlens-go/internal/view"
)

var tracer = otel.Tracer("service")

// DashboardService owns live view-model sessions and the stateless
// one-shot dashboard payload consumed by the original UI.
type DashboardService struct {
	store    port.LedgerStore
	sessions port.Cache[*view.Model]
	payloads port.Cache[*domain.DashboardData]
	metrics  *observability.Metrics
	logger   *zap.Logger

	// versions keys the payload memo per user; bumping it on any
	// mutation makes stale entries unreachable, so the memo is a
	// performance detail, never a correctness input.
	verMu    sync.Mutex
	versions map[string]uint64
}

// NewDashboardService wires the service with its session registry and
// payload cache (in-memory or Redis, chosen by the caller).
func NewDashboardService(store port.LedgerStore, sessions port.Cache[*view.Model], payloads port.Cache[*domain.DashboardData], metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:    store,
		sessions: sessions,
		payloads: payloads,
		metrics:  metrics,
		logger:   logger,
		versions: map[string]uint64{},
	}
}

// CreateSession builds a view-model for (user, range), starts the
// initial load, and registers it under a fresh id.
func (s *DashboardService) CreateSession(ctx context.Context, userID string, rng domain.DateRange) (string, *view.Model, error) {
	if userID == "" {
		return "", nil, &domain.ErrValidation{Field: "user_id", Message: "required"}
	}
	if err := rng.Validate(); err != nil {
		return "", nil, err
	}

	model := view.NewModel(s.store, userID, rng, s.metrics, s.logger)
	model.Load(ctx)

	id := uuid.NewString()
	s.sessions.Set(id, model)
	s.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("user_id", userID),
		zap.String("range", rng.Label),
	)
	return id, model, nil
}

// Session resolves a live session id.
func (s *DashboardService) Session(id string) (*view.Model, error) {
	model, ok := s.sessions.Get(id)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "session", ID: id}
	}
	return model, nil
}

// CloseSession drops a session; expired ones age out via the cache TTL.
func (s *DashboardService) CloseSession(id string) {
	s.sessions.Delete(id)
}

// Invalidate makes every memoized payload for the user unreachable.
// Called after any mutation, session-scoped or stateless.
func (s *DashboardService) Invalidate(userID string) {
	s.verMu.Lock()
	defer s.verMu.Unlock()
	s.versions[userID]++
}

func (s *DashboardService) version(userID string) uint64 {
	s.verMu.Lock()
	defer s.verMu.Unlock()
	return s.versions[userID]
}

// BuildDashboard assembles the one-shot payload for (user, range).
func (s *DashboardService) BuildDashboard(ctx context.Context, userID string, rng domain.DateRange) (*domain.DashboardData, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.Build")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if userID == "" {
		return nil, &domain.ErrValidation{Field: "user_id", Message: "required"}
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("dashboard:%s:v%d:%d:%d",
		userID, s.version(userID), rng.Start.Unix(), rng.End.Unix())
	if data, ok := s.payloads.Get(key); ok {
		s.metrics.IncrCacheHit("dashboard")
		return data, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	start := time.Now()
	var (
		records   []domain.Transaction
		serverIns *domain.Insights
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.store.FetchTransactions(gctx, userID, rng)
		return err
	})
	g.Go(func() error {
		ins, err := s.store.FetchInsights(gctx, userID, rng)
		if err != nil {
			s.logger.Debug("insights fetch failed, using window-local metrics", zap.Error(err))
			return nil
		}
		serverIns = ins
		return nil
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrExternalError("ledger")
		s.metrics.IncrRequest("error")
		return nil, err
	}
	s.metrics.RecordFetchDuration("build_dashboard", time.Since(start))

	set := &domain.TransactionSet{Range: rng, Records: records}
	sum := view.Summarize(set)
	view.OverlayInsights(&sum, serverIns)

	labels := make([]string, 0, len(sum.MonthlySeries))
	values := make([]float64, 0, len(sum.MonthlySeries))
	for _, p := range sum.MonthlySeries {
		labels = append(labels, p.Label)
		values = append(values, p.Total)
	}

	data := &domain.DashboardData{
		UserID:         userID,
		Range:          rng,
		Expenses:       records,
		TotalRecords:   sum.TotalRecords,
		DebitTotal:     sum.DebitTotal,
		CreditTotal:    sum.CreditTotal,
		NetBalance:     sum.NetBalance,
		CategoryTotals: sum.CategoryTotals,
		TypeTotals:     sum.TypeTotals,
		MonthlyLabels:  labels,
		MonthlyValues:  values,
		Insights:       sum.Insights,
	}
	s.payloads.Set(key, data)
	s.metrics.IncrRequest("success")
	return data, nil
}

// UpdateExpense is the stateless mutation path for shells without a
// session.
func (s *DashboardService) UpdateExpense(ctx context.Context, userID, txID string, update domain.TransactionUpdate) error {
	if userID == "" {
		return &domain.ErrValidation{Field: "user_id", Message: "required"}
	}
	if err := s.store.UpdateTransaction(ctx, userID, txID, update); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

// DeleteExpense is the stateless delete path.
func (s *DashboardService) DeleteExpense(ctx context.Context, userID, txID string) error {
	if userID == "" {
		return &domain.ErrValidation{Field: "user_id", Message: "required"}
	}
	if err := s.store.DeleteTransaction(ctx, userID, txID); err != nil {
		return err
	}
	s.Invalidate(userID)
	return nil
}

// SubmitFeatureRequest forwards a free-text suggestion from the dashboard.
func (s *DashboardService) SubmitFeatureRequest(ctx context.Context, text, username string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &domain.ErrValidation{Field: "text", Message: "required"}
	}
	return s.store.SubmitFeatureRequest(ctx, &domain.FeatureRequest{Text: text, Username: username})
}
