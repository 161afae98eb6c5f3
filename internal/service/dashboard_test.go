package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/cache"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/port"
	"github.com/kmenon/spendlens-go/internal/service"
	"github.com/kmenon/spendlens-go/internal/view"
)

type stubStore struct {
	mu       sync.Mutex
	records  []domain.Transaction
	fetchErr error
	fetches  int

	updates  []string
	deletes  []string
	features []*domain.FeatureRequest
}

func (s *stubStore) FetchTransactions(ctx context.Context, userID string, rng domain.DateRange) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.records, nil
}

func (s *stubStore) FetchInsights(ctx context.Context, userID string, rng domain.DateRange) (*domain.Insights, error) {
	return nil, nil
}

func (s *stubStore) UpdateTransaction(ctx context.Context, userID, txID string, update domain.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, txID)
	return nil
}

func (s *stubStore) DeleteTransaction(ctx context.Context, userID, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, txID)
	return nil
}

func (s *stubStore) SubmitFeatureRequest(ctx context.Context, req *domain.FeatureRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, req)
	return nil
}

func (s *stubStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func newService(store port.LedgerStore) *service.DashboardService {
	return service.NewDashboardService(
		store,
		cache.New[*view.Model](time.Minute),
		cache.New[*domain.DashboardData](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func augustRange() domain.DateRange {
	return domain.DateRange{
		Label: "Last 30 days",
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndResolveSession(t *testing.T) {
	store := &stubStore{records: []domain.Transaction{
		{ID: "1", Amount: 10, Kind: domain.KindDebit, Category: "food",
			OccurredAt: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newService(store)

	id, model, err := svc.CreateSession(context.Background(), "42", augustRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" || model == nil {
		t.Fatal("expected session id and model")
	}

	got, err := svc.Session(id)
	if err != nil || got != model {
		t.Errorf("expected the same model back, got %v (%v)", got, err)
	}

	svc.CloseSession(id)
	if _, err := svc.Session(id); err == nil {
		t.Error("expected closed session to be gone")
	}
}

func TestSessionUnknownID(t *testing.T) {
	svc := newService(&stubStore{})
	_, err := svc.Session("nope")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc := newService(&stubStore{})

	if _, _, err := svc.CreateSession(context.Background(), "", augustRange()); err == nil {
		t.Error("expected error for missing user id")
	}

	bad := augustRange()
	bad.Start, bad.End = bad.End, bad.Start
	if _, _, err := svc.CreateSession(context.Background(), "42", bad); err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestBuildDashboardPayload(t *testing.T) {
	store := &stubStore{records: []domain.Transaction{
		{ID: "1", Amount: 100, Kind: domain.KindDebit, Category: "food",
			OccurredAt: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "2", Amount: 500, Kind: domain.KindCredit, Category: "salary",
			OccurredAt: time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)},
	}}
	svc := newService(store)

	data, err := svc.BuildDashboard(context.Background(), "42", augustRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.UserID != "42" || data.TotalRecords != 2 {
		t.Errorf("unexpected payload header: %+v", data)
	}
	if data.DebitTotal != 100 || data.CreditTotal != 500 || data.NetBalance != 400 {
		t.Errorf("unexpected totals: %+v", data)
	}
	if len(data.MonthlyLabels) != len(data.MonthlyValues) {
		t.Error("expected aligned monthly label/value slices")
	}
	if data.MonthlyLabels[0] != "Aug 2026" {
		t.Errorf("unexpected first month label %q", data.MonthlyLabels[0])
	}
	if len(data.Insights.DayOfWeekPattern) != 7 {
		t.Errorf("expected weekday pattern in the payload, got %v", data.Insights.DayOfWeekPattern)
	}
}

func TestBuildDashboardMemoizes(t *testing.T) {
	store := &stubStore{}
	svc := newService(store)

	if _, err := svc.BuildDashboard(context.Background(), "42", augustRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.BuildDashboard(context.Background(), "42", augustRange()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := store.fetchCount(); n != 1 {
		t.Errorf("expected one upstream fetch for a repeated build, got %d", n)
	}
}

func TestMutationInvalidatesPayload(t *testing.T) {
	store := &stubStore{}
	svc := newService(store)

	svc.BuildDashboard(context.Background(), "42", augustRange())
	if err := svc.UpdateExpense(context.Background(), "42", "tx-1", domain.TransactionUpdate{
		Category: strPtr("dining"),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.BuildDashboard(context.Background(), "42", augustRange())

	if n := store.fetchCount(); n != 2 {
		t.Errorf("expected refetch after mutation, got %d fetches", n)
	}
	if len(store.updates) != 1 || store.updates[0] != "tx-1" {
		t.Errorf("expected one update for tx-1, got %v", store.updates)
	}
}

func TestDeleteExpenseInvalidates(t *testing.T) {
	store := &stubStore{}
	svc := newService(store)

	svc.BuildDashboard(context.Background(), "42", augustRange())
	if err := svc.DeleteExpense(context.Background(), "42", "tx-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.BuildDashboard(context.Background(), "42", augustRange())

	if n := store.fetchCount(); n != 2 {
		t.Errorf("expected refetch after delete, got %d fetches", n)
	}
}

func TestBuildDashboardFetchError(t *testing.T) {
	store := &stubStore{fetchErr: &domain.ErrExternalService{Service: "ledger", Err: errors.New("boom")}}
	svc := newService(store)

	_, err := svc.BuildDashboard(context.Background(), "42", augustRange())
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestSubmitFeatureRequest(t *testing.T) {
	store := &stubStore{}
	svc := newService(store)

	if err := svc.SubmitFeatureRequest(context.Background(), "  dark mode  ", "kavya"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.features) != 1 || store.features[0].Text != "dark mode" {
		t.Errorf("expected trimmed request forwarded, got %+v", store.features)
	}

	if err := svc.SubmitFeatureRequest(context.Background(), "   ", "kavya"); err == nil {
		t.Error("expected error for blank text")
	}
}

func strPtr(s string) *string { return &s }
