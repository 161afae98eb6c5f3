package view_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/view"
)

func loadedModel(t *testing.T, store *fakeStore) *view.Model {
	t.Helper()
	r := rangeLabeled("r", 1)
	if _, ok := store.results["r"]; !ok {
		store.results["r"] = []domain.Transaction{
			{ID: "tx-1", Amount: 100, Kind: domain.KindDebit, Category: "food", Description: "lunch", OccurredAt: day(10)},
			{ID: "tx-2", Amount: 50, Kind: domain.KindCredit, Category: "salary", OccurredAt: day(11)},
		}
	}

	m := view.NewModel(store, "42", r, observability.NewMetrics(), zap.NewNop())
	m.Load(context.Background())
	waitFor(t, func() bool {
		status, _ := m.Status()
		return status == view.StatusIdle
	})
	return m
}

func TestModelTableAndSummary(t *testing.T) {
	m := loadedModel(t, newFakeStore())

	page := m.Table()
	if page.TotalFiltered != 2 {
		t.Errorf("expected 2 records, got %d", page.TotalFiltered)
	}

	s := m.Summary()
	if s.DebitTotal != 100 || s.CreditTotal != 50 {
		t.Errorf("unexpected summary totals: %+v", s)
	}
}

func TestModelBeginEditUnknownID(t *testing.T) {
	m := loadedModel(t, newFakeStore())

	err := m.BeginEdit("missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModelSaveEditSuccess(t *testing.T) {
	store := newFakeStore()
	m := loadedModel(t, store)
	before := store.fetchCount()

	if err := m.BeginEdit("tx-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.UpdateDraft("amount", "75"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.SaveEdit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, active := m.EditState(); active {
		t.Error("expected session cleared after successful save")
	}
	if len(store.updates) != 1 || store.updates[0] != "tx-1" {
		t.Errorf("expected one update for tx-1, got %v", store.updates)
	}

	// Exactly one authoritative refresh follows the save.
	waitFor(t, func() bool { return store.fetchCount() == before+1 })
}

func TestModelSaveEditFailureKeepsDraft(t *testing.T) {
	store := newFakeStore()
	m := loadedModel(t, store)
	store.updateErr = &domain.ErrExternalService{Service: "ledger", Err: errors.New("boom")}
	before := store.fetchCount()

	m.BeginEdit("tx-1")
	m.UpdateDraft("category", "dining")

	if err := m.SaveEdit(context.Background()); err == nil {
		t.Fatal("expected save error")
	}

	id, draft, active := m.EditState()
	if !active || id != "tx-1" {
		t.Error("expected session still open after failed save")
	}
	if draft.Category != "dining" {
		t.Errorf("expected rejected draft intact, got %q", draft.Category)
	}
	if store.fetchCount() != before {
		t.Error("expected no refresh after failed save")
	}
}

func TestModelSaveWithoutEdit(t *testing.T) {
	m := loadedModel(t, newFakeStore())
	if err := m.SaveEdit(context.Background()); err == nil {
		t.Fatal("expected error saving with no edit in progress")
	}
}

func TestModelCancelEdit(t *testing.T) {
	store := newFakeStore()
	m := loadedModel(t, store)
	before := store.fetchCount()

	m.BeginEdit("tx-1")
	m.CancelEdit()

	if _, _, active := m.EditState(); active {
		t.Error("expected session cleared after cancel")
	}
	if len(store.updates) != 0 {
		t.Error("expected no network call on cancel")
	}
	if store.fetchCount() != before {
		t.Error("expected no refresh on cancel")
	}
}

func TestModelDeleteTriggersRefresh(t *testing.T) {
	store := newFakeStore()
	m := loadedModel(t, store)
	before := store.fetchCount()

	if err := m.Delete(context.Background(), "tx-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.deletes) != 1 || store.deletes[0] != "tx-1" {
		t.Errorf("expected one delete for tx-1, got %v", store.deletes)
	}
	waitFor(t, func() bool { return store.fetchCount() == before+1 })
}

func TestModelDeleteFailureLeavesSet(t *testing.T) {
	store := newFakeStore()
	m := loadedModel(t, store)
	store.deleteErr = &domain.ErrExternalService{Service: "ledger", Err: errors.New("boom")}
	before := store.fetchCount()

	if err := m.Delete(context.Background(), "tx-1"); err == nil {
		t.Fatal("expected delete error")
	}
	if store.fetchCount() != before {
		t.Error("expected no refresh after failed delete")
	}
	if page := m.Table(); page.TotalFiltered != 2 {
		t.Error("expected set unchanged after failed delete")
	}
}

func TestModelQueryDrivesTable(t *testing.T) {
	m := loadedModel(t, newFakeStore())

	m.SetQuery("lunch")
	page := m.Table()
	if page.TotalFiltered != 1 || page.Records[0].ID != "tx-1" {
		t.Errorf("expected only the lunch record, got %+v", page.Records)
	}
}
