package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/resilience"
	"github.com/kmenon/spendlens-go/internal/infra/supabase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return supabase.NewClient(
		srv.Client(),
		srv.URL,
		"anon-key",
		"service-key",
		"expense",
		resilience.NewCircuitBreaker("test"),
		nil,
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond},
		zap.NewNop(),
	)
}

func testRange() domain.DateRange {
	return domain.DateRange{
		Label: "Last 30 days",
		Start: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/expense") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Error("missing apikey header")
		}
		w.Write([]byte(`[
			{"id": 7, "user_id": 42, "created_at": "2026-08-10T09:30:00Z", "amount": 80.5, "type": "debit", "category": "food", "description": "lunch"},
			{"id": 8, "user_id": 42, "created_at": "2026-08-09", "amount": 200, "type": "credit", "category": "", "description": "refund"}
		]`))
	})

	got, err := client.FetchTransactions(context.Background(), "42", testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].ID != "7" {
		t.Errorf("expected numeric id mapped to '7', got %q", got[0].ID)
	}
	if got[0].Kind != domain.KindDebit || got[0].Amount != 80.5 {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].OccurredAt.IsZero() {
		t.Error("expected date-only created_at to parse via fallback")
	}
}

func TestFetchTransactionsMalformedTimestamp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 7, "user_id": 42, "created_at": "not-a-date", "amount": 80.5, "type": "debit", "category": "food", "description": "lunch"}
		]`))
	})

	got, err := client.FetchTransactions(context.Background(), "42", testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The row is kept rather than dropped; the bad timestamp only zeroes
	// the occurrence time.
	if len(got) != 1 || got[0].ID != "7" || got[0].Amount != 80.5 {
		t.Fatalf("expected the row preserved, got %+v", got)
	}
	if !got[0].OccurredAt.IsZero() {
		t.Errorf("expected zero time for malformed created_at, got %v", got[0].OccurredAt)
	}
}

func TestFetchTransactionsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	got, err := client.FetchTransactions(context.Background(), "42", testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %d records", len(got))
	}
}

func TestFetchTransactionsServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.FetchTransactions(context.Background(), "42", testRange())
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestFetchInsightsMissingRPC(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	ins, err := client.FetchInsights(context.Background(), "42", testRange())
	if err != nil {
		t.Fatalf("expected missing RPC to be tolerated, got %v", err)
	}
	if ins != nil {
		t.Errorf("expected nil insights, got %+v", ins)
	}
}

func TestFetchInsights(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "rpc/expense_insights") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"mom_change_pct": 12.5, "spending_velocity": "accelerating"}`))
	})

	ins, err := client.FetchInsights(context.Background(), "42", testRange())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ins == nil || ins.MoMChangePct != 12.5 {
		t.Errorf("unexpected insights: %+v", ins)
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		w.Write([]byte(`[]`))
	})

	amount := 12.5
	err := client.UpdateTransaction(context.Background(), "42", "999", domain.TransactionUpdate{Amount: &amount})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound for empty representation, got %v", err)
	}
}

func TestUpdateTransactionNoFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty update")
	})

	err := client.UpdateTransaction(context.Background(), "42", "7", domain.TransactionUpdate{})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if !strings.Contains(r.URL.RawQuery, "id=eq.7") || !strings.Contains(r.URL.RawQuery, "user_id=eq.42") {
			t.Errorf("expected id and user filters, got %s", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"id": 7}]`))
	})

	if err := client.DeleteTransaction(context.Background(), "42", "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitFeatureRequest(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{}]`))
	})

	err := client.SubmitFeatureRequest(context.Background(), &domain.FeatureRequest{Text: "dark mode", Username: "kmenon"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotBody, "dark mode") {
		t.Errorf("expected request body to carry the text, got %s", gotBody)
	}
}
