// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the view-model
// and service layer from concrete implementations.
package port

import (
	"context"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// LedgerStore is the authoritative transaction backend. Implemented by
// the Supabase adapter (or any other persistence layer).
type LedgerStore interface {
	// FetchTransactions returns every record for the user inside the range.
	FetchTransactions(ctx context.Context, userID string, rng domain.DateRange) ([]domain.Transaction, error)

	// FetchInsights returns server-computed insight scalars for the range.
	// A nil result with nil error means the backend has none; callers fall
	// back to window-local metrics.
	FetchInsights(ctx context.Context, userID string, rng domain.DateRange) (*domain.Insights, error)

	// UpdateTransaction applies a partial update to one record owned by
	// the user.
	UpdateTransaction(ctx context.Context, userID, txID string, update domain.TransactionUpdate) error

	// DeleteTransaction removes one record owned by the user.
	DeleteTransaction(ctx context.Context, userID, txID string) error

	// SubmitFeatureRequest stores a free-text suggestion.
	SubmitFeatureRequest(ctx context.Context, req *domain.FeatureRequest) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
