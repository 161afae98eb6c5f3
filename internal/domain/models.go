// Package domain holds the core types of the transaction view-model:
// ledger records, date ranges, sort specs, and derived summaries.
package domain

import (
	"strings"
	"time"
)

// TxKind distinguishes money leaving the ledger from money entering it.
type TxKind string

const (
	KindDebit  TxKind = "debit"
	KindCredit TxKind = "credit"
)

// Valid reports whether k is one of the two known kinds.
func (k TxKind) Valid() bool {
	return k == KindDebit || k == KindCredit
}

// Transaction is one ledger entry ingested by the chat bot.
// Amount is a non-negative magnitude; the sign is derived from Kind.
// A fetched transaction is never mutated in place — edits go through a
// draft and an authoritative refetch.
type Transaction struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Kind        TxKind    `json:"type"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"created_at"`
}

// DisplayCategory is the label shown and searched for this record.
// The stored category may stay empty; only the presentation falls back.
func (t Transaction) DisplayCategory() string {
	if strings.TrimSpace(t.Category) == "" {
		return "Uncategorized"
	}
	return t.Category
}

// SignedAmount puts debits and credits on one comparable axis:
// debits negative, credits positive.
func (t Transaction) SignedAmount() float64 {
	if t.Kind == KindDebit {
		return -t.Amount
	}
	return t.Amount
}

// TransactionSet is the working copy for one fetched range. It is
// replaced wholesale on every successful fetch, never merged or patched.
type TransactionSet struct {
	Range   DateRange     `json:"range"`
	Records []Transaction `json:"records"`
}

// SortKey selects the table column to order by.
type SortKey string

const (
	SortByDate     SortKey = "date"
	SortByAmount   SortKey = "amount"
	SortByCategory SortKey = "category"
	SortByMerchant SortKey = "merchant"
)

// Valid reports whether k names a sortable column.
func (k SortKey) Valid() bool {
	switch k {
	case SortByDate, SortByAmount, SortByCategory, SortByMerchant:
		return true
	}
	return false
}

// SortDirection is the comparator polarity.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec pairs a column with a direction.
type SortSpec struct {
	Key       SortKey       `json:"key"`
	Direction SortDirection `json:"direction"`
}

// DefaultSort is newest-first, the order the table opens with.
func DefaultSort() SortSpec {
	return SortSpec{Key: SortByDate, Direction: SortDesc}
}

// Draft is the unsaved edited copy of one transaction's editable fields.
type Draft struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Kind        TxKind  `json:"type"`
}

// TransactionUpdate carries a partial update. Nil fields are left
// unchanged by the backend.
type TransactionUpdate struct {
	Category    *string  `json:"category,omitempty"`
	Description *string  `json:"description,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Kind        *TxKind  `json:"type,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u TransactionUpdate) Empty() bool {
	return u.Category == nil && u.Description == nil && u.Amount == nil && u.Kind == nil
}

// FeatureRequest is a free-text suggestion submitted from the dashboard.
type FeatureRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}
