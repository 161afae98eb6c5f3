package view

import (
	"math"
	"strconv"
	"strings"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// EditSession stages changes to at most one transaction. Beginning an
// edit on another row implicitly discards the previous draft without
// persisting it. The session only ever touches its draft; the working
// set is replaced by the authoritative refetch that follows a save.
type EditSession struct {
	targetID string
	draft    domain.Draft
}

// Active reports whether an edit is in progress.
func (e *EditSession) Active() bool { return e.targetID != "" }

// TargetID is the id of the row being edited, empty when inactive.
func (e *EditSession) TargetID() string { return e.targetID }

// Draft returns the staged field values.
func (e *EditSession) Draft() domain.Draft { return e.draft }

// Begin seeds the draft from the record's current values.
func (e *EditSession) Begin(tx domain.Transaction) {
	e.targetID = tx.ID
	e.draft = domain.Draft{
		Category:    tx.Category,
		Description: tx.Description,
		Amount:      tx.Amount,
		Kind:        tx.Kind,
	}
}

// Update stages one field. Invalid values are rejected before any network
// call and the prior draft value is kept.
func (e *EditSession) Update(field, value string) error {
	if !e.Active() {
		return &domain.ErrValidation{Field: "edit", Message: "no edit in progress"}
	}

	switch field {
	case "category":
		e.draft.Category = value
	case "description":
		e.draft.Description = value
	case "amount":
		a, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
			return &domain.ErrValidation{Field: "amount", Message: "must be a finite non-negative number"}
		}
		e.draft.Amount = a
	case "type":
		kind := domain.TxKind(strings.ToLower(strings.TrimSpace(value)))
		if !kind.Valid() {
			return &domain.ErrValidation{Field: "type", Message: "must be debit or credit"}
		}
		e.draft.Kind = kind
	default:
		return &domain.ErrValidation{Field: field, Message: "unknown editable field"}
	}
	return nil
}

// Clear drops the draft without persisting it.
func (e *EditSession) Clear() {
	e.targetID = ""
	e.draft = domain.Draft{}
}
