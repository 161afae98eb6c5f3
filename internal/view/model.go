package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/port"
)

// Model ties the working set, view state and edit session together for
// one dashboard session. All methods are safe for concurrent use.
type Model struct {
	orch    *Orchestrator
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
	userID  string

	mu    sync.Mutex
	state State
	edit  EditSession
}

// NewModel builds an idle model; call Load to fetch the initial range.
func NewModel(store port.LedgerStore, userID string, rng domain.DateRange, metrics *observability.Metrics, logger *zap.Logger) *Model {
	return &Model{
		orch:    NewOrchestrator(store, userID, rng, metrics, logger),
		store:   store,
		metrics: metrics,
		logger:  logger,
		userID:  userID,
		state:   NewState(),
	}
}

// UserID is the ledger owner this session is scoped to.
func (m *Model) UserID() string { return m.userID }

// Load triggers the initial fetch.
func (m *Model) Load(ctx context.Context) { m.orch.Refresh(ctx) }

// Refresh re-fetches the current range.
func (m *Model) Refresh(ctx context.Context) { m.orch.Refresh(ctx) }

// SetRange switches the active range and fetches it.
func (m *Model) SetRange(ctx context.Context, rng domain.DateRange) error {
	return m.orch.SetRange(ctx, rng)
}

// SetQuery updates the filter query.
func (m *Model) SetQuery(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetQuery(q)
}

// SetPage updates the page cursor.
func (m *Model) SetPage(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.SetPage(n)
}

// SetPageSize updates the page size.
func (m *Model) SetPageSize(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SetPageSize(n)
}

// SortBy selects the sort column.
func (m *Model) SortBy(key domain.SortKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SortBy(key)
}

// State returns a copy of the current view state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Table derives the visible page from the latest installed set.
func (m *Model) Table() Page {
	m.mu.Lock()
	st := m.state
	m.mu.Unlock()

	snap := m.orch.Snapshot()
	return Derive(snap.Set, st)
}

// Summary recomputes chart-level aggregates from the raw records and
// overlays the server insights block for metrics that depend on history
// outside the fetched window.
func (m *Model) Summary() domain.Summary {
	snap := m.orch.Snapshot()
	s := Summarize(snap.Set)
	OverlayInsights(&s, snap.Insights)
	return s
}

// Status reports the orchestrator status and last error message.
func (m *Model) Status() (Status, string) {
	snap := m.orch.Snapshot()
	return snap.Status, snap.Err
}

// Snapshot exposes the raw orchestrator state.
func (m *Model) Snapshot() Snapshot { return m.orch.Snapshot() }

// BeginEdit starts an edit on a row of the current set, discarding any
// draft already in progress.
func (m *Model) BeginEdit(id string) error {
	snap := m.orch.Snapshot()
	if snap.Set != nil {
		for _, t := range snap.Set.Records {
			if t.ID == id {
				m.mu.Lock()
				m.edit.Begin(t)
				m.mu.Unlock()
				return nil
			}
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: id}
}

// UpdateDraft stages one field of the active draft.
func (m *Model) UpdateDraft(field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edit.Update(field, value)
}

// CancelEdit drops the draft without persisting it.
func (m *Model) CancelEdit() {
	m.mu.Lock()
	active := m.edit.Active()
	m.edit.Clear()
	m.mu.Unlock()
	if active {
		m.metrics.IncrEditOutcome("cancelled")
	}
}

// EditState reports the active target and draft.
func (m *Model) EditState() (id string, draft domain.Draft, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edit.TargetID(), m.edit.Draft(), m.edit.Active()
}

// SaveEdit persists the draft. Success clears the session and triggers
// exactly one authoritative refresh; failure leaves target and draft
// intact for correction or cancellation.
func (m *Model) SaveEdit(ctx context.Context) error {
	m.mu.Lock()
	if !m.edit.Active() {
		m.mu.Unlock()
		return &domain.ErrValidation{Field: "edit", Message: "no edit in progress"}
	}
	id := m.edit.TargetID()
	draft := m.edit.Draft()
	m.mu.Unlock()

	update := domain.TransactionUpdate{
		Category:    &draft.Category,
		Description: &draft.Description,
		Amount:      &draft.Amount,
		Kind:        &draft.Kind,
	}
	if err := m.store.UpdateTransaction(ctx, m.userID, id, update); err != nil {
		m.metrics.IncrEditOutcome("save_failed")
		m.logger.Warn("edit save failed",
			zap.String("user_id", m.userID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return err
	}

	m.mu.Lock()
	m.edit.Clear()
	m.mu.Unlock()
	m.metrics.IncrEditOutcome("saved")
	m.orch.Refresh(ctx)
	return nil
}

// Delete removes a row, independent of any edit session. The working set
// only changes through the authoritative reload that follows success.
func (m *Model) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteTransaction(ctx, m.userID, id); err != nil {
		m.metrics.IncrEditOutcome("delete_failed")
		m.logger.Warn("delete failed",
			zap.String("user_id", m.userID),
			zap.String("transaction_id", id),
			zap.Error(err),
		)
		return err
	}
	m.metrics.IncrEditOutcome("deleted")
	m.orch.Refresh(ctx)
	return nil
}

// OverlayInsights replaces the window-local cross-window fields with the
// server-computed ones when present.
func OverlayInsights(s *domain.Summary, server *domain.Insights) {
	if server == nil {
		return
	}
	s.Insights.MoMChangePct = server.MoMChangePct
	if server.SpendingVelocity != "" {
		s.Insights.SpendingVelocity = server.SpendingVelocity
	}
}
