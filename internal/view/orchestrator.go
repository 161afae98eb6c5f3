package view

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/infra/observability"
	"github.com/kmenon/spendlens-go/internal/port"
)

// Status of the working set.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// Snapshot is a consistent read of the orchestrator state.
type Snapshot struct {
	Status   Status
	Err      string
	Range    domain.DateRange
	Set      *domain.TransactionSet
	Insights *domain.Insights
}

// Orchestrator owns the active (user, range) pair and replaces the
// working set wholesale when a fetch resolves. Every fetch carries a
// sequence number taken at issue time; only the response matching the
// latest issued sequence may install, so a slow superseded request can
// never overwrite a fresher result. Superseded responses are discarded
// on arrival; the underlying transport is not aborted.
type Orchestrator struct {
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
	userID  string

	mu       sync.Mutex
	seq      uint64
	status   Status
	errMsg   string
	rng      domain.DateRange
	set      *domain.TransactionSet
	insights *domain.Insights
}

// NewOrchestrator starts idle; the caller triggers the initial load.
func NewOrchestrator(store port.LedgerStore, userID string, rng domain.DateRange, metrics *observability.Metrics, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		metrics: metrics,
		logger:  logger,
		userID:  userID,
		status:  StatusIdle,
		rng:     rng,
	}
}

// SetRange validates and installs a new active range, then fetches it.
func (o *Orchestrator) SetRange(ctx context.Context, rng domain.DateRange) error {
	if err := rng.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.rng = rng
	seq := o.nextSeq()
	o.mu.Unlock()

	go o.fetch(context.WithoutCancel(ctx), seq, rng)
	return nil
}

// Refresh re-issues a fetch for the current range.
func (o *Orchestrator) Refresh(ctx context.Context) {
	o.mu.Lock()
	seq := o.nextSeq()
	rng := o.rng
	o.mu.Unlock()

	go o.fetch(context.WithoutCancel(ctx), seq, rng)
}

// nextSeq allocates the next sequence number and marks the view loading.
// Caller holds the lock.
func (o *Orchestrator) nextSeq() uint64 {
	o.seq++
	o.status = StatusLoading
	return o.seq
}

func (o *Orchestrator) fetch(ctx context.Context, seq uint64, rng domain.DateRange) {
	start := time.Now()

	var (
		records  []domain.Transaction
		insights *domain.Insights
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = o.store.FetchTransactions(gctx, o.userID, rng)
		return err
	})
	g.Go(func() error {
		// Server insights are optional; a failure falls back to
		// window-local metrics without failing the load.
		ins, err := o.store.FetchInsights(gctx, o.userID, rng)
		if err != nil {
			o.logger.Debug("insights fetch failed, using window-local metrics", zap.Error(err))
			return nil
		}
		insights = ins
		return nil
	})
	err := g.Wait()
	o.metrics.RecordFetchDuration("fetch_range", time.Since(start))

	o.mu.Lock()
	defer o.mu.Unlock()

	if seq != o.seq {
		o.metrics.IncrStaleFetch()
		o.logger.Debug("discarding superseded fetch",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", o.seq),
			zap.String("range", rng.Label),
		)
		return
	}

	if err != nil {
		// The previous set stays visible; only a failed initial load
		// leaves the view empty.
		o.status = StatusError
		o.errMsg = err.Error()
		o.metrics.IncrExternalError("ledger")
		o.logger.Warn("range fetch failed",
			zap.String("user_id", o.userID),
			zap.String("range", rng.Label),
			zap.Error(err),
		)
		return
	}

	o.set = &domain.TransactionSet{Range: rng, Records: records}
	o.insights = insights
	o.status = StatusIdle
	o.errMsg = ""
}

// Snapshot returns a consistent copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Status:   o.status,
		Err:      o.errMsg,
		Range:    o.rng,
		Set:      o.set,
		Insights: o.insights,
	}
}
