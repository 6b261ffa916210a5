package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/offercache"
)

// batchSize bounds the pending offers refreshed per pass.
const batchSize = 100

// PendingSource lists cached offers whose replace has not completed.
type PendingSource interface {
	ListPending(ctx context.Context, accountName string, limit int) ([]offercache.Entry, error)
}

// OfferReader re-reads an offer from its backend and refreshes the cache.
type OfferReader interface {
	ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error)
}

// Console receives the completion notice of a pending replace.
type Console interface {
	Info(ctx context.Context, msg string)
}

// Result summarizes one reconciliation pass.
type Result struct {
	Pending int
	Failed  int
	Settled int
}

// Reconciler polls offers with a pending replace until the backend reports
// the replace as complete.
type Reconciler struct {
	source      PendingSource
	reader      OfferReader
	console     Console
	metrics     *metrics.Metrics
	acct        account.Context
	interval    time.Duration
	concurrency int
}

// New creates a new Reconciler. console and m may be nil.
func New(source PendingSource, reader OfferReader, console Console, m *metrics.Metrics, acct account.Context, interval time.Duration, concurrency int) *Reconciler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reconciler{
		source:      source,
		reader:      reader,
		console:     console,
		metrics:     m,
		acct:        acct,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Start begins the reconciliation loop. It blocks until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	slog.Info("reconciler started", "interval", r.interval.String(), "account", r.acct.AccountName)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes every pending offer of the account once.
func (r *Reconciler) RunOnce(ctx context.Context) Result {
	entries, err := r.source.ListPending(ctx, r.acct.AccountName, batchSize)
	if err != nil {
		slog.Error("reconciler: failed to list pending offers", "error", err)
		return Result{}
	}

	var failed, settled atomic.Int64
	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i := range entries {
		e := &entries[i]
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			done, err := r.reconcileOne(ctx, e)
			switch {
			case err != nil:
				failed.Add(1)
			case done:
				settled.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Pending: len(entries), Failed: int(failed.Load()), Settled: int(settled.Load())}
	r.metrics.RecordReconcile(result.Pending, result.Failed, result.Settled)
	return result
}

func (r *Reconciler) reconcileOne(ctx context.Context, e *offercache.Entry) (bool, error) {
	res := e.Resource()
	current, err := r.reader.ReadOffer(ctx, r.acct, res, e.OfferID)
	if err != nil {
		slog.Warn("reconciler: failed to read offer",
			"database", e.DatabaseID,
			"collection", e.CollectionID,
			"error", err,
		)
		return false, err
	}

	if current.OfferReplacePending {
		return false, nil
	}

	slog.Info("reconciler: offer replace completed",
		"database", e.DatabaseID,
		"collection", e.CollectionID,
		"mode", current.Mode,
		"throughput", current.Throughput(),
	)
	if r.console != nil {
		r.console.Info(ctx, fmt.Sprintf("Throughput update for %s completed", res))
	}
	return true, nil
}
