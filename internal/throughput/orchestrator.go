package throughput

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/arm"
	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/offercache"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
)

// OfferClient is the data-plane surface used by the orchestrator.
type OfferClient interface {
	ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error)
	ReplaceOffer(ctx context.Context, acct account.Context, current *offer.Offer, update offer.Update, opts sdk.ReplaceOptions) (*offer.Offer, error)
	ReadDatabase(ctx context.Context, acct account.Context, databaseID string) error
	CreateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error
	ReadCollection(ctx context.Context, acct account.Context, res offer.Resource) error
	CreateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error
}

// Console receives user-facing notifications.
type Console interface {
	Info(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Progress(ctx context.Context, msg string) func()
}

// OfferStore persists the canonical offer after each successful write.
type OfferStore interface {
	Upsert(ctx context.Context, e *offercache.Entry) error
}

// UpdateOfferParams describes one offer write.
type UpdateOfferParams struct {
	Resource offer.Resource
	// CurrentOffer is the last known offer. The data plane needs it to
	// replace; when nil it is read first.
	CurrentOffer           *offer.Offer
	ManualThroughput       *int
	AutoscaleMaxThroughput *int
	ThroughputBuckets      []offer.ThroughputBucket
	MigrateToAutoscale     bool
	MigrateToManual        bool
}

// Intent returns the migration requested by the params.
func (p UpdateOfferParams) Intent() Intent {
	switch {
	case p.MigrateToAutoscale:
		return IntentToAutoscale
	case p.MigrateToManual:
		return IntentToManual
	}
	return IntentNone
}

func (p UpdateOfferParams) update() offer.Update {
	return offer.Update{
		Provisioning: offer.Provisioning{
			ManualThroughput:       p.ManualThroughput,
			AutoscaleMaxThroughput: p.AutoscaleMaxThroughput,
		},
		ThroughputBuckets: p.ThroughputBuckets,
	}
}

// Validate checks the params before any backend call.
func (p UpdateOfferParams) Validate() error {
	if p.Resource.DatabaseID == "" {
		return fmt.Errorf("%w: database id is required", offer.ErrInvalidOffer)
	}
	if p.MigrateToAutoscale && p.MigrateToManual {
		return ErrConflictingMigration
	}
	if p.CurrentOffer != nil && p.CurrentOffer.OfferReplacePending {
		return ErrReplacePending
	}
	if p.Intent().IsMigration() {
		return nil
	}
	u := p.update()
	if !u.IsSet() {
		return ErrNoThroughput
	}
	return u.Validate()
}

// Orchestrator issues offer writes through the selected backend and returns
// the canonical resulting offer.
type Orchestrator struct {
	families *Registry
	sdk      OfferClient
	console  Console
	store    OfferStore
	metrics  *metrics.Metrics
}

// NewOrchestrator creates an orchestrator. sdkClient, store and m may be nil.
func NewOrchestrator(families *Registry, sdkClient OfferClient, console Console, store OfferStore, m *metrics.Metrics) *Orchestrator {
	if families == nil {
		families = NewRegistry()
	}
	if console == nil {
		console = nopConsole{}
	}
	return &Orchestrator{
		families: families,
		sdk:      sdkClient,
		console:  console,
		store:    store,
		metrics:  m,
	}
}

// Commit writes the tracker's draft. The tracker's commit guard is held for
// the whole call, and the baseline is replaced only on success.
func (o *Orchestrator) Commit(ctx context.Context, acct account.Context, res offer.Resource, tracker *settings.Tracker) (*offer.Offer, error) {
	c, err := tracker.BeginCommit()
	if err != nil {
		return nil, err
	}

	var result *offer.Offer
	defer func() { tracker.EndCommit(result) }()

	params := UpdateOfferParams{
		Resource:     res,
		CurrentOffer: c.Offer,
	}
	switch Decide(c.Draft.Autoscale, c.Baseline.Autoscale) {
	case IntentToAutoscale:
		params.MigrateToAutoscale = true
	case IntentToManual:
		params.MigrateToManual = true
	default:
		if c.Draft.Autoscale {
			v := c.Draft.AutoscaleMaxThroughput
			params.AutoscaleMaxThroughput = &v
		} else {
			v := c.Draft.ManualThroughput
			params.ManualThroughput = &v
		}
		params.ThroughputBuckets = c.Draft.ThroughputBuckets
	}

	result, err = o.UpdateOffer(ctx, acct, params)
	return result, err
}

// UpdateOffer performs exactly one write and, when the write does not return
// the final state, one follow-up read.
func (o *Orchestrator) UpdateOffer(ctx context.Context, acct account.Context, p UpdateOfferParams) (*offer.Offer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	backend := Select(acct, p.Resource.Kind())
	intent := p.Intent()
	start := time.Now()

	done := o.console.Progress(ctx, fmt.Sprintf("Updating offer for %s", p.Resource))
	defer done()

	var (
		result *offer.Offer
		err    error
	)
	if backend == BackendManagementAPI {
		result, err = o.updateManagement(ctx, acct, p)
	} else {
		result, err = o.updateDataPlane(ctx, acct, p)
	}
	o.metrics.RecordCommit(string(backend), string(intent), time.Since(start), err == nil)

	if err != nil {
		if IsThrottled(err) {
			o.console.Error(ctx, fmt.Sprintf("Failed to update offer for %s: request rate is too large, retry after a moment", p.Resource))
		} else {
			o.console.Error(ctx, fmt.Sprintf("Failed to update offer for %s: %v", p.Resource, err))
		}
		return nil, fmt.Errorf("updating offer for %s: %w", p.Resource, err)
	}

	o.console.Info(ctx, fmt.Sprintf("Successfully updated offer for %s", p.Resource))
	o.refreshCache(ctx, acct, p.Resource, result)
	return result, nil
}

// ReadOffer returns the canonical offer of a resource. A resource without a
// dedicated offer yields an offer in ModeNone.
func (o *Orchestrator) ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error) {
	var (
		result *offer.Offer
		err    error
	)
	if Select(acct, res.Kind()) == BackendManagementAPI {
		result, err = o.readManagement(ctx, acct, res)
	} else {
		result, err = o.readDataPlane(ctx, acct, res, offerID)
	}
	if err != nil {
		return nil, err
	}
	o.refreshCache(ctx, acct, res, result)
	return result, nil
}

func (o *Orchestrator) updateManagement(ctx context.Context, acct account.Context, p UpdateOfferParams) (*offer.Offer, error) {
	family, ok := o.families.Get(acct.APIType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAPI, acct.APIType)
	}

	var err error
	switch p.Intent() {
	case IntentToAutoscale:
		err = family.MigrateToAutoscale(ctx, acct, p.Resource)
	case IntentToManual:
		err = family.MigrateToManualThroughput(ctx, acct, p.Resource)
	default:
		var result *offer.Offer
		result, err = family.UpdateThroughput(ctx, acct, p.Resource, p.update())
		if err == nil && result != nil {
			return result, nil
		}
	}
	if err != nil {
		if !arm.IsMethodNotAllowed(err) {
			return nil, err
		}
		slog.InfoContext(ctx, "management API rejected offer write, reading current offer",
			"database", p.Resource.DatabaseID,
			"collection", p.Resource.CollectionID,
			"error", err,
		)
		o.metrics.RecordRecovery(string(acct.APIType))
	}
	return o.readFamily(ctx, acct, family, p.Resource)
}

func (o *Orchestrator) updateDataPlane(ctx context.Context, acct account.Context, p UpdateOfferParams) (*offer.Offer, error) {
	if o.sdk == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendSDK)
	}

	current := p.CurrentOffer
	if current == nil || current.Definition == nil {
		id := ""
		if current != nil {
			id = current.ID
		}
		read, err := o.sdk.ReadOffer(ctx, acct, p.Resource, id)
		if err != nil {
			return nil, err
		}
		if read == nil {
			return nil, ErrNoOffer
		}
		if read.OfferReplacePending {
			return nil, ErrReplacePending
		}
		current = read
	}

	opts := sdk.ReplaceOptions{MigrateToAutoscale: p.MigrateToAutoscale, MigrateToManual: p.MigrateToManual}
	result, err := o.sdk.ReplaceOffer(ctx, acct, current, p.update(), opts)
	if err != nil {
		return nil, err
	}
	if !p.Intent().IsMigration() && result != nil {
		return result, nil
	}
	return o.readDataPlane(ctx, acct, p.Resource, current.ID)
}

func (o *Orchestrator) readManagement(ctx context.Context, acct account.Context, res offer.Resource) (*offer.Offer, error) {
	family, ok := o.families.Get(acct.APIType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAPI, acct.APIType)
	}
	return o.readFamily(ctx, acct, family, res)
}

func (o *Orchestrator) readFamily(ctx context.Context, acct account.Context, family Family, res offer.Resource) (*offer.Offer, error) {
	result, err := family.GetThroughput(ctx, acct, res)
	if err != nil {
		if arm.IsNotFound(err) {
			return &offer.Offer{Mode: offer.ModeNone}, nil
		}
		return nil, err
	}
	if result == nil {
		return &offer.Offer{Mode: offer.ModeNone}, nil
	}
	return result, nil
}

func (o *Orchestrator) readDataPlane(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error) {
	if o.sdk == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendSDK)
	}
	result, err := o.sdk.ReadOffer(ctx, acct, res, offerID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &offer.Offer{Mode: offer.ModeNone}, nil
	}
	return result, nil
}

func (o *Orchestrator) refreshCache(ctx context.Context, acct account.Context, res offer.Resource, result *offer.Offer) {
	if o.store == nil {
		return
	}
	if err := o.store.Upsert(ctx, offercache.NewEntry(acct, res, result)); err != nil {
		slog.WarnContext(ctx, "failed to refresh cached offer",
			"database", res.DatabaseID,
			"collection", res.CollectionID,
			"error", err,
		)
	}
}

type nopConsole struct{}

func (nopConsole) Info(context.Context, string)            {}
func (nopConsole) Error(context.Context, string)           {}
func (nopConsole) Progress(context.Context, string) func() { return func() {} }
