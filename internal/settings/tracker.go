package settings

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// Field names a tracked setting.
type Field string

const (
	FieldAutoscale              Field = "autoscale"
	FieldManualThroughput       Field = "manualThroughput"
	FieldAutoscaleMaxThroughput Field = "autoscaleMaxThroughput"
	FieldThroughputBuckets      Field = "throughputBuckets"
)

// Fields lists every tracked field in display order.
var Fields = []Field{FieldAutoscale, FieldManualThroughput, FieldAutoscaleMaxThroughput, FieldThroughputBuckets}

var (
	ErrUnknownField     = errors.New("unknown settings field")
	ErrFieldType        = errors.New("wrong value type for settings field")
	ErrNotSaveable      = errors.New("settings are not saveable")
	ErrCommitInProgress = errors.New("a commit is already in progress")
)

// Limits describe the account-wide throughput budget used by the cap check.
type Limits struct {
	// ThroughputCap of zero disables the cap check.
	ThroughputCap int `json:"throughputCap"`
	TotalUsed     int `json:"totalUsed"`
	RegionCount   int `json:"regionCount"`
}

// Draft is a plain snapshot of the tracked field values.
type Draft struct {
	Autoscale              bool                     `json:"autoscale"`
	ManualThroughput       int                      `json:"manualThroughput"`
	AutoscaleMaxThroughput int                      `json:"autoscaleMaxThroughput"`
	ThroughputBuckets      []offer.ThroughputBucket `json:"throughputBuckets,omitempty"`
}

// State is a read-only view of the tracker.
type State struct {
	Draft               Draft            `json:"draft"`
	Baseline            Draft            `json:"baseline"`
	Dirty               map[Field]bool   `json:"dirty"`
	ValidationErrors    map[Field]string `json:"validationErrors,omitempty"`
	Saveable            bool             `json:"saveable"`
	Discardable         bool             `json:"discardable"`
	Executing           bool             `json:"executing"`
	OfferReplacePending bool             `json:"offerReplacePending"`
}

// Commit is what BeginCommit hands to the orchestrator.
type Commit struct {
	Draft    Draft
	Baseline Draft
	Offer    *offer.Offer
}

// Tracker keeps baseline and draft copies of the throughput settings of one
// resource. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	limits Limits
	offer  *offer.Offer

	autoscale    EditableField[bool]
	manual       EditableField[int]
	autoscaleMax EditableField[int]
	buckets      EditableField[[]offer.ThroughputBucket]

	errors    map[Field]string
	executing bool
}

func NewTracker(limits Limits) *Tracker {
	t := &Tracker{
		limits:       limits,
		autoscale:    NewField(false),
		manual:       NewField(0),
		autoscaleMax: NewField(offer.MinAutoscaleThroughput),
		buckets:      NewFieldFunc[[]offer.ThroughputBucket](nil, offer.BucketsEqual),
		errors:       map[Field]string{},
	}
	return t
}

// SetBaseline snapshots the offer into every field as both value and baseline.
func (t *Tracker) SetBaseline(o *offer.Offer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setBaselineLocked(o)
}

func (t *Tracker) setBaselineLocked(o *offer.Offer) {
	t.offer = o.Clone()

	autoscaleMax := offer.MinAutoscaleThroughput
	manual := 0
	if o.IsAutoscale() {
		autoscaleMax = o.Throughput()
	} else if o != nil && o.Mode == offer.ModeManual {
		manual = o.Throughput()
	}
	var buckets []offer.ThroughputBucket
	if o != nil {
		buckets = offer.CloneBuckets(o.ThroughputBuckets)
	}

	t.autoscale.SetBaseline(o.IsAutoscale())
	t.manual.SetBaseline(manual)
	t.autoscaleMax.SetBaseline(autoscaleMax)
	t.buckets.SetBaseline(buckets)
	t.recompute()
}

// SetLimits replaces the cap inputs and revalidates.
func (t *Tracker) SetLimits(limits Limits) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limits = limits
	t.recompute()
}

// OnFieldChange updates the draft value of one field. Numbers may be given as
// int or as an integral float64, as decoded from JSON.
func (t *Tracker) OnFieldChange(field Field, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch field {
	case FieldAutoscale:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects a bool", ErrFieldType, field)
		}
		t.autoscale.Set(v)
	case FieldManualThroughput, FieldAutoscaleMaxThroughput:
		v, ok := toInt(value)
		if !ok {
			return fmt.Errorf("%w: %s expects an integer", ErrFieldType, field)
		}
		if field == FieldManualThroughput {
			t.manual.Set(v)
		} else {
			t.autoscaleMax.Set(v)
		}
	case FieldThroughputBuckets:
		v, ok := value.([]offer.ThroughputBucket)
		if !ok {
			return fmt.Errorf("%w: %s expects a bucket list", ErrFieldType, field)
		}
		t.buckets.Set(offer.CloneBuckets(v))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	t.recompute()
	return nil
}

func (t *Tracker) SetAutoscale(v bool) {
	t.set(func() { t.autoscale.Set(v) })
}

func (t *Tracker) SetManualThroughput(v int) {
	t.set(func() { t.manual.Set(v) })
}

func (t *Tracker) SetAutoscaleMaxThroughput(v int) {
	t.set(func() { t.autoscaleMax.Set(v) })
}

func (t *Tracker) SetThroughputBuckets(v []offer.ThroughputBucket) {
	buckets := offer.CloneBuckets(v)
	t.set(func() { t.buckets.Set(buckets) })
}

func (t *Tracker) set(apply func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	apply()
	t.recompute()
}

// IsDirty reports whether the field's draft differs from its baseline.
// Unknown fields are never dirty.
func (t *Tracker) IsDirty(field Field) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isDirtyLocked(field)
}

func (t *Tracker) isDirtyLocked(field Field) bool {
	switch field {
	case FieldAutoscale:
		return t.autoscale.IsDirty()
	case FieldManualThroughput:
		return t.manual.IsDirty()
	case FieldAutoscaleMaxThroughput:
		return t.autoscaleMax.IsDirty()
	case FieldThroughputBuckets:
		return t.buckets.IsDirty()
	}
	return false
}

func (t *Tracker) anyDirtyLocked() bool {
	for _, f := range Fields {
		if t.isDirtyLocked(f) {
			return true
		}
	}
	return false
}

// IsDiscardable reports whether any field is dirty.
func (t *Tracker) IsDiscardable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.anyDirtyLocked()
}

// IsSaveable reports whether a commit may start now.
func (t *Tracker) IsSaveable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveableLocked()
}

func (t *Tracker) saveableLocked() bool {
	if !t.anyDirtyLocked() || t.executing || len(t.errors) > 0 {
		return false
	}
	if t.offer == nil || t.offer.Mode == offer.ModeNone {
		return false
	}
	return !t.offer.OfferReplacePending
}

// Discard resets every draft value to its baseline.
func (t *Tracker) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.autoscale.Reset()
	t.manual.Reset()
	t.autoscaleMax.Reset()
	t.buckets.Reset()
	t.recompute()
}

// ValidationErrors returns a copy of the current field-level messages.
func (t *Tracker) ValidationErrors() map[Field]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Field]string, len(t.errors))
	for k, v := range t.errors {
		out[k] = v
	}
	return out
}

func (t *Tracker) Draft() Draft {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draftLocked()
}

func (t *Tracker) BaselineDraft() Draft {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baselineLocked()
}

// Offer returns a copy of the baseline offer.
func (t *Tracker) Offer() *offer.Offer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offer.Clone()
}

// State returns a consistent snapshot of the whole tracker.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	dirty := make(map[Field]bool, len(Fields))
	for _, f := range Fields {
		dirty[f] = t.isDirtyLocked(f)
	}
	var errs map[Field]string
	if len(t.errors) > 0 {
		errs = make(map[Field]string, len(t.errors))
		for k, v := range t.errors {
			errs[k] = v
		}
	}
	return State{
		Draft:               t.draftLocked(),
		Baseline:            t.baselineLocked(),
		Dirty:               dirty,
		ValidationErrors:    errs,
		Saveable:            t.saveableLocked(),
		Discardable:         t.anyDirtyLocked(),
		Executing:           t.executing,
		OfferReplacePending: t.offer != nil && t.offer.OfferReplacePending,
	}
}

// BeginCommit marks the tracker as executing and returns the values to commit.
// Every successful BeginCommit must be paired with EndCommit.
func (t *Tracker) BeginCommit() (Commit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.executing {
		return Commit{}, ErrCommitInProgress
	}
	if !t.saveableLocked() {
		return Commit{}, ErrNotSaveable
	}
	t.executing = true
	return Commit{Draft: t.draftLocked(), Baseline: t.baselineLocked(), Offer: t.offer.Clone()}, nil
}

// EndCommit clears the executing flag. A non-nil result becomes the new
// baseline; a nil result leaves baseline and draft untouched.
func (t *Tracker) EndCommit(result *offer.Offer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.executing = false
	if result != nil {
		t.setBaselineLocked(result)
		return
	}
	t.recompute()
}

func (t *Tracker) draftLocked() Draft {
	return Draft{
		Autoscale:              t.autoscale.Value(),
		ManualThroughput:       t.manual.Value(),
		AutoscaleMaxThroughput: t.autoscaleMax.Value(),
		ThroughputBuckets:      offer.CloneBuckets(t.buckets.Value()),
	}
}

func (t *Tracker) baselineLocked() Draft {
	return Draft{
		Autoscale:              t.autoscale.Baseline(),
		ManualThroughput:       t.manual.Baseline(),
		AutoscaleMaxThroughput: t.autoscaleMax.Baseline(),
		ThroughputBuckets:      offer.CloneBuckets(t.buckets.Baseline()),
	}
}

// recompute rebuilds the validation errors from the current draft.
func (t *Tracker) recompute() {
	errs := map[Field]string{}
	modeChanged := t.autoscale.IsDirty()

	if !modeChanged && t.offer != nil && t.offer.Mode != offer.ModeNone {
		if t.autoscale.Value() {
			if v := t.autoscaleMax.Value(); !offer.IsValidAutoscaleThroughput(v) {
				errs[FieldAutoscaleMaxThroughput] = fmt.Sprintf(
					"autoscale max throughput must be a multiple of %d between %d and %d",
					offer.MinAutoscaleThroughput, offer.MinAutoscaleThroughput, offer.MaxThroughput)
			}
		} else {
			v := t.manual.Value()
			switch {
			case v <= 0:
				errs[FieldManualThroughput] = "manual throughput must be greater than 0"
			case v > offer.MaxThroughput:
				errs[FieldManualThroughput] = fmt.Sprintf("manual throughput must be at most %d", offer.MaxThroughput)
			case t.offer.MinimumThroughput != nil && v < *t.offer.MinimumThroughput:
				errs[FieldManualThroughput] = fmt.Sprintf("manual throughput must be at least %d", *t.offer.MinimumThroughput)
			}
		}
		t.checkCap(errs)
	}

	if msg := validateBuckets(t.buckets.Value()); msg != "" {
		errs[FieldThroughputBuckets] = msg
	}
	t.errors = errs
}

func (t *Tracker) checkCap(errs map[Field]string) {
	if t.limits.ThroughputCap <= 0 {
		return
	}
	field, f := FieldManualThroughput, &t.manual
	if t.autoscale.Value() {
		field, f = FieldAutoscaleMaxThroughput, &t.autoscaleMax
	}
	if _, exists := errs[field]; exists || !f.IsDirty() {
		return
	}
	regions := t.limits.RegionCount
	if regions < 1 {
		regions = 1
	}
	projected, ok := projectTotal(t.limits.TotalUsed, f.Value()-f.Baseline(), regions)
	switch {
	case !ok:
		errs[field] = fmt.Sprintf(
			"your account is limited to %d RU/s; this change would exceed it", t.limits.ThroughputCap)
	case projected > t.limits.ThroughputCap:
		errs[field] = fmt.Sprintf(
			"your account is limited to %d RU/s; this change would bring the total to %d RU/s",
			t.limits.ThroughputCap, projected)
	}
}

// projectTotal returns used + delta*regions, or false when the result does
// not fit in an int.
func projectTotal(used, delta, regions int) (int, bool) {
	if delta > 0 && delta > (math.MaxInt-max(used, 0))/regions {
		return 0, false
	}
	if delta < 0 && delta < (math.MinInt+1)/regions {
		return 0, false
	}
	scaled := delta * regions
	if (scaled > 0 && used > math.MaxInt-scaled) || (scaled < 0 && used < math.MinInt-scaled) {
		return 0, false
	}
	return used + scaled, true
}

func validateBuckets(buckets []offer.ThroughputBucket) string {
	seen := make(map[int]struct{}, len(buckets))
	ids := make([]int, 0, len(buckets))
	for _, b := range buckets {
		if b.MaxThroughputPercentage < 1 || b.MaxThroughputPercentage > 100 {
			return fmt.Sprintf("bucket %d: max throughput percentage must be between 1 and 100", b.ID)
		}
		if _, dup := seen[b.ID]; dup {
			ids = append(ids, b.ID)
			continue
		}
		seen[b.ID] = struct{}{}
	}
	if len(ids) > 0 {
		sort.Ints(ids)
		return fmt.Sprintf("duplicate bucket id %d", ids[0])
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
