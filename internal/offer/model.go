package offer

import (
	"errors"
	"fmt"
)

// Mode is the provisioning mode of an offer.
type Mode string

const (
	ModeNone      Mode = "none"
	ModeManual    Mode = "manual"
	ModeAutoscale Mode = "autoscale"
)

// MinAutoscaleThroughput is the smallest autoscale ceiling the service accepts.
// Allowed ceilings are multiples of this value.
const MinAutoscaleThroughput = 1000

// MaxThroughput is the largest manual or autoscale value accepted for any
// offer. Larger values are rejected before any capacity arithmetic.
const MaxThroughput = 1_000_000_000

// ErrInvalidOffer is returned when an offer violates the single-mode invariant.
var ErrInvalidOffer = errors.New("invalid offer")

// Offer is the throughput configuration attached to a database or collection.
type Offer struct {
	ID                     string
	Mode                   Mode
	ManualThroughput       *int
	AutoscaleMaxThroughput *int
	MinimumThroughput      *int
	ThroughputBuckets      []ThroughputBucket
	OfferReplacePending    bool

	// Definition is only populated for offers read through the data plane.
	Definition *Definition
}

// Definition holds the data-plane offer envelope needed to replace an offer.
type Definition struct {
	ResourceID      string `json:"_rid,omitempty"`
	Self            string `json:"_self,omitempty"`
	OfferVersion    string `json:"offerVersion,omitempty"`
	OfferType       string `json:"offerType,omitempty"`
	Resource        string `json:"resource,omitempty"`
	OfferResourceID string `json:"offerResourceId,omitempty"`
}

// NewManual returns a manual offer with the given RU/s.
func NewManual(id string, throughput int) *Offer {
	return &Offer{ID: id, Mode: ModeManual, ManualThroughput: &throughput}
}

// NewAutoscale returns an autoscale offer with the given ceiling.
func NewAutoscale(id string, maxThroughput int) *Offer {
	return &Offer{ID: id, Mode: ModeAutoscale, AutoscaleMaxThroughput: &maxThroughput}
}

// IsAutoscale reports whether the offer is provisioned in autoscale mode.
func (o *Offer) IsAutoscale() bool {
	return o != nil && o.Mode == ModeAutoscale
}

// Throughput returns the effective throughput value for the offer's mode:
// the manual RU/s, the autoscale ceiling, or zero.
func (o *Offer) Throughput() int {
	if o == nil {
		return 0
	}
	switch o.Mode {
	case ModeManual:
		return deref(o.ManualThroughput)
	case ModeAutoscale:
		return deref(o.AutoscaleMaxThroughput)
	}
	return 0
}

// Validate checks that exactly one of the manual and autoscale values is set
// when the mode is not none, and that the set value is positive.
func (o *Offer) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: nil offer", ErrInvalidOffer)
	}
	switch o.Mode {
	case ModeNone:
		if o.ManualThroughput != nil || o.AutoscaleMaxThroughput != nil {
			return fmt.Errorf("%w: throughput set on an offer without a mode", ErrInvalidOffer)
		}
	case ModeManual:
		if o.ManualThroughput == nil || o.AutoscaleMaxThroughput != nil {
			return fmt.Errorf("%w: manual offer must carry only a manual throughput", ErrInvalidOffer)
		}
		if *o.ManualThroughput <= 0 {
			return fmt.Errorf("%w: manual throughput must be positive", ErrInvalidOffer)
		}
	case ModeAutoscale:
		if o.AutoscaleMaxThroughput == nil || o.ManualThroughput != nil {
			return fmt.Errorf("%w: autoscale offer must carry only an autoscale ceiling", ErrInvalidOffer)
		}
		if *o.AutoscaleMaxThroughput <= 0 {
			return fmt.Errorf("%w: autoscale ceiling must be positive", ErrInvalidOffer)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidOffer, o.Mode)
	}
	return nil
}

// Clone returns a deep copy of the offer.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	c := *o
	c.ManualThroughput = clonePtr(o.ManualThroughput)
	c.AutoscaleMaxThroughput = clonePtr(o.AutoscaleMaxThroughput)
	c.MinimumThroughput = clonePtr(o.MinimumThroughput)
	c.ThroughputBuckets = CloneBuckets(o.ThroughputBuckets)
	if o.Definition != nil {
		d := *o.Definition
		c.Definition = &d
	}
	return &c
}

// IsValidAutoscaleThroughput reports whether v is an allowed autoscale ceiling.
func IsValidAutoscaleThroughput(v int) bool {
	return v >= MinAutoscaleThroughput && v <= MaxThroughput && v%MinAutoscaleThroughput == 0
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
