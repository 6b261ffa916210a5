package handler

import (
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

type offerResponse struct {
	ID                     string                   `json:"id"`
	Mode                   string                   `json:"mode"`
	ManualThroughput       *int                     `json:"manualThroughput,omitempty"`
	AutoscaleMaxThroughput *int                     `json:"autoscaleMaxThroughput,omitempty"`
	MinimumThroughput      *int                     `json:"minimumThroughput,omitempty"`
	ThroughputBuckets      []offer.ThroughputBucket `json:"throughputBuckets,omitempty"`
	OfferReplacePending    bool                     `json:"offerReplacePending"`
}

func toOfferResponse(o *offer.Offer) *offerResponse {
	if o == nil {
		return nil
	}
	return &offerResponse{
		ID:                     o.ID,
		Mode:                   string(o.Mode),
		ManualThroughput:       o.ManualThroughput,
		AutoscaleMaxThroughput: o.AutoscaleMaxThroughput,
		MinimumThroughput:      o.MinimumThroughput,
		ThroughputBuckets:      o.ThroughputBuckets,
		OfferReplacePending:    o.OfferReplacePending,
	}
}

const timeFormat = "2006-01-02T15:04:05Z"
