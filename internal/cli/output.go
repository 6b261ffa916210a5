package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

type offerOutput struct {
	DatabaseID             string                   `json:"databaseId"`
	CollectionID           string                   `json:"collectionId,omitempty"`
	OfferID                string                   `json:"offerId,omitempty"`
	Mode                   string                   `json:"mode"`
	ManualThroughput       *int                     `json:"manualThroughput,omitempty"`
	AutoscaleMaxThroughput *int                     `json:"autoscaleMaxThroughput,omitempty"`
	MinimumThroughput      *int                     `json:"minimumThroughput,omitempty"`
	ThroughputBuckets      []offer.ThroughputBucket `json:"throughputBuckets,omitempty"`
	OfferReplacePending    bool                     `json:"offerReplacePending"`
}

func newOfferOutput(res offer.Resource, o *offer.Offer) offerOutput {
	return offerOutput{
		DatabaseID:             res.DatabaseID,
		CollectionID:           res.CollectionID,
		OfferID:                o.ID,
		Mode:                   string(o.Mode),
		ManualThroughput:       o.ManualThroughput,
		AutoscaleMaxThroughput: o.AutoscaleMaxThroughput,
		MinimumThroughput:      o.MinimumThroughput,
		ThroughputBuckets:      o.ThroughputBuckets,
		OfferReplacePending:    o.OfferReplacePending,
	}
}

func writeOffer(w io.Writer, format string, res offer.Resource, o *offer.Offer) error {
	out := newOfferOutput(res, o)
	if format == "json" {
		return writeJSON(w, out)
	}

	fmt.Fprintf(w, "Resource:   %s\n", res)
	switch o.Mode {
	case offer.ModeManual:
		fmt.Fprintf(w, "Mode:       manual\n")
		fmt.Fprintf(w, "Throughput: %d RU/s\n", o.Throughput())
	case offer.ModeAutoscale:
		fmt.Fprintf(w, "Mode:       autoscale\n")
		fmt.Fprintf(w, "Max:        %d RU/s\n", o.Throughput())
	default:
		fmt.Fprintf(w, "Mode:       none (no dedicated throughput)\n")
		return nil
	}
	if o.MinimumThroughput != nil {
		fmt.Fprintf(w, "Minimum:    %d RU/s\n", *o.MinimumThroughput)
	}
	if len(o.ThroughputBuckets) > 0 {
		parts := make([]string, 0, len(o.ThroughputBuckets))
		for _, b := range o.ThroughputBuckets {
			parts = append(parts, fmt.Sprintf("%d=%d%%", b.ID, b.MaxThroughputPercentage))
		}
		fmt.Fprintf(w, "Buckets:    %s\n", strings.Join(parts, " "))
	}
	if o.OfferReplacePending {
		fmt.Fprintf(w, "Pending:    a throughput change is still being applied\n")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
