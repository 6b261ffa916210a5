package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/validation"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// ResourceOptions identify a database or collection.
type ResourceOptions struct {
	Database   string
	Collection string
}

func (r ResourceOptions) resource() offer.Resource {
	return offer.Resource{DatabaseID: strings.TrimSpace(r.Database), CollectionID: strings.TrimSpace(r.Collection)}
}

func (r *ResourceOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.Database, "database", "", "database id (required)")
	cmd.Flags().StringVar(&r.Collection, "collection", "", "collection id; omit for database-level throughput")
	_ = cmd.MarkFlagRequired("database")
}

// OfferUpdateOptions holds flags for the offer update command.
type OfferUpdateOptions struct {
	*RootOptions
	ResourceOptions
	Manual    int
	Autoscale int
	Buckets   []string
}

// NewOfferCommand creates the offer command group.
func NewOfferCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Read or change the throughput of a database or collection",
	}
	cmd.AddCommand(newOfferGetCommand(rootOpts))
	cmd.AddCommand(newOfferUpdateCommand(rootOpts))
	return cmd
}

func newOfferGetCommand(rootOpts *RootOptions) *cobra.Command {
	var res ResourceOptions

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the current offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acct, engine, err := rootOpts.session(cmd.Context())
			if err != nil {
				return err
			}
			r := res.resource()
			o, err := engine.ReadOffer(cmd.Context(), acct, r, "")
			if err != nil {
				return err
			}
			return writeOffer(cmd.OutOrStdout(), rootOpts.Format, r, o)
		},
	}
	res.bind(cmd)
	return cmd
}

func newOfferUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OfferUpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set manual or autoscale throughput",
		Long: `Set manual or autoscale throughput.

When the requested mode differs from the current one the offer is migrated
first, then the requested value is written.

Example:
  explorerctl offer update --database db1 --collection c1 --autoscale 4000
  explorerctl offer update --database db1 --manual 800 --bucket 1=40 --bucket 2=60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateOffer(cmd, opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().IntVar(&opts.Manual, "manual", 0, "manual throughput in RU/s")
	cmd.Flags().IntVar(&opts.Autoscale, "autoscale", 0, "autoscale max throughput in RU/s")
	cmd.Flags().StringArrayVar(&opts.Buckets, "bucket", nil, "throughput bucket as id=percentage (repeatable)")
	cmd.MarkFlagsOneRequired("manual", "autoscale")
	cmd.MarkFlagsMutuallyExclusive("manual", "autoscale")
	return cmd
}

func updateOffer(cmd *cobra.Command, opts *OfferUpdateOptions) error {
	buckets, err := parseBuckets(opts.Buckets)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	acct, engine, err := opts.session(ctx)
	if err != nil {
		return err
	}
	res := opts.resource()

	current, err := engine.ReadOffer(ctx, acct, res, "")
	if err != nil {
		return err
	}
	if current.Mode == offer.ModeNone {
		return fmt.Errorf("%s has no dedicated throughput", res)
	}

	wantAutoscale := cmd.Flags().Changed("autoscale")
	intent := throughput.Decide(wantAutoscale, current.IsAutoscale())
	if intent.IsMigration() {
		current, err = engine.UpdateOffer(ctx, acct, throughput.UpdateOfferParams{
			Resource:           res,
			CurrentOffer:       current,
			MigrateToAutoscale: intent == throughput.IntentToAutoscale,
			MigrateToManual:    intent == throughput.IntentToManual,
		})
		if err != nil {
			return err
		}
		if current.OfferReplacePending {
			fmt.Fprintf(cmd.ErrOrStderr(), "Migration of %s is still in progress; run the update again once it completes\n", res)
			return writeOffer(cmd.OutOrStdout(), opts.Format, res, current)
		}
	}

	params := throughput.UpdateOfferParams{
		Resource:          res,
		CurrentOffer:      current,
		ThroughputBuckets: buckets,
	}
	if wantAutoscale {
		if current.Throughput() == opts.Autoscale && buckets == nil {
			return writeOffer(cmd.OutOrStdout(), opts.Format, res, current)
		}
		params.AutoscaleMaxThroughput = &opts.Autoscale
	} else {
		if current.Throughput() == opts.Manual && buckets == nil {
			return writeOffer(cmd.OutOrStdout(), opts.Format, res, current)
		}
		params.ManualThroughput = &opts.Manual
	}

	result, err := engine.UpdateOffer(ctx, acct, params)
	if err != nil {
		return err
	}
	return writeOffer(cmd.OutOrStdout(), opts.Format, res, result)
}

// parseBuckets reads id=percentage pairs and applies the API's bucket rules.
func parseBuckets(raw []string) ([]offer.ThroughputBucket, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	buckets := make([]offer.ThroughputBucket, 0, len(raw))
	for _, s := range raw {
		id, pct, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid bucket %q: expected id=percentage", s)
		}
		b := offer.ThroughputBucket{}
		var errID, errPct error
		b.ID, errID = strconv.Atoi(strings.TrimSpace(id))
		b.MaxThroughputPercentage, errPct = strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(pct, "%")))
		if err := errors.Join(errID, errPct); err != nil {
			return nil, fmt.Errorf("invalid bucket %q: %w", s, err)
		}
		buckets = append(buckets, b)
	}
	if errs := validation.ValidateBuckets(buckets); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %s", errs[0].Field, errs[0].Message)
	}
	return buckets, nil
}
