// Package cli implements the explorerctl commands.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Engine is the throughput surface the commands drive.
type Engine interface {
	ReadOffer(ctx context.Context, acct account.Context, res offer.Resource, offerID string) (*offer.Offer, error)
	UpdateOffer(ctx context.Context, acct account.Context, p throughput.UpdateOfferParams) (*offer.Offer, error)
	CreateDatabase(ctx context.Context, acct account.Context, req offer.DatabaseRequest) error
	CreateCollection(ctx context.Context, acct account.Context, req offer.CollectionRequest) error
}

// EngineFactory builds an engine for the loaded account.
type EngineFactory func(ctx context.Context, acct account.Context) (Engine, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	AccountConfig string
	Format        string

	newEngine EngineFactory
}

// NewRootCommand creates the root command of explorerctl.
func NewRootCommand(newEngine EngineFactory) *cobra.Command {
	opts := &RootOptions{newEngine: newEngine}

	cmd := &cobra.Command{
		Use:   "explorerctl",
		Short: "Inspect and change Cosmos DB throughput",
		Long:  "explorerctl reads and writes offers of one Cosmos DB account through the management plane or the data plane.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.AccountConfig, "account-config", "account.yaml", "path to the account context file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewOfferCommand(opts))
	cmd.AddCommand(NewDatabaseCommand(opts))
	cmd.AddCommand(NewCollectionCommand(opts))

	return cmd
}

// session loads the account and builds its engine.
func (o *RootOptions) session(ctx context.Context) (account.Context, Engine, error) {
	acct, err := account.LoadFile(o.AccountConfig)
	if err != nil {
		return account.Context{}, nil, err
	}
	engine, err := o.newEngine(ctx, acct)
	if err != nil {
		return account.Context{}, nil, fmt.Errorf("configuring backends: %w", err)
	}
	return acct, engine, nil
}
