package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// CollectionCreateOptions holds flags for the collection create command.
type CollectionCreateOptions struct {
	*RootOptions
	Database       string
	Collection     string
	PartitionPaths []string
	NewDatabase    bool
	Shared         bool
	Manual         int
	Autoscale      int
}

// NewCollectionCommand creates the collection command group.
func NewCollectionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage containers",
	}
	cmd.AddCommand(newCollectionCreateCommand(rootOpts))
	return cmd
}

func newCollectionCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CollectionCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a container, optionally inside a new database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := offer.CollectionRequest{
				DatabaseID:              strings.TrimSpace(opts.Database),
				CollectionID:            strings.TrimSpace(opts.Collection),
				CreateNewDatabase:       opts.NewDatabase,
				DatabaseLevelThroughput: opts.Shared,
			}
			if len(opts.PartitionPaths) > 0 {
				req.PartitionKey = &offer.PartitionKey{Paths: opts.PartitionPaths, Kind: "Hash", Version: 2}
			}
			if cmd.Flags().Changed("manual") {
				req.ManualThroughput = &opts.Manual
			}
			if cmd.Flags().Changed("autoscale") {
				req.AutoscaleMaxThroughput = &opts.Autoscale
			}

			acct, engine, err := opts.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := engine.CreateCollection(cmd.Context(), acct, req); err != nil {
				return err
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), req)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created container %s in database %s\n", req.CollectionID, req.DatabaseID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Database, "database", "", "database id (required)")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "container id (required)")
	cmd.Flags().StringSliceVar(&opts.PartitionPaths, "partition-key", nil, "partition key path, repeatable")
	cmd.Flags().BoolVar(&opts.NewDatabase, "new-database", false, "create the database first")
	cmd.Flags().BoolVar(&opts.Shared, "shared", false, "provision throughput on the new database instead of the container")
	cmd.Flags().IntVar(&opts.Manual, "manual", 0, "manual throughput in RU/s")
	cmd.Flags().IntVar(&opts.Autoscale, "autoscale", 0, "autoscale max throughput in RU/s")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("collection")
	cmd.MarkFlagsMutuallyExclusive("manual", "autoscale")
	return cmd
}
