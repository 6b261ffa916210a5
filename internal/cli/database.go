package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// DatabaseCreateOptions holds flags for the database create command.
type DatabaseCreateOptions struct {
	*RootOptions
	Database  string
	Manual    int
	Autoscale int
}

// NewDatabaseCommand creates the database command group.
func NewDatabaseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "database",
		Short: "Manage databases",
	}
	cmd.AddCommand(newDatabaseCreateCommand(rootOpts))
	return cmd
}

func newDatabaseCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a database, optionally with shared throughput",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := offer.DatabaseRequest{DatabaseID: strings.TrimSpace(opts.Database)}
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
			if err := engine.CreateDatabase(cmd.Context(), acct, req); err != nil {
				return err
			}

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), req)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created database %s\n", req.DatabaseID)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.Database, "database", "", "database id (required)")
	cmd.Flags().IntVar(&opts.Manual, "manual", 0, "shared manual throughput in RU/s")
	cmd.Flags().IntVar(&opts.Autoscale, "autoscale", 0, "shared autoscale max throughput in RU/s")
	_ = cmd.MarkFlagRequired("database")
	cmd.MarkFlagsMutuallyExclusive("manual", "autoscale")
	return cmd
}
