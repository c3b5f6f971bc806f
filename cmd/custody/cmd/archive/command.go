// Package archive implements the archive command and its subcommands.
package archive

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/cmd/cmdutil"
	"github.com/agentstation/custody/internal/cmd/output"
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/observation"
)

// NewCommand creates the archive command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archive",
		GroupID: "management",
		Short:   "Store and retrieve normalized observations",
		Long: `Archive keeps normalized observations in a local sqlite database keyed by
their identity hash. Storing an observation again replaces the earlier copy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newPutCommand(app), newGetCommand(app), newListCommand(app))
	return cmd
}

func newPutCommand(app appcontext.Interface) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a batch in the archive",
		Args:  cobra.NoArgs,
	}
	ioFlags := cmdutil.AddIOFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreTimeout)
		defer cancel()
		batch, err := cmdutil.ReadBatch(cmd, ioFlags)
		if err != nil {
			return err
		}
		archive, err := app.Archive(ctx)
		if err != nil {
			return err
		}
		defer archive.Close()

		res, err := archive.Put(ctx, batch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %d, skipped %d\n", res.Stored, res.Skipped)
		return nil
	}
	return cmd
}

func newGetCommand(app appcontext.Interface) *cobra.Command {
	var (
		all    bool
		source string
	)
	cmd := &cobra.Command{
		Use:   "get [id-hash...]",
		Short: "Write archived observations as a batch",
		Example: `  custody archive get 3f2a... 9b01...
  custody archive get --all --source youtube_video -O videos.ndjson`,
	}
	ioFlags := cmdutil.AddIOFlags(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "get every archived observation")
	cmd.Flags().StringVar(&source, "source", "", "with --all, only observations of this source")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !all && len(args) == 0 {
			return fmt.Errorf("give at least one id hash or --all")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreTimeout)
		defer cancel()
		archive, err := app.Archive(ctx)
		if err != nil {
			return err
		}
		defer archive.Close()

		var batch observation.Batch
		if all {
			if batch, err = archive.Export(ctx, source); err != nil {
				return err
			}
		} else {
			for _, id := range args {
				obs, err := archive.Get(ctx, id)
				if err != nil {
					return err
				}
				batch = append(batch, obs)
			}
		}
		return cmdutil.WriteBatch(cmd, ioFlags, batch)
	}
	return cmd
}

func newListCommand(app appcontext.Interface) *cobra.Command {
	var (
		source string
		limit  int
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List archived observations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreTimeout)
			defer cancel()
			archive, err := app.Archive(ctx)
			if err != nil {
				return err
			}
			defer archive.Close()

			entries, err := archive.List(ctx, source, limit)
			if err != nil {
				return err
			}
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), entries, func() output.Data {
				return output.EntriesData(entries)
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "only observations of this source")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "limit number of results")
	return cmd
}
