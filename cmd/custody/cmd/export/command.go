// Package export implements the export command.
package export

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/custody/cmd/custody/cmd/normalize"
	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/cmd/cmdutil"
)

// NewCommand creates the export command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		raw    bool
		report bool
	)
	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "core",
		Short:   "Project a batch for search index consumers",
		Long: `Export normalizes a batch and keeps only the allow-listed fields that the
search index consumes, after dropping raw API noise. With --raw the batch is
projected as is, without normalizing it first.`,
		Example: `  custody export -i batch.json -O index.ndjson
  custody archive get --all | custody export --raw`,
		Args: cobra.NoArgs,
	}
	ioFlags := cmdutil.AddIOFlags(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "project without normalizing")
	cmd.Flags().BoolVar(&report, "report", false, "print the batch report to stderr")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		engine, err := app.Engine()
		if err != nil {
			return err
		}
		batch, err := cmdutil.ReadBatch(cmd, ioFlags)
		if err != nil {
			return err
		}

		if raw {
			return cmdutil.WriteBatch(cmd, ioFlags, engine.Project(batch))
		}

		projected, rep, err := engine.Export(cmd.Context(), batch)
		if err != nil {
			return err
		}
		if err := cmdutil.WriteBatch(cmd, ioFlags, projected); err != nil {
			return err
		}
		if report {
			return normalize.PrintReport(cmd, app.OutputFormat(), rep)
		}
		return nil
	}
	return cmd
}
