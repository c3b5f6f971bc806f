// Package normalize implements the normalize command.
package normalize

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/cmd/cmdutil"
	"github.com/agentstation/custody/internal/cmd/output"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/pipeline"
)

// Flags holds the normalize command flags.
type Flags struct {
	IO      *cmdutil.IOFlags
	Queries string
	Report  bool
	Archive bool
	Strict  bool
}

// NewCommand creates the normalize command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:     "normalize",
		GroupID: "core",
		Short:   "Normalize a batch of observations",
		Long: `Normalize reads a batch of harvested observations, runs the configured
pipeline version over it and writes the normalized batch.

Malformed values are kept as they were and listed in the report. A transform
that fails on one observation leaves that observation as of the previous
step; the rest of the batch continues.`,
		Example: `  custody normalize -i batch.json -O normalized.json
  custody normalize -i batch.ndjson --queries queries.json --report
  cat batch.json | custody normalize > normalized.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app, flags)
		},
	}

	flags.IO = cmdutil.AddIOFlags(cmd)
	cmd.Flags().StringVar(&flags.Queries, "queries", "", "write derived follow-up queries to this file (- for stdout)")
	cmd.Flags().BoolVar(&flags.Report, "report", false, "print the batch report to stderr")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "also store the normalized batch in the archive")
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "exit with an error when any observation failed")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	ctx := cmd.Context()
	logger := app.Logger()

	engine, err := app.Engine()
	if err != nil {
		return err
	}
	batch, err := cmdutil.ReadBatch(cmd, flags.IO)
	if err != nil {
		return err
	}

	normalized, report, err := engine.Normalize(ctx, batch)
	if err != nil {
		return err
	}
	if err := cmdutil.WriteBatch(cmd, flags.IO, normalized); err != nil {
		return err
	}

	if flags.Queries != "" {
		queries := engine.Queries(normalized)
		if err := cmdutil.WriteItems(cmd, flags.Queries, "", queries); err != nil {
			return err
		}
		logger.Info().Int("queries", len(queries)).Str("path", flags.Queries).Msg("Wrote follow-up queries")
	}

	if flags.Archive {
		archive, err := app.Archive(ctx)
		if err != nil {
			return err
		}
		defer archive.Close()
		res, err := archive.Put(ctx, normalized)
		if err != nil {
			return err
		}
		logger.Info().Int("stored", res.Stored).Int("skipped", res.Skipped).Str("archive", archive.Path()).Msg("Archived batch")
	}

	if flags.Report {
		if err := PrintReport(cmd, app.OutputFormat(), report); err != nil {
			return err
		}
	}

	if len(report.Failures) > 0 {
		logger.Warn().Int("failures", len(report.Failures)).Msg("Some observations were not fully normalized")
		if flags.Strict {
			return errors.Join(errors.ErrTransformFailed, report.Err())
		}
	}
	return nil
}

// PrintReport writes a batch report to the command's stderr.
func PrintReport(cmd *cobra.Command, format string, report *pipeline.Report) error {
	f := output.Format(format)
	w := cmd.ErrOrStderr()
	if err := output.Write(w, f, report, func() output.Data { return output.ReportData(report) }); err != nil {
		return err
	}
	if f != output.FormatTable && f != "" {
		return nil
	}
	if len(report.Issues)+len(report.Failures) == 0 {
		return nil
	}
	return output.Write(w, f, nil, func() output.Data { return output.IssuesData(report) })
}
