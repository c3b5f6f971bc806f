// Package cmdutil provides shared flags and batch I/O helpers for custody commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/custody/internal/store"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// Stdio is the path that selects stdin or stdout.
const Stdio = "-"

// IOFlags holds the batch input and output flags.
type IOFlags struct {
	Input        string
	Output       string
	InputFormat  string
	OutputFormat string
}

// AddIOFlags adds the batch input and output flags to a command.
func AddIOFlags(cmd *cobra.Command) *IOFlags {
	flags := &IOFlags{}

	cmd.Flags().StringVarP(&flags.Input, "input", "i", Stdio,
		"Input batch file (- for stdin)")
	cmd.Flags().StringVarP(&flags.Output, "out", "O", Stdio,
		"Output batch file (- for stdout)")
	cmd.Flags().StringVar(&flags.InputFormat, "in-format", "",
		"Input format: json, ndjson, yaml (default from extension, json for stdin)")
	cmd.Flags().StringVar(&flags.OutputFormat, "out-format", "",
		"Output format: json, ndjson, yaml (default from extension, json for stdout)")

	return flags
}

// formatFor resolves an explicit format or guesses it from the path.
func formatFor(explicit, path string) (store.Format, error) {
	if explicit != "" {
		return store.ParseFormat(explicit)
	}
	if path == "" || path == Stdio {
		return store.FormatJSON, nil
	}
	return store.FormatFor(path), nil
}

// ReadBatch reads the input batch from a file or the command's stdin.
func ReadBatch(cmd *cobra.Command, flags *IOFlags) (observation.Batch, error) {
	f, err := formatFor(flags.InputFormat, flags.Input)
	if err != nil {
		return nil, err
	}
	if flags.Input == "" || flags.Input == Stdio {
		batch, err := store.Decode(cmd.InOrStdin(), f)
		if err != nil {
			return nil, errors.NewParseError(string(f), "stdin", err.Error(), err)
		}
		return batch, nil
	}
	return store.ReadFile(flags.Input, f)
}

// WriteItems writes items to path, or to the command's stdout for "-".
func WriteItems[T any](cmd *cobra.Command, path, format string, items []T) error {
	f, err := formatFor(format, path)
	if err != nil {
		return err
	}
	if path == "" || path == Stdio {
		return store.Encode(cmd.OutOrStdout(), f, items)
	}
	return store.WriteFile(path, f, items)
}

// WriteBatch writes the output batch as configured by flags.
func WriteBatch(cmd *cobra.Command, flags *IOFlags, batch observation.Batch) error {
	return WriteItems(cmd, flags.Output, flags.OutputFormat, batch)
}
