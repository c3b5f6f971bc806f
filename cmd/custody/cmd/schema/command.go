// Package schema implements the schema command.
package schema

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/custody"
	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/cmd/output"
)

// NewCommand creates the schema command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		GroupID: "reference",
		Short:   "Print the case record fields and their defaults",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := custody.Schema()
			return output.Write(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()), schema, func() output.Data {
				return output.SchemaData(schema)
			})
		},
	}
}
