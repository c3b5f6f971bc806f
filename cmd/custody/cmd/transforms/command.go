// Package transforms implements the transforms command.
package transforms

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentstation/custody/internal/appcontext"
	"github.com/agentstation/custody/internal/cmd/output"
	"github.com/agentstation/custody/pkg/pipeline"
)

// NewCommand creates the transforms command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var version string
	cmd := &cobra.Command{
		Use:     "transforms",
		GroupID: "reference",
		Short:   "List the registered transforms and pipeline versions",
		Example: `  custody transforms
  custody transforms --pipeline v1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := app.Engine()
			if err != nil {
				return err
			}
			format := output.DetectFormat(app.OutputFormat())
			w := cmd.OutOrStdout()

			if version != "" {
				names, err := pipeline.TransformsFor(version)
				if err != nil {
					return err
				}
				return output.Write(w, format, names, func() output.Data {
					data := output.Data{Headers: []string{"Step", "Transform"}}
					for i, name := range names {
						data.Rows = append(data.Rows, []string{strconv.Itoa(i + 1), name})
					}
					return data
				})
			}

			rows := output.Transforms(engine.Pipeline().Registry())
			return output.Write(w, format, rows, func() output.Data { return output.TransformsData(rows) })
		},
	}
	cmd.Flags().StringVar(&version, "pipeline", "", "show the ordered transforms of one pipeline version")
	return cmd
}
