package output

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/custody/internal/store"
	"github.com/agentstation/custody/pkg/pipeline"
)

// Write formats data for w. Table output uses tableData when it is given.
func Write(w io.Writer, format Format, data any, tableData func() Data) error {
	formatter := NewFormatter(format)
	if (format == FormatTable || format == "") && tableData != nil {
		return formatter.Format(w, tableData())
	}
	return formatter.Format(w, data)
}

// ReportData renders the run summary with one row per transform that
// changed something, followed by issue and failure counts.
func ReportData(r *pipeline.Report) Data {
	rows := [][]string{
		{"run", r.RunID},
		{"version", r.Version},
		{"observations", strconv.Itoa(r.Observations)},
		{"changed", strconv.Itoa(r.Changed)},
	}
	for _, name := range r.Transforms {
		if n := r.ByTransform[name]; n > 0 {
			rows = append(rows, []string{"  " + name, strconv.Itoa(n)})
		}
	}
	rows = append(rows,
		[]string{"issues", strconv.Itoa(len(r.Issues))},
		[]string{"failures", strconv.Itoa(len(r.Failures))},
		[]string{"duration", r.Duration.Round(time.Millisecond).String()},
	)
	return Data{
		Headers:         []string{"Metric", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// IssuesData lists the field issues and failures of a run.
func IssuesData(r *pipeline.Report) Data {
	rows := make([][]string, 0, len(r.Issues)+len(r.Failures))
	for _, i := range r.Issues {
		rows = append(rows, []string{strconv.Itoa(i.Index), "issue", i.Transform, i.Field, i.Message})
	}
	for _, f := range r.Failures {
		rows = append(rows, []string{strconv.Itoa(f.Index), "failure", f.Transform, "", f.Message})
	}
	return Data{
		Headers: []string{"Index", "Kind", "Transform", "Field", "Message"},
		Rows:    rows,
	}
}

// TransformRow describes one registered transform.
type TransformRow struct {
	Name        string   `json:"name" yaml:"name"`
	Component   string   `json:"component" yaml:"component"`
	Versions    []string `json:"versions" yaml:"versions"`
	Description string   `json:"description" yaml:"description"`
}

// Transforms lists every registered transform with the versions that run it.
func Transforms(registry pipeline.Registry) []TransformRow {
	rows := make([]TransformRow, 0, len(registry))
	for _, name := range registry.Names() {
		t := registry[name]
		row := TransformRow{Name: name, Component: t.Component, Description: t.Description, Versions: []string{}}
		for _, v := range pipeline.VersionNames() {
			if slices.Contains(pipeline.Versions[v], name) {
				row.Versions = append(row.Versions, v)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// TransformsData renders Transforms as a table.
func TransformsData(rows []TransformRow) Data {
	data := Data{Headers: []string{"Name", "Component", "Versions", "Description"}}
	for _, r := range rows {
		data.Rows = append(data.Rows, []string{r.Name, r.Component, strings.Join(r.Versions, ","), r.Description})
	}
	return data
}

// EntriesData renders archive entries.
func EntriesData(entries []store.Entry) Data {
	data := Data{Headers: []string{"ID Hash", "Source", "Created", "Updated"}}
	for _, e := range entries {
		data.Rows = append(data.Rows, []string{
			e.IDHash,
			e.Source,
			e.CreatedAt.Time.Format(time.RFC3339),
			e.UpdatedAt.Time.Format(time.RFC3339),
		})
	}
	return data
}

// SchemaData renders the case record defaults, one key per row.
func SchemaData(schema map[string]any) Data {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := Data{Headers: []string{"Field", "Default"}}
	for _, k := range keys {
		data.Rows = append(data.Rows, []string{k, fmt.Sprintf("%v", schema[k])})
	}
	return data
}
