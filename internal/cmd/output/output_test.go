package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/internal/cmd/output"
	"github.com/agentstation/custody/internal/store"
	"github.com/agentstation/custody/pkg/pipeline"
)

func TestParseFormat(t *testing.T) {
	f, err := output.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, output.FormatYAML, f)

	_, err = output.ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, output.FormatYAML, output.DetectFormat("yaml"))
}

func TestTableFromStructSlice(t *testing.T) {
	var buf bytes.Buffer
	rows := []output.TransformRow{{Name: "annotate", Component: "annotate", Versions: []string{"v1", "v2"}}}
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, rows))

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "annotate")
}

func TestTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestWriteUsesTableData(t *testing.T) {
	var buf bytes.Buffer
	called := false
	err := output.Write(&buf, output.FormatTable, nil, func() output.Data {
		called = true
		return output.Data{Headers: []string{"x"}, Rows: [][]string{{"y"}}}
	})
	require.NoError(t, err)
	assert.True(t, called)

	buf.Reset()
	require.NoError(t, output.Write(&buf, output.FormatJSON, []string{"z"}, nil))
	assert.JSONEq(t, `["z"]`, buf.String())
}

func TestReportData(t *testing.T) {
	report := &pipeline.Report{
		RunID:        "run-1",
		Version:      "v2",
		Transforms:   []string{"coerce-dates", "annotate"},
		Observations: 3,
		Changed:      2,
		ByTransform:  map[string]int{"annotate": 2},
		Issues:       []pipeline.Issue{{Index: 1, Transform: "coerce-dates", Field: "cid.incident_date", Message: "bad"}},
	}

	data := output.ReportData(report)
	assert.Contains(t, data.Rows, []string{"  annotate", "2"})
	assert.NotContains(t, data.Rows, []string{"  coerce-dates", "0"})
	assert.Contains(t, data.Rows, []string{"issues", "1"})

	issues := output.IssuesData(report)
	require.Len(t, issues.Rows, 1)
	assert.Equal(t, "cid.incident_date", issues.Rows[0][3])
}

func TestTransforms(t *testing.T) {
	p, err := pipeline.New()
	require.NoError(t, err)

	rows := output.Transforms(p.Registry())
	require.NotEmpty(t, rows)

	byName := map[string]output.TransformRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, []string{"v1", "v2"}, byName["annotate"].Versions)
	assert.Equal(t, []string{"v1"}, byName["coerce-relevant"].Versions)
	assert.Equal(t, []string{"v2"}, byName["extract-locations"].Versions)
	assert.Len(t, output.TransformsData(rows).Rows, len(rows))
}

func TestEntriesAndSchemaData(t *testing.T) {
	ts := utc.Time{Time: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)}
	data := output.EntriesData([]store.Entry{{IDHash: "h", Source: "youtube_video", CreatedAt: ts, UpdatedAt: ts}})
	assert.Equal(t, [][]string{{"h", "youtube_video", "2020-01-02T03:04:05Z", "2020-01-02T03:04:05Z"}}, data.Rows)

	schema := output.SchemaData(map[string]any{"b": nil, "a": false})
	assert.Equal(t, [][]string{{"a", "false"}, {"b", "<nil>"}}, schema.Rows)
}
