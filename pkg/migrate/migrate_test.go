package migrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/migrate"
	"github.com/agentstation/custody/pkg/observation"
)

func TestPipelineDate(t *testing.T) {
	early := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2017, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		pubdates  map[string]any
		wantFetch any
	}{
		{"pipeline earlier", map[string]any{"fetch": late, "pipeline": early}, early},
		{"fetch earlier", map[string]any{"fetch": early, "pipeline": late}, early},
		{"fetch missing", map[string]any{"pipeline": late}, late},
		{"string dates", map[string]any{"fetch": "2017-02-01", "pipeline": "2017-01-01"}, "2017-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := observation.Observation{"_sc_pubdates": tt.pubdates}

			out, issues := migrate.PipelineDate(in)
			assert.Empty(t, issues)

			pub := out.PubDates()
			assert.Equal(t, tt.wantFetch, pub["fetch"])
			assert.NotContains(t, pub, "pipeline")
			assert.Contains(t, tt.pubdates, "pipeline", "input is untouched")

			again, _ := migrate.PipelineDate(out)
			assert.Equal(t, out, again)
		})
	}
}

func TestPipelineDateKeepsSourceDate(t *testing.T) {
	src := time.Date(2016, 12, 24, 0, 0, 0, 0, time.UTC)
	in := observation.Observation{"_sc_pubdates": map[string]any{
		"source":   src,
		"pipeline": time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	out, _ := migrate.PipelineDate(in)
	assert.Equal(t, src, out.PubDates()["source"])
}

func TestPipelineDateUnparseable(t *testing.T) {
	in := observation.Observation{"_sc_pubdates": map[string]any{
		"fetch":    "2017-02-01",
		"pipeline": "last tuesday",
	}}

	out, issues := migrate.PipelineDate(in)
	require.Len(t, issues, 1)
	assert.True(t, errors.IsMalformedValue(issues[0]))
	assert.Equal(t, in, out, "both dates are kept for the next run")

	both := observation.Observation{"_sc_pubdates": map[string]any{
		"fetch":    "2020-05-01T00:00:00Z",
		"pipeline": "01/02/2019",
	}}
	out, issues = migrate.PipelineDate(both)
	assert.Len(t, issues, 1)
	assert.Equal(t, "01/02/2019", out.PubDates()["pipeline"])
	assert.Equal(t, "2020-05-01T00:00:00Z", out.PubDates()["fetch"])
}

func TestPipelineDateNoop(t *testing.T) {
	in := observation.Observation{"_sc_pubdates": map[string]any{"fetch": "x", "pipeline": nil}}
	out, issues := migrate.PipelineDate(in)
	assert.Empty(t, issues)
	assert.Equal(t, in, out)
}

func TestContentField(t *testing.T) {
	in := observation.Observation{"_sc_content_fields": []any{"snippet.title", "dem", "cid"}}

	out, issues := migrate.ContentField(in)
	assert.Empty(t, issues)
	assert.Equal(t, []string{"snippet.title", "cid"}, out.ContentFields())

	again, _ := migrate.ContentField(out)
	assert.Equal(t, out, again)

	untouched := observation.Observation{"_sc_content_fields": []any{"tweet"}}
	same, _ := migrate.ContentField(untouched)
	assert.Equal(t, untouched, same)
}

func TestMediaSubtype(t *testing.T) {
	in := observation.Observation{
		"_sc_media": []any{
			map[string]any{"type": "thumbnail", "term": "https://i.ytimg.com/a.jpg", "_sc_id_hash": "old"},
			map[string]any{"type": "youtube_video", "term": "https://youtu.be/abc"},
			map[string]any{"type": "url", "term": "https://example.com"},
		},
		"_sc_downloads": []any{
			map[string]any{"type": "youtube_video", "term": "https://youtu.be/abc", "_sc_id_hash": "old"},
			map[string]any{"type": "thumbnail_file", "term": "https://i.ytimg.com/a.jpg"},
			map[string]any{"type": "twitter_video", "term": "https://twitter.com/x/status/1"},
		},
		"_sc_content_fields": []any{"youtube_video", "snippet.title"},
	}

	out, issues := migrate.MediaSubtype(in)
	assert.Empty(t, issues)

	media := out.Entities("_sc_media")
	require.Len(t, media, 3)
	assert.Equal(t, "image", media[0].Type())
	assert.NotContains(t, media[0], "_sc_id_hash")
	assert.Equal(t, "video", media[1].Type())
	assert.Equal(t, "url", media[2].Type())

	downloads := out.Entities("_sc_downloads")
	require.Len(t, downloads, 3)
	assert.Equal(t, "video", downloads[0].Type())
	assert.NotContains(t, downloads[0], "_sc_id_hash")
	assert.Equal(t, "image", downloads[1].Type(), "correlated by term")
	assert.Equal(t, "video", downloads[2].Type(), "unmatched deprecated entity is kept and re-tagged")

	assert.Equal(t, []string{"video", "snippet.title"}, out.ContentFields())

	// input untouched
	assert.Equal(t, "thumbnail", in.Entities("_sc_media")[0].Type())

	again, _ := migrate.MediaSubtype(out)
	assert.Equal(t, out, again)
}

func TestMediaSubtypeCustomTable(t *testing.T) {
	m := migrate.New(migrate.WithSubtypes(map[string]string{"clip": "video"}))

	out, _ := m.MediaSubtype(observation.Observation{
		"_sc_media": []any{
			map[string]any{"type": "thumbnail", "term": "a"},
			map[string]any{"type": "clip", "term": "b"},
		},
	})

	media := out.Entities("_sc_media")
	assert.Equal(t, "thumbnail", media[0].Type())
	assert.Equal(t, "video", media[1].Type())
}

func TestContentFieldCustomTable(t *testing.T) {
	m := migrate.New(migrate.WithContentFields(map[string]string{"annotations": "cid"}))

	out, _ := m.ContentField(observation.Observation{"_sc_content_fields": []any{"annotations", "dem"}})
	assert.Equal(t, []string{"cid", "dem"}, out.ContentFields())
}

func TestMediaSubtypeKeepsUnknownMembers(t *testing.T) {
	in := observation.Observation{
		"_sc_media": []any{
			"https://example.com/raw",
			map[string]any{"type": "thumbnail", "term": "a"},
		},
		"_sc_downloads": map[string]any{"type": "thumbnail", "term": "a"},
	}

	out, issues := migrate.MediaSubtype(in)
	assert.Empty(t, issues)

	media := out["_sc_media"].([]any)
	require.Len(t, media, 2)
	assert.Equal(t, "https://example.com/raw", media[0])
	assert.Equal(t, "image", media[1].(map[string]any)["type"])
	assert.Equal(t, in["_sc_downloads"], out["_sc_downloads"])
}
