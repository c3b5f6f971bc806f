package store_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/internal/store"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

func sample() observation.Batch {
	return observation.Batch{
		{
			"_sc_source": "youtube_video",
			"id":         "abc",
			"_sc_media":  []any{map[string]any{"type": "video", "term": "abc"}},
		},
		{"_sc_source": "twitter_feed", "id_str": "t1", "lat": 35.5},
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, store.FormatNDJSON, store.FormatFor("in.jsonl"))
	assert.Equal(t, store.FormatNDJSON, store.FormatFor("in.ndjson"))
	assert.Equal(t, store.FormatYAML, store.FormatFor("dir/in.YML"))
	assert.Equal(t, store.FormatJSON, store.FormatFor("in.json"))
	assert.Equal(t, store.FormatJSON, store.FormatFor("in"))
}

func TestParseFormat(t *testing.T) {
	f, err := store.ParseFormat(" JSONL ")
	require.NoError(t, err)
	assert.Equal(t, store.FormatNDJSON, f)

	_, err = store.ParseFormat("xml")
	assert.True(t, errors.IsValidationError(err))
}

func TestCodecsRoundTrip(t *testing.T) {
	for _, f := range store.Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, store.Encode(&buf, f, sample()))

			got, err := store.Decode(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)
		})
	}
}

func TestDecodeSingleObject(t *testing.T) {
	got, err := store.Decode(strings.NewReader(`{"id": "x"}`), store.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, observation.Batch{{"id": "x"}}, got)
}

func TestDecodeEmpty(t *testing.T) {
	for _, f := range store.Formats() {
		got, err := store.Decode(strings.NewReader("  \n"), f)
		require.NoError(t, err, f)
		assert.Empty(t, got, f)
	}
}

func TestDecodeNDJSONReportsLine(t *testing.T) {
	_, err := store.Decode(strings.NewReader("{\"a\":1}\n\n{broken\n"), store.FormatNDJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestEncodeNilAsEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, store.Encode[observation.Observation](&buf, store.FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "batch.ndjson")

	require.NoError(t, store.WriteFile(path, "", sample()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	got, err := store.ReadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReadFileErrors(t *testing.T) {
	_, err := store.ReadFile(filepath.Join(t.TempDir(), "missing.json"), "")
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[{"), 0o644))
	_, err = store.ReadFile(bad, "")
	assert.True(t, errors.IsParseError(err))
}
