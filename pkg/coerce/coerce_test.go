package coerce_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/pkg/coerce"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

func withCID(cid map[string]any) observation.Observation {
	return observation.Observation{"_sc_source": "youtube_video", "cid": cid}
}

func cidOf(t *testing.T, obs observation.Observation) map[string]any {
	t.Helper()
	cid, ok := obs.CaseRecord()
	require.True(t, ok, "cid should be a map")
	return cid
}

func TestBool(t *testing.T) {
	tests := []struct {
		name      string
		in        any
		want      any
		rewritten bool
	}{
		{"upper FALSE", "FALSE", false, true},
		{"padded FALSE", "  FALSE ", false, true},
		{"lower false is true", "false", true, true},
		{"TRUE", "TRUE", true, true},
		{"empty string", "", true, true},
		{"number", 0, true, true},
		{"bool true", true, true, false},
		{"bool false", false, false, false},
		{"null", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rewritten := coerce.Bool(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rewritten, rewritten)
		})
	}
}

func TestBooleans(t *testing.T) {
	in := withCID(map[string]any{
		"relevant": "FALSE",
		"verified": "TRUE",
		"online":   true,
		"public":   nil,
		"title":    "FALSE",
	})

	out, issues := coerce.Booleans(in)
	assert.Empty(t, issues)

	cid := cidOf(t, out)
	assert.Equal(t, false, cid["relevant"])
	assert.Equal(t, true, cid["verified"])
	assert.Equal(t, true, cid["online"])
	assert.Nil(t, cid["public"])
	assert.Equal(t, "FALSE", cid["title"], "fields outside the allow-list are untouched")

	// input is not mutated
	assert.Equal(t, "FALSE", in["cid"].(map[string]any)["relevant"])

	again, _ := coerce.Booleans(out)
	assert.Equal(t, out, again)
}

func TestBooleansWithoutCaseRecord(t *testing.T) {
	in := observation.Observation{"_sc_source": "fs_unfold", "cid": nil}
	out, issues := coerce.Booleans(in)
	assert.Empty(t, issues)
	assert.Equal(t, in, out)
}

func TestViolations(t *testing.T) {
	in := withCID(map[string]any{
		"type_of_violation": map[string]any{
			"Unlawful Attacks ": "TRUE",
			"Torture":           "FALSE",
			"detention":         "FALSE",
			"Detention":         "TRUE",
			"other":             false,
		},
	})

	out, issues := coerce.Violations(in)
	assert.Empty(t, issues)

	violations := cidOf(t, out)["type_of_violation"].(map[string]any)
	assert.Equal(t, map[string]any{
		"unlawful_attacks": true,
		"torture":          false,
		"detention":        false,
		"other":            false,
	}, violations)

	again, _ := coerce.Violations(out)
	assert.Equal(t, out, again)
}

func TestViolationKey(t *testing.T) {
	assert.Equal(t, "unlawful_attacks", coerce.ViolationKey(" Unlawful  Attacks "))
	assert.Equal(t, "torture", coerce.ViolationKey("TORTURE"))
}

func TestEmptyToNull(t *testing.T) {
	in := withCID(map[string]any{"title": "", "summary": "x", "notes": " "})

	out, issues := coerce.EmptyToNull(in)
	assert.Empty(t, issues)

	cid := cidOf(t, out)
	assert.Nil(t, cid["title"])
	assert.Equal(t, "x", cid["summary"])
	assert.Equal(t, " ", cid["notes"])
}

func TestDates(t *testing.T) {
	in := observation.Observation{
		"cid": map[string]any{
			"incident_date":       "2017-03-04T10:00:00Z",
			"date_of_acquisition": "2017-03-05",
			"upload_date":         nil,
			"date_of_fixity":      float64(1488621600000),
		},
		"_sc_pubdates": map[string]any{
			"fetch":  "2017-03-05 08:30:00",
			"source": "2017/03/04",
		},
	}

	out, issues := coerce.Dates(in)
	assert.Empty(t, issues)

	cid := cidOf(t, out)
	assert.Equal(t, time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC), cid["incident_date"])
	assert.Equal(t, time.Date(2017, 3, 5, 0, 0, 0, 0, time.UTC), cid["date_of_acquisition"])
	assert.Nil(t, cid["upload_date"])
	assert.Equal(t, time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC), cid["date_of_fixity"])

	pub := out.PubDates()
	assert.Equal(t, time.Date(2017, 3, 5, 8, 30, 0, 0, time.UTC), pub["fetch"])
	assert.Equal(t, time.Date(2017, 3, 4, 0, 0, 0, 0, time.UTC), pub["source"])

	again, issues := coerce.Dates(out)
	assert.Empty(t, issues)
	assert.Equal(t, out, again)
}

func TestDatesKeepsMalformedValue(t *testing.T) {
	in := withCID(map[string]any{"incident_date": "04/03/2017"})

	out, issues := coerce.Dates(in)
	require.Len(t, issues, 1)
	assert.True(t, errors.IsMalformedValue(issues[0]))

	var pe *errors.ParseError
	require.True(t, errors.As(issues[0], &pe))
	assert.Equal(t, "cid.incident_date", pe.Field)
	assert.Equal(t, "04/03/2017", pe.Value)

	assert.Equal(t, "04/03/2017", cidOf(t, out)["incident_date"])
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"35.8125", 35.8125},
		{"-35.8125", -35.8125},
		{`35°48'45"N`, 35.8125},
		{"35 48 45 N", 35.8125},
		{"35 48 45 S", -35.8125},
		{"35°48.75'W", -35.8125},
		{"N 35 48 45", 35.8125},
		{"35.5S", -35.5},
		{"36 e", 36},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := coerce.ParseDMS(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDMSErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "north", "35 61 00 N", "1 2 3 4", "35x48"} {
		t.Run(in, func(t *testing.T) {
			_, err := coerce.ParseDMS(in)
			assert.Error(t, err)
		})
	}
}

func TestCoordinates(t *testing.T) {
	in := withCID(map[string]any{
		"latitude":  `35°48'45"N`,
		"longitude": "36.5",
	})

	out, issues := coerce.Coordinates(in)
	assert.Empty(t, issues)

	cid := cidOf(t, out)
	assert.InDelta(t, 35.8125, cid["latitude"], 1e-9)
	assert.Equal(t, 36.5, cid["longitude"])

	again, _ := coerce.Coordinates(out)
	assert.Equal(t, out, again)
}

func TestCoordinatesHalfLocationGuard(t *testing.T) {
	tests := []struct {
		name string
		cid  map[string]any
	}{
		{"blank longitude", map[string]any{"latitude": "35.1", "longitude": "  "}},
		{"missing latitude", map[string]any{"longitude": "36.2"}},
		{"null latitude", map[string]any{"latitude": nil, "longitude": 36.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, issues := coerce.Coordinates(withCID(tt.cid))
			assert.Empty(t, issues)

			cid := cidOf(t, out)
			assert.Nil(t, cid["latitude"])
			assert.Nil(t, cid["longitude"])
			assert.Contains(t, cid, "latitude")
			assert.Contains(t, cid, "longitude")
		})
	}
}

func TestCoordinatesMalformed(t *testing.T) {
	in := withCID(map[string]any{"latitude": "somewhere", "longitude": "36.5"})

	out, issues := coerce.Coordinates(in)
	require.Len(t, issues, 1)
	assert.True(t, errors.IsMalformedValue(issues[0]))

	cid := cidOf(t, out)
	assert.Equal(t, "somewhere", cid["latitude"])
	assert.Equal(t, 36.5, cid["longitude"])
}

func TestDownloadTimestamps(t *testing.T) {
	in := observation.Observation{
		"_sc_downloads": []any{
			map[string]any{"type": "video", "term": "a", "timestamp": "failed"},
			map[string]any{"type": "video", "term": "b", "timestamp": "2017-01-01"},
		},
	}

	out, issues := coerce.DownloadTimestamps(in)
	assert.Empty(t, issues)

	downloads := out.Entities("_sc_downloads")
	require.Len(t, downloads, 2)
	assert.NotContains(t, downloads[0], "timestamp")
	assert.Equal(t, "2017-01-01", downloads[1]["timestamp"])

	// the input keeps its failed marker
	assert.Equal(t, "failed", in.Entities("_sc_downloads")[0]["timestamp"])

	again, _ := coerce.DownloadTimestamps(out)
	assert.Equal(t, out, again)
}

func TestBooleansOf(t *testing.T) {
	relevantOnly := coerce.BooleansOf("relevant")
	out, _ := relevantOnly(withCID(map[string]any{"relevant": " FALSE", "verified": "TRUE"}))

	cid := cidOf(t, out)
	assert.Equal(t, false, cid["relevant"])
	assert.Equal(t, "TRUE", cid["verified"])
}

func TestCoordinatesRejectNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Infinity", "+inf"} {
		t.Run(raw, func(t *testing.T) {
			_, err := coerce.ParseDMS(raw)
			assert.Error(t, err)

			out, issues := coerce.Coordinates(withCID(map[string]any{"latitude": raw, "longitude": "36.1"}))
			require.Len(t, issues, 1)
			assert.True(t, errors.IsMalformedValue(issues[0]))

			cid := cidOf(t, out)
			assert.Equal(t, raw, cid["latitude"], "raw value is kept")
			assert.Equal(t, 36.1, cid["longitude"])
		})
	}

	_, _, err := coerce.Coordinate(math.NaN())
	assert.Error(t, err)
	_, _, err = coerce.Coordinate(math.Inf(-1))
	assert.Error(t, err)
}

func TestViolationsCollisionIsDeterministic(t *testing.T) {
	in := withCID(map[string]any{
		"type_of_violation": map[string]any{
			"Hostage Taking": "FALSE",
			"HOSTAGE_TAKING": "TRUE",
		},
	})

	for i := 0; i < 20; i++ {
		out, _ := coerce.Violations(in)
		violations := cidOf(t, out)["type_of_violation"].(map[string]any)
		assert.Equal(t, map[string]any{"hostage_taking": true}, violations)
	}
}

func TestDownloadTimestampsKeepsUnknownMembers(t *testing.T) {
	in := observation.Observation{
		"_sc_downloads": []any{
			"raw-download",
			map[string]any{"type": "video", "term": "a", "timestamp": "failed"},
		},
	}

	out, _ := coerce.DownloadTimestamps(in)
	downloads := out["_sc_downloads"].([]any)
	require.Len(t, downloads, 2)
	assert.Equal(t, "raw-download", downloads[0])
	assert.NotContains(t, downloads[1], "timestamp")

	notAList := observation.Observation{"_sc_downloads": map[string]any{"timestamp": "failed"}}
	same, _ := coerce.DownloadTimestamps(notAList)
	assert.Equal(t, notAList, same)
}
