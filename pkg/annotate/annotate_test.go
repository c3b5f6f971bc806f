package annotate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/custody/pkg/annotate"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/observation"
)

func youtubeObservation() observation.Observation {
	return observation.Observation{
		"_sc_source":         "youtube_video",
		"_sc_id_fields":      []any{"id"},
		"_sc_content_fields": []any{"snippet.title", "cid"},
		"id":                 "v1",
		"_sc_media":          []any{map[string]any{"type": "video", "term": "v1"}},
		"_sc_downloads": []any{
			map[string]any{"term": "v1", "location": "f.mp4", "sha256": "abc", "md5": "d41d"},
		},
		"snippet": map[string]any{"title": "T", "description": "D", "channelTitle": "C"},
	}
}

func TestAnnotateYoutubeEndToEnd(t *testing.T) {
	obs := youtubeObservation()

	out, err := annotate.Annotate(obs)
	require.NoError(t, err)

	cid, ok := out.CaseRecord()
	require.True(t, ok)

	assert.Equal(t, "T", cid["online_title"])
	assert.Equal(t, "T", cid["online_title_en"])
	assert.Equal(t, "D", cid["description"])
	assert.Equal(t, "C", cid["creator"])
	assert.Equal(t, "C", cid["rights_owner"])
	assert.Equal(t, "v1", cid["online_link"])
	assert.Equal(t, "f.mp4", cid["filename"])
	assert.Equal(t, "abc", cid["sha256_hash"])
	assert.Equal(t, "d41d", cid["md5_hash"])
	assert.Nil(t, cid["view_count"])
	assert.Equal(t, false, cid["online"])
	assert.Equal(t, []any{}, cid["keywords"])

	hash, err := identity.NewSHA256().Hash(map[string]any{"id": "v1"})
	require.NoError(t, err)
	assert.Equal(t, hash[:8], cid["reference_code"])

	assert.Equal(t, []string{"snippet.title", "cid"}, out.ContentFields())

	// the rest of the observation passes through
	assert.Equal(t, obs["snippet"], out["snippet"])
	assert.Nil(t, obs["cid"], "input is untouched")
}

func TestAnnotateOnce(t *testing.T) {
	obs := observation.Observation{
		"_sc_source": "youtube_video",
		"cid":        map[string]any{"relevant": true},
	}

	out, err := annotate.Annotate(obs)
	require.NoError(t, err)
	assert.Equal(t, obs, out)
}

func TestAnnotateIsIdempotent(t *testing.T) {
	once, err := annotate.Annotate(youtubeObservation())
	require.NoError(t, err)
	twice, err := annotate.Annotate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestAnnotateDates(t *testing.T) {
	src := time.Date(2017, 3, 4, 0, 0, 0, 0, time.UTC)
	obs := observation.Observation{
		"_sc_source":   "fs_unfold",
		"_sc_id_hash":  "0123456789abcdef",
		"_sc_pubdates": map[string]any{"source": src, "fetch": "2017-03-05"},
	}

	out, err := annotate.Annotate(obs)
	require.NoError(t, err)

	cid, _ := out.CaseRecord()
	assert.Equal(t, "01234567", cid["reference_code"])
	assert.Equal(t, src, cid["incident_date"])
	assert.Equal(t, src, cid["upload_date"])
	assert.Equal(t, time.Date(2017, 3, 5, 0, 0, 0, 0, time.UTC), cid["date_of_acquisition"])
}

func TestAnnotateUnknownSource(t *testing.T) {
	out, err := annotate.Annotate(observation.Observation{"_sc_source": "carrier_pigeon", "title": "x"})
	require.NoError(t, err)

	cid, ok := out.CaseRecord()
	require.True(t, ok)
	assert.Nil(t, cid["online_title"])
	assert.Nil(t, cid["reference_code"])
	assert.Len(t, cid, 51)
	assert.Equal(t, []string{"cid"}, out.ContentFields())
}

func TestAnnotateStaffID(t *testing.T) {
	a := annotate.New(annotate.WithStaffID("analyst-7"))
	out, err := a.Annotate(observation.Observation{"_sc_source": "fs_unfold"})
	require.NoError(t, err)
	cid, _ := out.CaseRecord()
	assert.Equal(t, "analyst-7", cid["staff_id"])

	out, err = annotate.Annotate(observation.Observation{"_sc_source": "fs_unfold"})
	require.NoError(t, err)
	cid, _ = out.CaseRecord()
	assert.Nil(t, cid["staff_id"])
}

func TestAnnotateHasherError(t *testing.T) {
	failing := identity.HasherFunc(func(any) (string, error) { return "", assert.AnError })
	a := annotate.New(annotate.WithHasher(failing))

	obs := observation.Observation{"_sc_id_fields": []any{"id"}, "id": "x"}
	out, err := a.Annotate(obs)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, obs, out)
}

func TestAnnotateEmptyStringsBecomeNull(t *testing.T) {
	obs := youtubeObservation()
	obs["snippet"] = map[string]any{"title": "", "description": "D"}

	out, err := annotate.Annotate(obs)
	require.NoError(t, err)
	cid, _ := out.CaseRecord()
	assert.Nil(t, cid["online_title"])
	assert.Contains(t, cid, "online_title")
}

func TestYoutubeRecordingLocation(t *testing.T) {
	obs := youtubeObservation()
	obs["recordingDetails"] = map[string]any{
		"location": map[string]any{"latitude": 36.2, "longitude": 37.1},
	}

	fields := annotate.Youtube(obs)
	assert.Equal(t, 36.2, fields["latitude"])
	assert.Equal(t, 37.1, fields["longitude"])

	// an extracted location entity takes precedence over the raw shape
	obs["_sc_locations"] = []any{map[string]any{
		"type":     "youtube_recording",
		"location": map[string]any{"lon": 1.5, "lat": 2.5},
		"term":     []any{1.5, 2.5},
	}}
	fields = annotate.Youtube(obs)
	assert.Equal(t, 2.5, fields["latitude"])
	assert.Equal(t, 1.5, fields["longitude"])
}

func TestTwitter(t *testing.T) {
	fields := annotate.Twitter(observation.Observation{
		"tweet":    "shelling reported",
		"tweet_id": "9001",
		"user":     map[string]any{"screen_name": "reporter", "user_id": "42"},
	})

	assert.Equal(t, "shelling reported", fields["online_title"])
	assert.Equal(t, "shelling reported", fields["description"])
	assert.Equal(t, "https://twitter.com/reporter/status/9001", fields["online_link"])
	assert.Equal(t, "42", fields["channel_id"])
	assert.Equal(t, "reporter", fields["creator"])
	assert.Nil(t, fields["filename"])

	noUser := annotate.Twitter(observation.Observation{"tweet": "x"})
	assert.Nil(t, noUser["online_link"])
	assert.Nil(t, noUser["creator"])
}

func TestFacebook(t *testing.T) {
	fields := annotate.Facebook(observation.Observation{
		"message": "M",
		"link":    "https://facebook.com/p/1",
		"from":    map[string]any{"id": "7", "name": "Page"},
	})

	assert.Equal(t, "M", fields["online_title"])
	assert.Equal(t, "https://facebook.com/p/1", fields["online_link"])
	assert.Equal(t, "7", fields["channel_id"])
	assert.Equal(t, "Page", fields["acquired_from"])
}

func TestTelegramAndLiveuamap(t *testing.T) {
	tg := annotate.Telegram(observation.Observation{
		"description":  "post",
		"href":         "https://t.me/c/1",
		"channelTitle": "Channel",
	})
	assert.Equal(t, "post", tg["online_title"])
	assert.Equal(t, "https://t.me/c/1", tg["online_link"])
	assert.Equal(t, "Channel", tg["creator"])

	lm := annotate.Liveuamap(observation.Observation{
		"description": "event",
		"source":      "https://twitter.com/a/status/1",
		"location":    "Idlib",
		"lat":         "35.5",
		"lon":         "36.5",
	})
	assert.Equal(t, "event", lm["online_title"])
	assert.Equal(t, "https://twitter.com/a/status/1", lm["online_link"])
	assert.Equal(t, "Idlib", lm["location"])
	assert.Equal(t, 35.5, lm["latitude"])
	assert.Equal(t, 36.5, lm["longitude"])
}

func TestFilesystem(t *testing.T) {
	fields := annotate.Filesystem(observation.Observation{
		"_sc_media":     []any{map[string]any{"type": "video", "term": "/data/a.mp4"}},
		"_sc_downloads": []any{map[string]any{"term": "/data/a.mp4", "location": "a.mp4", "sha256": "ff"}},
	})
	assert.Equal(t, map[string]any{"filename": "a.mp4", "md5_hash": nil, "sha256_hash": "ff"}, fields)
}

func TestPrimaryDownload(t *testing.T) {
	obs := observation.Observation{
		"_sc_media": []any{
			map[string]any{"type": "image", "term": "i"},
			map[string]any{"type": "video", "term": "v"},
			map[string]any{"type": "video", "term": "w"},
		},
		"_sc_downloads": []any{
			map[string]any{"term": "w"},
			map[string]any{"term": "v", "location": "v.mp4"},
		},
	}

	media, download := annotate.PrimaryDownload(obs)
	assert.Equal(t, "v", media.Term())
	assert.Equal(t, "v.mp4", download["location"])

	media, download = annotate.PrimaryDownload(observation.Observation{
		"_sc_media": []any{map[string]any{"type": "video", "term": "x"}},
	})
	assert.Equal(t, "x", media.Term())
	assert.Nil(t, download)

	media, download = annotate.PrimaryDownload(observation.Observation{})
	assert.Nil(t, media)
	assert.Nil(t, download)
}

func TestRegistry(t *testing.T) {
	reg := annotate.DefaultRegistry()
	assert.Len(t, reg.Sources(), 8)

	_, ok := reg.Lookup("twitter_tweet")
	assert.True(t, ok)
	_, ok = reg.Lookup("myspace")
	assert.False(t, ok)

	custom := annotate.Registry{"myspace": func(observation.Observation) map[string]any {
		return map[string]any{"creator": "tom"}
	}}
	out, err := annotate.New(annotate.WithRegistry(custom)).Annotate(observation.Observation{"_sc_source": "myspace"})
	require.NoError(t, err)
	cid, _ := out.CaseRecord()
	assert.Equal(t, "tom", cid["creator"])
}

func TestAnnotateLeavesContentFieldsBackingArray(t *testing.T) {
	fields := make([]string, 1, 4)
	fields[0] = "snippet.title"
	obs := observation.Observation{
		"_sc_source":         "youtube_video",
		"_sc_id_hash":        "0123456789abcdef",
		"_sc_content_fields": fields,
	}

	out, err := annotate.Annotate(obs)
	require.NoError(t, err)

	assert.Equal(t, []string{"snippet.title", "cid"}, out.ContentFields())
	assert.Equal(t, []string{"snippet.title"}, fields)
	assert.Empty(t, fields[:2][1], "spare capacity is not written to")
}
