package followup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/custody/pkg/followup"
	"github.com/agentstation/custody/pkg/observation"
)

func TestDerive(t *testing.T) {
	batch := observation.Batch{
		{"source": "https://twitter.com/someone/status/1"},
		{"source": "https://example.com", "video": "https://www.youtube.com/watch?v=abc"},
		{"source": "https://t.me/channel/12"},
		{"source": "https://www.facebook.com/page/posts/3"},
		{"source": "https://twitter.com/someone/status/1"},
		{"source": "https://example.com/article"},
		{"_sc_source": "youtube_video"},
	}

	assert.Equal(t, []followup.Query{
		{Type: "twitter_tweet", Term: "https://twitter.com/someone/status/1"},
		{Type: "youtube_video", Term: "https://www.youtube.com/watch?v=abc"},
		{Type: "telegram_post", Term: "https://t.me/channel/12"},
		{Type: "facebook_post", Term: "https://www.facebook.com/page/posts/3"},
	}, followup.Derive(batch))
}

func TestDeriveTweetWinsOverVideo(t *testing.T) {
	queries := followup.Derive(observation.Batch{
		{"source": "https://twitter.com/a/status/9", "video": "https://youtu.be/x"},
	})
	assert.Equal(t, []followup.Query{{Type: "twitter_tweet", Term: "https://twitter.com/a/status/9"}}, queries)
}

func TestDeriveNothing(t *testing.T) {
	assert.Empty(t, followup.Derive(nil))
}
