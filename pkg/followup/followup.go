// Package followup derives follow-up queries from links found on
// observations, so a later collection run can fetch the linked posts.
package followup

import (
	"regexp"

	"github.com/agentstation/custody/pkg/observation"
)

// Query is a follow-up query for a source connector.
type Query struct {
	Type string `json:"type" yaml:"type"`
	Term string `json:"term" yaml:"term"`
}

// Query types.
const (
	TwitterTweet = "twitter_tweet"
	YoutubeVideo = "youtube_video"
	TelegramPost = "telegram_post"
	FacebookPost = "facebook_post"
)

// Rule matches a link field against a pattern.
type Rule struct {
	Type    string
	Field   string
	Pattern *regexp.Regexp
}

// DefaultRules are tried in order; the first match wins.
var DefaultRules = []Rule{
	{Type: TwitterTweet, Field: "source", Pattern: regexp.MustCompile(`twitter\.com/.*/status`)},
	{Type: YoutubeVideo, Field: "video", Pattern: regexp.MustCompile(`youtube|youtu\.be`)},
	{Type: TelegramPost, Field: "source", Pattern: regexp.MustCompile(`t\.me`)},
	{Type: FacebookPost, Field: "source", Pattern: regexp.MustCompile(`facebook|fb`)},
}

// Derive returns the follow-up query for each observation that links to a
// known platform, de-duplicated by type and term.
func Derive(batch observation.Batch) []Query {
	return DeriveWith(batch, DefaultRules)
}

// DeriveWith is Derive with a custom rule list.
func DeriveWith(batch observation.Batch, rules []Rule) []Query {
	seen := make(map[Query]bool)
	var out []Query
	for _, obs := range batch {
		q, ok := match(obs, rules)
		if !ok || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

func match(obs observation.Observation, rules []Rule) (Query, bool) {
	for _, r := range rules {
		link, ok := obs[r.Field].(string)
		if !ok || link == "" {
			continue
		}
		if r.Pattern.MatchString(link) {
			return Query{Type: r.Type, Term: link}, true
		}
	}
	return Query{}, false
}
