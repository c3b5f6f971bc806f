package annotate

import (
	"fmt"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/locations"
	"github.com/agentstation/custody/pkg/observation"
)

// Youtube reads the snippet, statistics and recording location of a video.
func Youtube(obs observation.Observation) map[string]any {
	media, _ := PrimaryDownload(obs)

	fields := fileFields(obs)
	fields["language"] = obs[constants.FieldLanguage]
	fields["online_link"] = media[constants.EntityTerm]
	fields["channel_id"] = observation.Get(obs, "snippet.channelId")
	fields["view_count"] = observation.Get(obs, "statistics.viewCount")
	fields["duration"] = observation.Get(obs, "contentDetails.duration")
	titled(fields, observation.Get(obs, "snippet.title"), observation.Get(obs, "snippet.description"))
	credited(fields, observation.Get(obs, "snippet.channelTitle"))

	if loc, ok := platformLocation(obs, locations.TypeYoutubeRecording, locations.YoutubeRecording); ok {
		fields["longitude"] = loc.Lon
		fields["latitude"] = loc.Lat
	}
	return fields
}

// Twitter reads the tweet text and author and builds the permalink.
func Twitter(obs observation.Observation) map[string]any {
	tweet := obs["tweet"]
	screenName := observation.String(observation.Get(obs, "user.screen_name"))
	tweetID := observation.String(obs["tweet_id"])

	fields := fileFields(obs)
	fields["language"] = obs[constants.FieldLanguage]
	fields["channel_id"] = observation.Get(obs, "user.user_id")
	if screenName != "" && tweetID != "" {
		fields["online_link"] = fmt.Sprintf("https://twitter.com/%s/status/%s", screenName, tweetID)
	}
	titled(fields, tweet, tweet)
	credited(fields, observation.NullIfEmpty(screenName))
	return fields
}

// Facebook reads the message, link and author of a feed post.
func Facebook(obs observation.Observation) map[string]any {
	message := obs["message"]

	fields := fileFields(obs)
	fields["language"] = obs[constants.FieldLanguage]
	fields["online_link"] = obs["link"]
	fields["channel_id"] = observation.Get(obs, "from.id")
	titled(fields, message, message)
	credited(fields, observation.Get(obs, "from.name"))
	return fields
}

// Filesystem only knows the imported file.
func Filesystem(obs observation.Observation) map[string]any {
	return fileFields(obs)
}

// Telegram reads the post text, link and channel title.
func Telegram(obs observation.Observation) map[string]any {
	description := obs["description"]

	fields := fileFields(obs)
	fields["language"] = obs[constants.FieldLanguage]
	fields["online_link"] = obs["href"]
	titled(fields, description, description)
	credited(fields, obs["channelTitle"])
	return fields
}

// Liveuamap reads the post text, its source link and its map position.
func Liveuamap(obs observation.Observation) map[string]any {
	description := obs["description"]

	fields := fileFields(obs)
	fields["language"] = obs[constants.FieldLanguage]
	fields["online_link"] = obs["source"]
	fields["location"] = obs["location"]
	titled(fields, description, description)

	if loc, ok := platformLocation(obs, locations.TypeLiveuamap, locations.Liveuamap); ok {
		fields["longitude"] = loc.Lon
		fields["latitude"] = loc.Lat
	}
	return fields
}

// platformLocation returns the location entity of the given type, or reads
// the raw shape with extract when the entity has not been extracted yet.
func platformLocation(obs observation.Observation, tag string, extract locations.ExtractFunc) (locations.Location, bool) {
	for _, e := range obs.Entities(constants.FieldLocations) {
		if e.Type() != tag {
			continue
		}
		point, ok := observation.AsMap(e[constants.EntityLocation])
		if !ok {
			continue
		}
		lon, lonOK := point["lon"].(float64)
		lat, latOK := point["lat"].(float64)
		if lonOK && latOK {
			return locations.Location{Lon: lon, Lat: lat}, true
		}
	}

	loc, ok, err := extract(obs)
	if err != nil || !ok {
		return locations.Location{}, false
	}
	return loc, true
}
