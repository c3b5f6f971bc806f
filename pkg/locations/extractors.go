package locations

import (
	"strings"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// Extractor type tags.
const (
	TypeYoutubeRecording   = "youtube_recording"
	TypeTwitterCoordinates = "twitter_coordinates"
	TypeTwitterPlace       = "twitter_place"
	TypeLiveuamap          = "liveuamap_location"
	TypeCaseRecord         = "cid_location"
)

// YoutubeRecording reads recordingDetails of a YouTube video.
func YoutubeRecording(obs observation.Observation) (Location, bool, error) {
	loc, ok := observation.AsMap(observation.Get(obs, "recordingDetails.location"))
	if !ok {
		return Location{}, false, nil
	}
	l, ok, err := pair("recordingDetails.location", loc["latitude"], loc["longitude"])
	if !ok {
		return l, ok, err
	}
	l.Description = observation.String(observation.Get(obs, "recordingDetails.locationDescription"))
	return l, true, nil
}

// TwitterCoordinates reads the GeoJSON point of a tweet, which lists the
// longitude first.
func TwitterCoordinates(obs observation.Observation) (Location, bool, error) {
	point, ok := observation.AsMap(obs["coordinates"])
	if !ok {
		return Location{}, false, nil
	}
	coords, ok := point["coordinates"].([]any)
	if !ok {
		return Location{}, false, nil
	}
	if len(coords) != 2 {
		return Location{}, false, errors.NewFieldParseError("coordinate", "coordinates.coordinates", coords, errors.New("expected [lon, lat]"))
	}
	return pair("coordinates.coordinates", coords[1], coords[0])
}

// TwitterPlace reads the bounding box of a tweet place and returns its
// centroid.
func TwitterPlace(obs observation.Observation) (Location, bool, error) {
	rings, ok := observation.Get(obs, "place.bounding_box.coordinates").([]any)
	if !ok || len(rings) == 0 {
		return Location{}, false, nil
	}

	var (
		sumLon, sumLat float64
		n              int
	)
	for _, ring := range rings {
		points, ok := ring.([]any)
		if !ok {
			continue
		}
		for _, p := range points {
			l, ok, err := lonLatPoint(p)
			if err != nil {
				return Location{}, false, err
			}
			if !ok {
				continue
			}
			sumLon += l.Lon
			sumLat += l.Lat
			n++
		}
	}
	if n == 0 {
		return Location{}, false, nil
	}

	return Location{
		Lon:         sumLon / float64(n),
		Lat:         sumLat / float64(n),
		Description: observation.String(observation.Get(obs, "place.full_name")),
	}, true, nil
}

func lonLatPoint(p any) (Location, bool, error) {
	point, ok := p.([]any)
	if !ok || len(point) != 2 {
		return Location{}, false, nil
	}
	return pair("place.bounding_box.coordinates", point[1], point[0])
}

// Liveuamap reads the lat and lon of a map post, falling back to the raw
// "lat lon" coordinates text of the post.
func Liveuamap(obs observation.Observation) (Location, bool, error) {
	lat, lon := obs["lat"], obs["lon"]
	if blank(lat) && blank(lon) {
		text, ok := obs["coordinates"].(string)
		if !ok {
			return Location{}, false, nil
		}
		parts := strings.Fields(text)
		switch len(parts) {
		case 0:
			return Location{}, false, nil
		case 2:
			lat, lon = parts[0], parts[1]
		default:
			return Location{}, false, errors.NewFieldParseError("coordinate", "coordinates", text, errors.New("expected \"lat lon\""))
		}
	}

	l, ok, err := pair("lat", lat, lon)
	if !ok {
		return l, ok, err
	}
	l.Description = observation.String(obs["location"])
	return l, true, nil
}

// CaseRecord reads the analyst-entered location of the case record.
func CaseRecord(obs observation.Observation) (Location, bool, error) {
	cid, ok := obs.CaseRecord()
	if !ok {
		return Location{}, false, nil
	}
	l, ok, err := pair(constants.FieldCaseRecord+".latitude", cid["latitude"], cid["longitude"])
	if !ok {
		return l, ok, err
	}
	l.Description = observation.String(cid["location"])
	return l, true, nil
}
