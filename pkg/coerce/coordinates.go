package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// Case record coordinate fields.
const (
	LatitudeField  = "latitude"
	LongitudeField = "longitude"
)

var (
	errEmptyCoordinate      = errors.New("empty coordinate")
	errMalformedDMS         = errors.New("malformed degrees-minutes-seconds coordinate")
	errCoordinateOutOfRange = errors.New("coordinate component out of range")
)

// dmsMarks are the unit symbols replaced by spaces before tokenizing.
var dmsMarks = strings.NewReplacer(
	"°", " ", "º", " ", "˚", " ",
	"'", " ", "′", " ", "’", " ",
	`"`, " ", "″", " ", "”", " ",
	",", " ",
)

// ParseDMS parses a decimal or degrees-minutes-seconds coordinate such as
// "35.8125", `35°48'45"N`, "35 48 45 N" or "35°48.75'W". A leading minus
// sign or an S or W hemisphere makes the result negative.
func ParseDMS(s string) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, errEmptyCoordinate
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(f)
	}

	sign := 1.0
	switch {
	case strings.HasPrefix(s, "-"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	fields := strings.Fields(dmsMarks.Replace(s))
	hemisphere := ""
	if n := len(fields); n > 0 {
		if h, rest, ok := splitHemisphere(fields[n-1]); ok {
			hemisphere = h
			fields = append(fields[:n-1], rest...)
		} else if h, rest, ok := splitHemisphere(fields[0]); ok {
			hemisphere = h
			fields = append(rest, fields[1:]...)
		}
	}
	if hemisphere == "S" || hemisphere == "W" {
		sign = -sign
	}

	if len(fields) == 0 || len(fields) > 3 {
		return 0, errMalformedDMS
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return 0, errMalformedDMS
		}
		parts[i] = v
	}
	if parts[1] >= 60 || parts[2] >= 60 {
		return 0, errCoordinateOutOfRange
	}

	return finite(sign * (parts[0] + parts[1]/60 + parts[2]/3600))
}

// finite rejects NaN and infinities, which have no JSON encoding.
func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errCoordinateOutOfRange
	}
	return f, nil
}

// splitHemisphere strips a hemisphere letter from either end of a token.
// "45N" yields ("N", ["45"]); "N" yields ("N", nil).
func splitHemisphere(token string) (string, []string, bool) {
	if token == "" {
		return "", nil, false
	}
	isHemisphere := func(b byte) bool {
		return b == 'N' || b == 'S' || b == 'E' || b == 'W'
	}
	if last := token[len(token)-1]; isHemisphere(last) {
		if rest := token[:len(token)-1]; rest != "" {
			return string(last), []string{rest}, true
		}
		return string(last), nil, true
	}
	if first := token[0]; isHemisphere(first) {
		if rest := token[1:]; rest != "" {
			return string(first), []string{rest}, true
		}
		return string(first), nil, true
	}
	return "", nil, false
}

// Coordinate coerces v to a float64 coordinate. It reports whether v needed
// rewriting.
func Coordinate(v any) (any, bool, error) {
	switch val := v.(type) {
	case nil:
		return nil, false, nil
	case float64:
		if _, err := finite(val); err != nil {
			return v, false, err
		}
		return val, false, nil
	case float32:
		f, err := finite(float64(val))
		if err != nil {
			return v, false, err
		}
		return f, true, nil
	case int:
		return float64(val), true, nil
	case int64:
		return float64(val), true, nil
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			f, err = finite(f)
		}
		if err != nil {
			return v, false, err
		}
		return f, true, nil
	case string:
		f, err := ParseDMS(val)
		if err != nil {
			return v, false, err
		}
		return f, true, nil
	}
	return v, false, fmt.Errorf("unsupported coordinate value of type %T", v)
}

// blankCoordinate reports whether a coordinate is missing or blank.
func blankCoordinate(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// Coordinates coerces cid.latitude and cid.longitude to signed decimal
// degrees. When one of the two is missing or blank both are set to null so
// a half location never reaches the archive.
func Coordinates(obs observation.Observation) (observation.Observation, []error) {
	var issues []error

	obs = updateCaseRecord(obs, func(cid map[string]any) bool {
		lat, hasLat := cid[LatitudeField]
		lon, hasLon := cid[LongitudeField]
		if !hasLat && !hasLon {
			return false
		}

		if blankCoordinate(lat) || blankCoordinate(lon) {
			if lat == nil && lon == nil && hasLat && hasLon {
				return false
			}
			cid[LatitudeField] = nil
			cid[LongitudeField] = nil
			return true
		}

		changed := false
		for _, field := range []string{LatitudeField, LongitudeField} {
			v := cid[field]
			f, rewritten, err := Coordinate(v)
			if err != nil {
				issues = append(issues, errors.NewFieldParseError("coordinate", constants.FieldCaseRecord+"."+field, v, err))
				continue
			}
			if rewritten {
				cid[field] = f
				changed = true
			}
		}
		return changed
	})

	return obs, issues
}

// DownloadTimestamps drops the timestamp of every download whose
// notarization failed so it can be timestamped again.
func DownloadTimestamps(obs observation.Observation) (observation.Observation, []error) {
	return obs.MapEntities(constants.FieldDownloads, func(d observation.Entity) (observation.Entity, bool) {
		if observation.String(d[constants.EntityTimestamp]) != constants.TimestampFailed {
			return d, false
		}
		return d.Without(constants.EntityTimestamp), true
	}), nil
}
