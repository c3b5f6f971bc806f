package coerce

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// DateLayouts are tried in order when parsing a date string.
// Day-first numeric layouts are deliberately absent.
var DateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// errUnknownDateLayout is returned when no layout matches.
var errUnknownDateLayout = errors.New("no accepted date layout matches")

// Time coerces v to a UTC time.Time. It reports whether v needed rewriting;
// nil and time.Time values are returned untouched.
func Time(v any) (any, bool, error) {
	switch val := v.(type) {
	case nil:
		return nil, false, nil
	case time.Time:
		return val, false, nil
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true, nil
			}
		}
		return v, false, errUnknownDateLayout
	case float64:
		return time.UnixMilli(int64(val)).UTC(), true, nil
	case int:
		return time.UnixMilli(int64(val)).UTC(), true, nil
	case int64:
		return time.UnixMilli(val).UTC(), true, nil
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return v, false, err
		}
		return time.UnixMilli(ms).UTC(), true, nil
	}
	return v, false, fmt.Errorf("unsupported date value of type %T", v)
}

// coerceDates rewrites the named fields of m in place. m must be a copy.
func coerceDates(m map[string]any, fields []string, prefix string) (bool, []error) {
	var (
		changed bool
		issues  []error
	)
	for _, field := range fields {
		v, ok := m[field]
		if !ok {
			continue
		}
		t, rewritten, err := Time(v)
		if err != nil {
			issues = append(issues, errors.NewFieldParseError("date", prefix+field, v, err))
			continue
		}
		if rewritten {
			m[field] = t
			changed = true
		}
	}
	return changed, issues
}

// Dates coerces the case record DateFields and the publication dates.
func Dates(obs observation.Observation) (observation.Observation, []error) {
	var issues []error

	obs = updateCaseRecord(obs, func(cid map[string]any) bool {
		changed, errs := coerceDates(cid, DateFields, constants.FieldCaseRecord+".")
		issues = append(issues, errs...)
		return changed
	})

	if pub := obs.PubDates(); pub != nil {
		cp := observation.CopyMap(pub)
		changed, errs := coerceDates(cp, PubDateFields, constants.FieldPubDates+".")
		issues = append(issues, errs...)
		if changed {
			obs = obs.With(constants.FieldPubDates, cp)
		}
	}

	return obs, issues
}
