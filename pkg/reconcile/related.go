package reconcile

import (
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/observation"
)

// LegacyRelatedFields are the deprecated lists folded into _sc_media.
var LegacyRelatedFields = []string{constants.FieldRelated, constants.FieldRelatedLinks}

// MergeRelated moves the entries of the legacy related-links lists to the end
// of _sc_media and removes the legacy fields. Untyped entries are typed "url";
// bare strings become {type: url, term: <string>}. Duplicates are left for
// the list reconciler.
func MergeRelated(obs observation.Observation) observation.Observation {
	var moved []observation.Entity
	present := false

	for _, field := range LegacyRelatedFields {
		v, ok := obs[field]
		if !ok {
			continue
		}
		present = true
		moved = append(moved, relatedEntities(v)...)
	}
	if !present {
		return obs
	}

	var media []any
	if v, ok := obs[constants.FieldMedia]; ok && v != nil {
		if media, ok = observation.Members(v); !ok {
			// nowhere to fold into; keep the legacy lists
			return obs
		}
	}

	obs = obs.Without(LegacyRelatedFields...)
	if len(moved) == 0 {
		return obs
	}

	merged := make([]any, 0, len(media)+len(moved))
	merged = append(merged, media...)
	merged = append(merged, observation.EntitiesValue(moved)...)
	return obs.With(constants.FieldMedia, merged)
}

func relatedEntities(v any) []observation.Entity {
	items, ok := v.([]any)
	if !ok {
		if s := observation.Strings(v); s != nil {
			items = observation.StringsValue(s)
		} else {
			items = observation.EntitiesValue(observation.EntitiesOf(v))
		}
	}

	out := make([]observation.Entity, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case string:
			if val == "" {
				continue
			}
			out = append(out, observation.Entity{
				constants.EntityType: constants.MediaURL,
				constants.EntityTerm: val,
			})
		default:
			m, ok := observation.AsMap(val)
			if !ok {
				continue
			}
			e := observation.Entity(m)
			if e.Type() == "" {
				e = e.With(constants.EntityType, constants.MediaURL)
			}
			out = append(out, e)
		}
	}
	return out
}
