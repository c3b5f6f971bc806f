// Package coerce normalizes loosely typed scalar fields into canonical types.
//
// Every coercer is total and idempotent: values already in canonical form are
// left alone and only string forms are rewritten. A value that cannot be
// parsed is kept as it was and reported as an *errors.ParseError so the caller
// can log it; coercion itself never fails.
package coerce

import (
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/observation"
)

// Func is the signature shared by every coercer.
type Func func(obs observation.Observation) (observation.Observation, []error)

// BooleanFields are the case record fields coerced to booleans.
var BooleanFields = []string{
	"relevant",
	"verified",
	"public",
	"online",
	"edited",
	"existence_original",
	"creator_willing",
	"graphic_content",
}

// DateFields are the case record fields coerced to timestamps.
var DateFields = []string{
	"incident_date",
	"date_of_acquisition",
	"upload_date",
	"date_of_fixity",
}

// PubDateFields are the publication date keys coerced to timestamps.
var PubDateFields = []string{
	constants.PubDateFetch,
	constants.PubDateSource,
	constants.PubDatePipeline,
}

// updateCaseRecord applies fn to a copy of the cid map. fn reports whether it
// changed anything; when it did not, obs is returned unchanged.
func updateCaseRecord(obs observation.Observation, fn func(cid map[string]any) bool) observation.Observation {
	cid, ok := obs.CaseRecord()
	if !ok {
		return obs
	}
	cp := observation.CopyMap(cid)
	if !fn(cp) {
		return obs
	}
	return obs.With(constants.FieldCaseRecord, cp)
}

// Booleans coerces the BooleanFields of the case record.
func Booleans(obs observation.Observation) (observation.Observation, []error) {
	return BooleansOf(BooleanFields...)(obs)
}

// BooleansOf returns a coercer restricted to the given case record fields.
func BooleansOf(fields ...string) Func {
	return func(obs observation.Observation) (observation.Observation, []error) {
		return updateCaseRecord(obs, func(cid map[string]any) bool {
			changed := false
			for _, field := range fields {
				v, ok := cid[field]
				if !ok {
					continue
				}
				if b, rewritten := Bool(v); rewritten {
					cid[field] = b
					changed = true
				}
			}
			return changed
		}), nil
	}
}

// EmptyToNull rewrites every empty-string case record field to null.
func EmptyToNull(obs observation.Observation) (observation.Observation, []error) {
	return updateCaseRecord(obs, func(cid map[string]any) bool {
		changed := false
		for k, v := range cid {
			if s, ok := v.(string); ok && s == "" {
				cid[k] = nil
				changed = true
			}
		}
		return changed
	}), nil
}
