// Package annotate overlays the source-aware default case record onto
// observations that have not been annotated yet.
//
// Annotation happens once. An observation whose cid is already set is
// returned unchanged so analyst-entered case data is never discarded.
package annotate

import (
	"github.com/agentstation/custody/pkg/caserecord"
	"github.com/agentstation/custody/pkg/coerce"
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/observation"
)

// Annotator builds case records.
type Annotator struct {
	hasher   identity.Hasher
	staffID  *string
	registry Registry
}

// Option configures an Annotator
type Option func(*Annotator)

// WithHasher sets the oracle used when an observation has no stored
// identity hash.
func WithHasher(h identity.Hasher) Option {
	return func(a *Annotator) {
		if h != nil {
			a.hasher = h
		}
	}
}

// WithStaffID sets the staff id written into new records. An empty id
// leaves the field null.
func WithStaffID(id string) Option {
	return func(a *Annotator) {
		if id == "" {
			a.staffID = nil
			return
		}
		a.staffID = &id
	}
}

// WithRegistry replaces the per-source extractor table.
func WithRegistry(r Registry) Option {
	return func(a *Annotator) {
		if r != nil {
			a.registry = r
		}
	}
}

// New creates an Annotator with the SHA-256 oracle and DefaultRegistry.
func New(opts ...Option) *Annotator {
	a := &Annotator{
		hasher:   identity.NewSHA256(),
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Annotate returns obs with a new case record and "cid" in its content
// fields. Observations that already carry a case record are returned as-is.
func (a *Annotator) Annotate(obs observation.Observation) (observation.Observation, error) {
	if obs[constants.FieldCaseRecord] != nil {
		return obs, nil
	}

	hash, err := identity.ObservationHash(a.hasher, obs)
	if err != nil {
		return obs, err
	}

	record := caserecord.Default()
	record.StaffID = a.staffID
	cid := record.ToMap()

	if hash != "" {
		cid["reference_code"] = referenceCode(hash)
	}

	pub := obs.PubDates()
	incident := date(pub[constants.PubDateSource])
	cid["incident_date"] = incident
	cid["date_of_acquisition"] = date(pub[constants.PubDateFetch])
	// Upload date mirrors the incident date until sources report the
	// platform upload time separately.
	cid["upload_date"] = incident

	if extract, ok := a.registry.Lookup(obs.Source()); ok {
		for k, v := range extract(obs) {
			cid[k] = observation.NullIfEmpty(v)
		}
	}

	return obs.
		With(constants.FieldCaseRecord, cid).
		With(constants.FieldContentFields, observation.StringsValue(withCaseRecordField(obs.ContentFields()))), nil
}

func referenceCode(hash string) string {
	if len(hash) > constants.ReferenceCodeLength {
		return hash[:constants.ReferenceCodeLength]
	}
	return hash
}

// date reads a publication date. Unparseable values are kept raw so the
// date coercer can report them.
func date(v any) any {
	t, _, err := coerce.Time(v)
	if err != nil {
		return v
	}
	return t
}

// withCaseRecordField de-duplicates fields and ensures "cid" is present once.
func withCaseRecordField(fields []string) []string {
	seen := make(map[string]bool, len(fields)+1)
	out := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	if !seen[constants.FieldCaseRecord] {
		out = append(out, constants.FieldCaseRecord)
	}
	return out
}

var defaultAnnotator = New()

// Annotate annotates obs with the default settings.
func Annotate(obs observation.Observation) (observation.Observation, error) {
	return defaultAnnotator.Annotate(obs)
}
