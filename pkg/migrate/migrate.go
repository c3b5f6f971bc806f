// Package migrate moves legacy field layouts forward.
//
// Every migration is guarded by a check on the legacy value, so it is a no-op
// once applied and never runs backwards.
package migrate

import (
	"time"

	"github.com/agentstation/custody/pkg/coerce"
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// DefaultSubtypes maps deprecated media subtypes to their canonical tag.
var DefaultSubtypes = map[string]string{
	"thumbnail":     constants.MediaImage,
	"youtube_video": constants.MediaVideo,
	"twitter_video": constants.MediaVideo,
}

// DefaultContentFields maps deprecated content field names to current ones.
var DefaultContentFields = map[string]string{
	"dem": constants.FieldCaseRecord,
}

// Migrator applies the legacy migrations with a configurable rename table.
type Migrator struct {
	subtypes      map[string]string
	contentFields map[string]string
}

// Option configures a Migrator
type Option func(*Migrator)

// WithSubtypes replaces the deprecated media subtype table.
func WithSubtypes(subtypes map[string]string) Option {
	return func(m *Migrator) {
		m.subtypes = subtypes
	}
}

// WithContentFields replaces the deprecated content field table.
func WithContentFields(renames map[string]string) Option {
	return func(m *Migrator) {
		m.contentFields = renames
	}
}

// New creates a Migrator with the default tables.
func New(opts ...Option) *Migrator {
	m := &Migrator{
		subtypes:      DefaultSubtypes,
		contentFields: DefaultContentFields,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PipelineDate folds the deprecated pipeline publication date into fetch.
// Fetch becomes the earlier of the two and pipeline is dropped. When either
// date cannot be read, both are kept and the problem is reported.
func (m *Migrator) PipelineDate(obs observation.Observation) (observation.Observation, []error) {
	pub := obs.PubDates()
	pipeline := pub[constants.PubDatePipeline]
	if pipeline == nil {
		return obs, nil
	}

	var issues []error
	out := observation.CopyMap(pub)
	delete(out, constants.PubDatePipeline)

	fetch := pub[constants.PubDateFetch]
	if fetch == nil {
		out[constants.PubDateFetch] = pipeline
		return obs.With(constants.FieldPubDates, out), nil
	}

	fetchTime, err := asTime(fetch)
	if err != nil {
		issues = append(issues, errors.NewFieldParseError("date", constants.FieldPubDates+"."+constants.PubDateFetch, fetch, err))
	}
	pipelineTime, perr := asTime(pipeline)
	if perr != nil {
		issues = append(issues, errors.NewFieldParseError("date", constants.FieldPubDates+"."+constants.PubDatePipeline, pipeline, perr))
	}
	if len(issues) > 0 {
		return obs, issues
	}
	if pipelineTime.Before(fetchTime) {
		out[constants.PubDateFetch] = pipeline
	}

	return obs.With(constants.FieldPubDates, out), nil
}

func asTime(v any) (time.Time, error) {
	t, _, err := coerce.Time(v)
	if err != nil {
		return time.Time{}, err
	}
	return t.(time.Time), nil
}

// ContentField renames deprecated entries of _sc_content_fields.
func (m *Migrator) ContentField(obs observation.Observation) (observation.Observation, []error) {
	return renameContentFields(obs, m.contentFields), nil
}

// renameContentFields rewrites the content fields through renames and drops
// duplicates created by the rename. obs is returned as-is when no entry
// matches.
func renameContentFields(obs observation.Observation, renames map[string]string) observation.Observation {
	fields := obs.ContentFields()
	matched := false
	for _, f := range fields {
		if _, ok := renames[f]; ok {
			matched = true
			break
		}
	}
	if !matched {
		return obs
	}

	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if to, ok := renames[f]; ok {
			f = to
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return obs.With(constants.FieldContentFields, observation.StringsValue(out))
}

// MediaSubtype re-tags media of a deprecated subtype with its canonical tag.
// Downloads that share a term with a re-tagged media entry take the same tag
// so the two stay correlated; downloads still carrying a deprecated subtype
// are re-tagged as well. Re-tagged entities lose their stored identity hash
// so the list reconciler hashes them under the new tag.
func (m *Migrator) MediaSubtype(obs observation.Observation) (observation.Observation, []error) {
	if len(m.subtypes) == 0 {
		return obs, nil
	}

	retagged := make(map[string]string)

	obs = obs.MapEntities(constants.FieldMedia, retag(func(e observation.Entity) (string, bool) {
		to, ok := m.subtypes[e.Type()]
		if ok {
			retagged[e.Term()] = to
		}
		return to, ok
	}))

	obs = obs.MapEntities(constants.FieldDownloads, retag(func(e observation.Entity) (string, bool) {
		if to, ok := m.subtypes[e.Type()]; ok {
			return to, true
		}
		if to, ok := retagged[e.Term()]; ok && e.Type() != to {
			return to, true
		}
		return "", false
	}))

	return renameContentFields(obs, m.subtypes), nil
}

// retag re-tags the entities target selects and drops their stored hash.
func retag(target func(observation.Entity) (string, bool)) func(observation.Entity) (observation.Entity, bool) {
	return func(e observation.Entity) (observation.Entity, bool) {
		to, ok := target(e)
		if !ok {
			return e, false
		}
		return e.Without(constants.FieldIDHash).With(constants.EntityType, to), true
	}
}

var defaultMigrator = New()

// PipelineDate applies Migrator.PipelineDate with the default tables.
func PipelineDate(obs observation.Observation) (observation.Observation, []error) {
	return defaultMigrator.PipelineDate(obs)
}

// ContentField applies Migrator.ContentField with the default tables.
func ContentField(obs observation.Observation) (observation.Observation, []error) {
	return defaultMigrator.ContentField(obs)
}

// MediaSubtype applies Migrator.MediaSubtype with the default tables.
func MediaSubtype(obs observation.Observation) (observation.Observation, []error) {
	return defaultMigrator.MediaSubtype(obs)
}
