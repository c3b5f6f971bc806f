package pipeline

import (
	"sort"

	"github.com/agentstation/custody/pkg/annotate"
	"github.com/agentstation/custody/pkg/coerce"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/locations"
	"github.com/agentstation/custody/pkg/migrate"
	"github.com/agentstation/custody/pkg/observation"
	"github.com/agentstation/custody/pkg/reconcile"
)

// Func is one step of the pipeline. Issues are field-level problems that
// leave the observation usable; a non-nil error stops the remaining steps
// for that observation.
type Func func(obs observation.Observation) (observation.Observation, []error, error)

// Transform is a named, idempotent step.
type Transform struct {
	Name        string
	Component   string
	Description string
	Apply       Func
}

// Transform names.
const (
	ScrubDownloadTimestamps = "scrub-download-timestamps"
	EmptyToNull             = "empty-to-null"
	CoerceBooleans          = "coerce-booleans"
	CoerceRelevant          = "coerce-relevant"
	CoerceViolations        = "coerce-violations"
	CoerceDates             = "coerce-dates"
	CoerceCoordinates       = "coerce-coordinates"
	MigratePipelineDate     = "migrate-pipeline-date"
	MigrateContentField     = "migrate-content-field"
	MergeRelatedLinks       = "merge-related-links"
	MigrateMediaSubtype     = "migrate-media-subtype"
	ReconcileLists          = "reconcile-lists"
	Annotate                = "annotate"
	ExtractLocations        = "extract-locations"
)

// Registry maps transform names to transforms.
type Registry map[string]Transform

// Lookup returns the transforms named by names, in that order.
func (r Registry) Lookup(names []string) ([]Transform, error) {
	out := make([]Transform, 0, len(names))
	for _, name := range names {
		t, ok := r[name]
		if !ok {
			return nil, &errors.ValidationError{
				Field:   "pipeline.transforms",
				Value:   name,
				Message: errors.ErrUnknownTransform.Error() + " " + name,
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// Names lists the registered transform names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// issuesOnly adapts a coercer.
func issuesOnly(fn func(observation.Observation) (observation.Observation, []error)) Func {
	return func(obs observation.Observation) (observation.Observation, []error, error) {
		out, issues := fn(obs)
		return out, issues, nil
	}
}

// errorOnly adapts a step that either succeeds or fails.
func errorOnly(fn func(observation.Observation) (observation.Observation, error)) Func {
	return func(obs observation.Observation) (observation.Observation, []error, error) {
		out, err := fn(obs)
		return out, nil, err
	}
}

// components are the collaborators the built-in transforms close over.
type components struct {
	reconciler *reconcile.Reconciler
	migrator   *migrate.Migrator
	annotator  *annotate.Annotator
	locations  *locations.Registry
}

// builtins returns the registry of every built-in transform.
func builtins(c components) Registry {
	transforms := []Transform{
		{ScrubDownloadTimestamps, "coerce", "drop failed notarization timestamps from downloads", issuesOnly(coerce.DownloadTimestamps)},
		{EmptyToNull, "coerce", "rewrite empty case record strings to null", issuesOnly(coerce.EmptyToNull)},
		{CoerceBooleans, "coerce", "coerce case record flags to booleans", issuesOnly(coerce.Booleans)},
		{CoerceRelevant, "coerce", "coerce cid.relevant to a boolean", issuesOnly(coerce.BooleansOf("relevant"))},
		{CoerceViolations, "coerce", "normalize violation categories", issuesOnly(coerce.Violations)},
		{CoerceDates, "coerce", "parse case record and publication dates", issuesOnly(coerce.Dates)},
		{CoerceCoordinates, "coerce", "parse case record coordinates", issuesOnly(coerce.Coordinates)},
		{MigratePipelineDate, "migrate", "fold the pipeline publication date into fetch", issuesOnly(c.migrator.PipelineDate)},
		{MigrateContentField, "migrate", "rename deprecated content fields", issuesOnly(c.migrator.ContentField)},
		{MergeRelatedLinks, "migrate", "move legacy related links into media", func(obs observation.Observation) (observation.Observation, []error, error) {
			return reconcile.MergeRelated(obs), nil, nil
		}},
		{MigrateMediaSubtype, "migrate", "re-tag deprecated media subtypes", issuesOnly(c.migrator.MediaSubtype)},
		{ReconcileLists, "reconcile", "merge entity lists by identity", errorOnly(c.reconciler.Observation)},
		{Annotate, "annotate", "overlay the default case record", errorOnly(c.annotator.Annotate)},
		{ExtractLocations, "locations", "extract and reconcile locations", c.locations.Extract},
	}

	r := make(Registry, len(transforms))
	for _, t := range transforms {
		r[t.Name] = t
	}
	return r
}
