// Package locations normalizes the raw location shapes of each source into
// location entities and appends them to _sc_locations.
//
// A location entity looks like
//
//	{location: {lon, lat}, type: <extractor tag>, term: [lon, lat], description?}
//
// The type tag is part of the identity projection, so two extractors never
// merge with each other, while the same extractor firing on a later run
// de-duplicates against its earlier output.
package locations

import (
	"fmt"

	"github.com/agentstation/custody/pkg/coerce"
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
	"github.com/agentstation/custody/pkg/reconcile"
)

// Location is a point in decimal degrees with an optional description.
type Location struct {
	Lon         float64
	Lat         float64
	Description string
}

// Entity returns the location entity for tag.
func (l Location) Entity(tag string) observation.Entity {
	e := observation.Entity{
		constants.EntityLocation: map[string]any{"lon": l.Lon, "lat": l.Lat},
		constants.EntityType:     tag,
		constants.EntityTerm:     []any{l.Lon, l.Lat},
	}
	if l.Description != "" {
		e[constants.EntityDescription] = l.Description
	}
	return e
}

// ExtractFunc reads one raw location shape. It returns false when the shape
// is absent and an error when the shape is present but unreadable.
type ExtractFunc func(obs observation.Observation) (Location, bool, error)

// Extractor is a named location extractor.
type Extractor struct {
	Type    string
	Extract ExtractFunc
}

// Registry holds extractors in the order they fire.
type Registry struct {
	extractors []Extractor
	reconciler *reconcile.Reconciler
}

// NewRegistry creates an empty registry that reconciles with r.
// A nil r uses the default reconciler.
func NewRegistry(r *reconcile.Reconciler) *Registry {
	if r == nil {
		r, _ = reconcile.New()
	}
	return &Registry{reconciler: r}
}

// DefaultRegistry returns a registry with every built-in extractor.
func DefaultRegistry(r *reconcile.Reconciler) *Registry {
	reg := NewRegistry(r)
	reg.Register(TypeYoutubeRecording, YoutubeRecording)
	reg.Register(TypeTwitterCoordinates, TwitterCoordinates)
	reg.Register(TypeTwitterPlace, TwitterPlace)
	reg.Register(TypeLiveuamap, Liveuamap)
	reg.Register(TypeCaseRecord, CaseRecord)
	return reg
}

// Register adds an extractor. A later registration with the same type
// replaces the earlier one in place.
func (r *Registry) Register(tag string, fn ExtractFunc) {
	for i, ex := range r.extractors {
		if ex.Type == tag {
			r.extractors[i].Extract = fn
			return
		}
	}
	r.extractors = append(r.extractors, Extractor{Type: tag, Extract: fn})
}

// Types lists the registered extractor tags in firing order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.extractors))
	for i, ex := range r.extractors {
		out[i] = ex.Type
	}
	return out
}

// Extract runs every extractor on obs, appends what they find to the
// locations list and reconciles it. Unreadable shapes are reported and
// skipped; a reconcile failure is returned as an error.
func (r *Registry) Extract(obs observation.Observation) (observation.Observation, []error, error) {
	var (
		found  []observation.Entity
		issues []error
	)
	for _, ex := range r.extractors {
		loc, ok, err := ex.Extract(obs)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		if ok {
			found = append(found, loc.Entity(ex.Type))
		}
	}
	if len(found) == 0 {
		return obs, issues, nil
	}

	var existing []any
	if v, ok := obs[constants.FieldLocations]; ok && v != nil {
		if existing, ok = observation.Members(v); !ok {
			issues = append(issues, errors.NewFieldParseError("list", constants.FieldLocations, v, errors.New("not a list")))
			return obs, issues, nil
		}
	}
	list := make([]any, 0, len(existing)+len(found))
	list = append(list, existing...)
	list = append(list, observation.EntitiesValue(found)...)

	merged, err := r.reconciler.Members(list, r.reconciler.Projection(constants.FieldLocations))
	if err != nil {
		return obs, issues, fmt.Errorf("reconciling locations: %w", err)
	}
	return obs.With(constants.FieldLocations, merged), issues, nil
}

// pair coerces a raw latitude and longitude. Both absent means no location;
// a half location is reported as malformed.
func pair(field string, lat, lon any) (Location, bool, error) {
	if blank(lat) && blank(lon) {
		return Location{}, false, nil
	}
	if blank(lat) || blank(lon) {
		return Location{}, false, errors.NewFieldParseError("coordinate", field, []any{lat, lon}, errors.New("half location"))
	}

	latV, _, err := coerce.Coordinate(lat)
	if err != nil {
		return Location{}, false, errors.NewFieldParseError("coordinate", field, lat, err)
	}
	lonV, _, err := coerce.Coordinate(lon)
	if err != nil {
		return Location{}, false, errors.NewFieldParseError("coordinate", field, lon, err)
	}
	return Location{Lat: latV.(float64), Lon: lonV.(float64)}, true, nil
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && len(s) == 0
}
