// Package reconcile de-duplicates and merges entity lists by content identity.
//
// Entities carry their identity hash under _sc_id_hash. An entity without one
// is hashed over its projection (type and term by default) and the hash is
// stored on it, so a second pass over the same list is a no-op. Entities that
// share a hash are merged into the slot of the first one seen.
package reconcile

import (
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/observation"
)

// DefaultProjection is the identity projection used for every entity list
// that has no projection of its own.
var DefaultProjection = []string{constants.EntityType, constants.EntityTerm}

// Reconciler merges entity lists.
type Reconciler struct {
	hasher      identity.Hasher
	strategy    Strategy
	lists       []string
	projections map[string][]string
}

// Option configures a Reconciler
type Option func(*Reconciler) error

// WithHasher sets the identity oracle.
func WithHasher(h identity.Hasher) Option {
	return func(r *Reconciler) error {
		if h == nil {
			return errors.NewValidationError("hasher", nil, "hasher cannot be nil")
		}
		r.hasher = h
		return nil
	}
}

// WithStrategy sets how two entities with the same identity are merged.
func WithStrategy(s Strategy) Option {
	return func(r *Reconciler) error {
		if s == nil {
			return errors.NewValidationError("strategy", nil, "strategy cannot be nil")
		}
		r.strategy = s
		return nil
	}
}

// WithProjection sets the identity projection of one entity list.
// An empty projection hashes whole entities.
func WithProjection(list string, fields ...string) Option {
	return func(r *Reconciler) error {
		r.projections[list] = fields
		return nil
	}
}

// WithLists replaces the entity-list fields reconciled by Observation.
func WithLists(lists ...string) Option {
	return func(r *Reconciler) error {
		r.lists = lists
		return nil
	}
}

// New creates a Reconciler. Without options it uses the SHA-256 oracle, the
// right-biased merge and DefaultProjection for every known entity list.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{
		hasher:      identity.NewSHA256(),
		strategy:    RightBiased(),
		lists:       constants.EntityLists,
		projections: make(map[string][]string),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Projection returns the identity projection used for list.
func (r *Reconciler) Projection(list string) []string {
	if p, ok := r.projections[list]; ok {
		return p
	}
	return DefaultProjection
}

// List reconciles one entity list. The result keeps first-seen order.
func (r *Reconciler) List(list []observation.Entity, projection []string) ([]observation.Entity, error) {
	out, err := r.Members(observation.EntitiesValue(list), projection)
	if err != nil {
		return nil, err
	}
	return observation.EntitiesOf(out), nil
}

// Members reconciles the map members of a stored list. Members that are not
// maps are carried through unhashed, in their original position.
func (r *Reconciler) Members(items []any, projection []string) ([]any, error) {
	out := make([]any, 0, len(items))
	slots := make(map[string]int, len(items))

	for _, item := range items {
		m, ok := observation.AsMap(item)
		if !ok {
			out = append(out, item)
			continue
		}
		e := observation.Entity(m)
		hash := e.IDHash()
		if hash == "" {
			var err error
			hash, err = identity.EntityHash(r.hasher, e, projection)
			if err != nil {
				return nil, err
			}
			e = e.With(constants.FieldIDHash, hash)
		}

		if i, seen := slots[hash]; seen {
			existing, _ := observation.AsMap(out[i])
			out[i] = map[string]any(r.strategy.Merge(observation.Entity(existing), e))
			continue
		}
		slots[hash] = len(out)
		out = append(out, map[string]any(e))
	}

	return out, nil
}

// Observation reconciles every configured entity list of obs. Lists that are
// absent are left absent and fields that are not lists are left untouched.
func (r *Reconciler) Observation(obs observation.Observation) (observation.Observation, error) {
	for _, key := range r.lists {
		items, ok := observation.Members(obs[key])
		if !ok {
			continue
		}
		merged, err := r.Members(items, r.Projection(key))
		if err != nil {
			return obs, errors.WrapParse("entity list", key, err)
		}
		obs = obs.With(key, merged)
	}
	return obs, nil
}

var defaultReconciler, _ = New()

// List reconciles list with the default merge strategy.
func List(list []observation.Entity, hasher identity.Hasher, projection []string) ([]observation.Entity, error) {
	r, err := New(WithHasher(hasher))
	if err != nil {
		return nil, err
	}
	return r.List(list, projection)
}

// Observation reconciles every entity list of obs with the default settings.
func Observation(obs observation.Observation) (observation.Observation, error) {
	return defaultReconciler.Observation(obs)
}
