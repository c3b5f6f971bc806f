// Package pipeline runs the ordered, versioned normalization transforms over
// a batch of observations.
//
// Each observation is normalized independently on its own worker; the
// transforms of one observation run sequentially. A transform that fails or
// panics on one observation is recorded in the report and that observation
// keeps the output of the steps before it. The rest of the batch continues.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/utc"

	"github.com/agentstation/custody/pkg/annotate"
	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/locations"
	"github.com/agentstation/custody/pkg/logging"
	"github.com/agentstation/custody/pkg/migrate"
	"github.com/agentstation/custody/pkg/observation"
	"github.com/agentstation/custody/pkg/reconcile"
)

// Pipeline is an ordered list of transforms plus the batch runner settings.
type Pipeline struct {
	version     string
	transforms  []Transform
	registry    Registry
	concurrency int
}

// config collects options before the pipeline is built.
type config struct {
	version     string
	names       []string
	concurrency int
	hasher      identity.Hasher
	staffID     string
	strategy    string
	subtypes    map[string]string
	renames     map[string]string
	projections map[string][]string
	extra       []Transform
}

// Option configures a Pipeline
type Option func(*config) error

// WithVersion selects a pipeline version.
func WithVersion(version string) Option {
	return func(c *config) error {
		if _, ok := Versions[version]; !ok {
			return errors.NewValidationError("pipeline.version", version, fmt.Sprintf("unknown version (available: %v)", VersionNames()))
		}
		c.version = version
		return nil
	}
}

// WithTransforms overrides the transform list of the selected version.
func WithTransforms(names ...string) Option {
	return func(c *config) error {
		c.names = names
		return nil
	}
}

// WithConcurrency bounds the number of observations normalized in parallel.
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxConcurrency {
			return errors.NewValidationError("pipeline.concurrency", n, fmt.Sprintf("must be between 1 and %d", constants.MaxConcurrency))
		}
		c.concurrency = n
		return nil
	}
}

// WithHasher sets the identity oracle shared by every transform.
func WithHasher(h identity.Hasher) Option {
	return func(c *config) error {
		if h == nil {
			return errors.NewValidationError("hasher", nil, "hasher cannot be nil")
		}
		c.hasher = h
		return nil
	}
}

// WithStaffID sets the staff id written into new case records.
func WithStaffID(id string) Option {
	return func(c *config) error {
		c.staffID = id
		return nil
	}
}

// WithMergeStrategy selects the entity merge strategy by name.
func WithMergeStrategy(name string) Option {
	return func(c *config) error {
		c.strategy = name
		return nil
	}
}

// WithSubtypes replaces the deprecated media subtype table.
func WithSubtypes(subtypes map[string]string) Option {
	return func(c *config) error {
		c.subtypes = subtypes
		return nil
	}
}

// WithContentFieldRenames replaces the deprecated content field table.
func WithContentFieldRenames(renames map[string]string) Option {
	return func(c *config) error {
		c.renames = renames
		return nil
	}
}

// WithProjection sets the identity projection of one entity list.
func WithProjection(list string, fields ...string) Option {
	return func(c *config) error {
		if c.projections == nil {
			c.projections = make(map[string][]string)
		}
		c.projections[list] = fields
		return nil
	}
}

// WithTransform registers an additional transform that can be named in
// WithTransforms. It replaces a built-in transform of the same name.
func WithTransform(t Transform) Option {
	return func(c *config) error {
		if t.Name == "" || t.Apply == nil {
			return errors.NewValidationError("transform", t.Name, "transform needs a name and a function")
		}
		c.extra = append(c.extra, t)
		return nil
	}
}

// New builds a pipeline. Without options it runs DefaultVersion with the
// SHA-256 oracle behind a cache.
func New(opts ...Option) (*Pipeline, error) {
	c := &config{
		version:     DefaultVersion,
		concurrency: constants.DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.hasher == nil {
		c.hasher = identity.NewCachingHasher(identity.NewSHA256(), identity.DefaultCacheLimit)
	}

	strategy, err := reconcile.StrategyByName(c.strategy)
	if err != nil {
		return nil, errors.NewConfigError("reconcile", err.Error(), err)
	}
	reconcileOpts := []reconcile.Option{reconcile.WithHasher(c.hasher), reconcile.WithStrategy(strategy)}
	for list, fields := range c.projections {
		reconcileOpts = append(reconcileOpts, reconcile.WithProjection(list, fields...))
	}
	reconciler, err := reconcile.New(reconcileOpts...)
	if err != nil {
		return nil, err
	}

	var migrateOpts []migrate.Option
	if c.subtypes != nil {
		migrateOpts = append(migrateOpts, migrate.WithSubtypes(c.subtypes))
	}
	if c.renames != nil {
		migrateOpts = append(migrateOpts, migrate.WithContentFields(c.renames))
	}

	registry := builtins(components{
		reconciler: reconciler,
		migrator:   migrate.New(migrateOpts...),
		annotator:  annotate.New(annotate.WithHasher(c.hasher), annotate.WithStaffID(c.staffID)),
		locations:  locations.DefaultRegistry(reconciler),
	})
	for _, t := range c.extra {
		registry[t.Name] = t
	}

	names := c.names
	if len(names) == 0 {
		if names, err = TransformsFor(c.version); err != nil {
			return nil, err
		}
	}
	transforms, err := registry.Lookup(names)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		version:     c.version,
		transforms:  transforms,
		registry:    registry,
		concurrency: c.concurrency,
	}, nil
}

// Version returns the configured pipeline version.
func (p *Pipeline) Version() string {
	return p.version
}

// Transforms returns the transforms in the order they run.
func (p *Pipeline) Transforms() []Transform {
	out := make([]Transform, len(p.transforms))
	copy(out, p.transforms)
	return out
}

// Registry returns every transform the pipeline knows about.
func (p *Pipeline) Registry() Registry {
	return p.registry
}

// Normalize runs every transform over one observation. The input is never
// modified. index identifies the observation in reports.
func (p *Pipeline) Normalize(ctx context.Context, index int, obs observation.Observation) (observation.Observation, Result) {
	result := Result{Index: index, ObservationID: obs.IDHash()}
	current := obs.Clone()
	if current == nil {
		current = observation.Observation{}
	}

	if result.ObservationID != "" {
		ctx = logging.WithObservation(ctx, result.ObservationID)
	}
	for _, t := range p.transforms {
		next, issues, err := apply(t, current)
		if len(issues) > 0 || err != nil {
			logger := logging.FromContext(logging.WithTransform(ctx, t.Name))
			for _, issue := range issues {
				result.Issues = append(result.Issues, newIssue(index, result.ObservationID, t.Name, issue))
				logger.Warn().Int("index", index).Err(issue).Msg("Kept malformed value")
			}
			if err != nil {
				terr := errors.NewTransformError(t.Name, result.ObservationID, index, err)
				result.Err = terr
				logger.Error().Int("index", index).Err(terr).Msg("Transform failed; keeping observation as of the previous step")
				break
			}
		}
		if changed(current, next) {
			result.Changed = append(result.Changed, t.Name)
		}
		current = next
	}

	if result.ObservationID == "" {
		result.ObservationID = current.IDHash()
	}
	return current, result
}

// apply runs one transform and turns a panic into an error.
func apply(t Transform, obs observation.Observation) (out observation.Observation, issues []error, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, issues = obs, nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	out, issues, err = t.Apply(obs)
	if err != nil {
		return obs, issues, err
	}
	return out, issues, nil
}

// changed reports whether a transform rewrote the observation.
func changed(before, after observation.Observation) (diff bool) {
	defer func() {
		if recover() != nil {
			diff = true
		}
	}()
	return !cmp.Equal(before, after)
}

// Run normalizes a batch in parallel. The output has the same order as the
// input. Only a canceled context stops the run early; per-observation
// failures are collected in the report.
func (p *Pipeline) Run(ctx context.Context, batch observation.Batch) (observation.Batch, *Report, error) {
	if len(batch) > constants.MaxBatchSize {
		return nil, nil, errors.NewValidationError("batch", len(batch), fmt.Sprintf("batch exceeds %d observations", constants.MaxBatchSize))
	}

	runID := uuid.NewString()
	ctx = logging.WithBatch(ctx, runID)
	logger := logging.FromContext(ctx)

	report := &Report{
		RunID:        runID,
		Version:      p.version,
		Transforms:   p.names(),
		StartedAt:    utc.Now(),
		Observations: len(batch),
	}
	logger.Info().
		Int("observations", len(batch)).
		Str("version", p.version).
		Int("concurrency", p.concurrency).
		Msg("Normalizing batch")

	out := make(observation.Batch, len(batch))
	results := make([]Result, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, obs := range batch {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i], results[i] = p.Normalize(gctx, i, obs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, errors.Join(errors.ErrCanceled, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Join(errors.ErrCanceled, err)
	}

	report.finish(results)
	logger.Info().
		Int("observations", report.Observations).
		Int("changed", report.Changed).
		Int("issues", len(report.Issues)).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("Batch normalized")

	return out, report, nil
}

func (p *Pipeline) names() []string {
	names := make([]string, len(p.transforms))
	for i, t := range p.transforms {
		names[i] = t.Name
	}
	return names
}
