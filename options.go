package custody

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/identity"
	"github.com/agentstation/custody/pkg/pipeline"
	"github.com/agentstation/custody/pkg/projection"
)

// Option is a function that configures an Engine
type Option func(*config) error

type config struct {
	pipeline []pipeline.Option
	omit     []string
	pick     []string
	setOmit  bool
	setPick  bool
	logger   *zerolog.Logger
}

func (c *config) pipelineOptions() []pipeline.Option {
	return c.pipeline
}

func (c *config) filterOptions() []projection.Option {
	var opts []projection.Option
	if c.setOmit {
		opts = append(opts, projection.WithOmit(c.omit...))
	}
	if c.setPick {
		opts = append(opts, projection.WithPick(c.pick...))
	}
	return opts
}

// WithVersion selects the pipeline version ("v1" or "v2")
func WithVersion(version string) Option {
	return WithPipelineOptions(pipeline.WithVersion(version))
}

// WithTransforms runs exactly the named transforms, in order, instead of a version's list
func WithTransforms(names ...string) Option {
	return WithPipelineOptions(pipeline.WithTransforms(names...))
}

// WithConcurrency bounds the number of observations normalized in parallel
func WithConcurrency(n int) Option {
	return WithPipelineOptions(pipeline.WithConcurrency(n))
}

// WithHasher replaces the identity oracle
func WithHasher(h identity.Hasher) Option {
	return WithPipelineOptions(pipeline.WithHasher(h))
}

// WithStaffID sets the staff id written into new case records
func WithStaffID(id string) Option {
	return WithPipelineOptions(pipeline.WithStaffID(id))
}

// WithMergeStrategy selects how duplicate entities are merged
func WithMergeStrategy(name string) Option {
	return WithPipelineOptions(pipeline.WithMergeStrategy(name))
}

// WithPipelineOptions passes options straight to the pipeline
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(c *config) error {
		c.pipeline = append(c.pipeline, opts...)
		return nil
	}
}

// WithOmit replaces the paths removed on export
func WithOmit(paths ...string) Option {
	return func(c *config) error {
		c.omit = paths
		c.setOmit = true
		return nil
	}
}

// WithPick replaces the export allow-list. No paths disables the allow-list.
func WithPick(paths ...string) Option {
	return func(c *config) error {
		c.pick = paths
		c.setPick = true
		return nil
	}
}

// WithLogger sets the logger used for every run
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return errors.NewValidationError("logger", nil, "logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
