// Package custody normalizes harvested observations into the canonical shape
// that archiving and search indexing expect.
//
// An Engine wraps the versioned transform pipeline, the boundary projection
// used for search-index exports, and the follow-up query deriver:
//
//	engine, err := custody.New(custody.WithConcurrency(4))
//	if err != nil {
//		return err
//	}
//	normalized, report, err := engine.Normalize(ctx, batch)
package custody

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/custody/pkg/caserecord"
	"github.com/agentstation/custody/pkg/followup"
	"github.com/agentstation/custody/pkg/logging"
	"github.com/agentstation/custody/pkg/observation"
	"github.com/agentstation/custody/pkg/pipeline"
	"github.com/agentstation/custody/pkg/projection"
)

// Engine normalizes, projects and mines observation batches.
type Engine struct {
	pipeline *pipeline.Pipeline
	filter   *projection.Filter
	logger   *zerolog.Logger
}

// New creates an Engine. Without options it runs the default pipeline
// version and the default export projection.
func New(opts ...Option) (*Engine, error) {
	c := &config{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	p, err := pipeline.New(c.pipelineOptions()...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		pipeline: p,
		filter:   projection.NewFilter(c.filterOptions()...),
		logger:   c.logger,
	}, nil
}

// Pipeline returns the underlying transform pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Normalize runs the pipeline over a batch. The input batch is not modified.
func (e *Engine) Normalize(ctx context.Context, batch observation.Batch) (observation.Batch, *pipeline.Report, error) {
	return e.pipeline.Run(e.context(ctx), batch)
}

// Export normalizes a batch and applies the export projection to the result.
func (e *Engine) Export(ctx context.Context, batch observation.Batch) (observation.Batch, *pipeline.Report, error) {
	normalized, report, err := e.Normalize(ctx, batch)
	if err != nil {
		return nil, report, err
	}
	return e.Project(normalized), report, nil
}

// Project applies the export projection without normalizing.
func (e *Engine) Project(batch observation.Batch) observation.Batch {
	return e.filter.ApplyBatch(batch)
}

// Queries derives follow-up queries from the links in a batch.
func (e *Engine) Queries(batch observation.Batch) []followup.Query {
	return followup.Derive(batch)
}

// Schema returns the canonical case record with its default values.
func Schema() map[string]any {
	return caserecord.Default().ToMap()
}

func (e *Engine) context(ctx context.Context) context.Context {
	if e.logger == nil {
		return ctx
	}
	return logging.WithLogger(ctx, e.logger)
}
