package projection

import (
	"github.com/agentstation/custody/pkg/observation"
)

// Filter applies Omit then Pick with configured path lists.
type Filter struct {
	omit []string
	pick []string
}

// Option configures a Filter
type Option func(*Filter)

// WithOmit replaces the omitted paths.
func WithOmit(paths ...string) Option {
	return func(f *Filter) {
		f.omit = paths
	}
}

// WithPick replaces the allow-list. An empty allow-list disables Pick.
func WithPick(paths ...string) Option {
	return func(f *Filter) {
		f.pick = paths
	}
}

// NewFilter creates a Filter with DefaultOmit and DefaultPick.
func NewFilter(opts ...Option) *Filter {
	f := &Filter{
		omit: DefaultOmit,
		pick: DefaultPick,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Apply projects one observation.
func (f *Filter) Apply(obs observation.Observation) observation.Observation {
	out := Omit(obs, f.omit)
	if len(f.pick) == 0 {
		return out
	}
	return Pick(out, f.pick)
}

// ApplyBatch projects every observation of a batch.
func (f *Filter) ApplyBatch(batch observation.Batch) observation.Batch {
	out := make(observation.Batch, len(batch))
	for i, obs := range batch {
		out[i] = f.Apply(obs)
	}
	return out
}
