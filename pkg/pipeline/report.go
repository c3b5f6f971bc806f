package pipeline

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/custody/pkg/errors"
)

// Result describes what happened to one observation.
type Result struct {
	Index         int      `json:"index" yaml:"index"`
	ObservationID string   `json:"observation_id,omitempty" yaml:"observation_id,omitempty"`
	Changed       []string `json:"changed,omitempty" yaml:"changed,omitempty"`
	Issues        []Issue  `json:"issues,omitempty" yaml:"issues,omitempty"`
	Err           error    `json:"-" yaml:"-"`
}

// Issue is a field-level problem kept for the report.
type Issue struct {
	Index         int    `json:"index" yaml:"index"`
	ObservationID string `json:"observation_id,omitempty" yaml:"observation_id,omitempty"`
	Transform     string `json:"transform" yaml:"transform"`
	Field         string `json:"field,omitempty" yaml:"field,omitempty"`
	Message       string `json:"message" yaml:"message"`
	Err           error  `json:"-" yaml:"-"`
}

func newIssue(index int, id, transform string, err error) Issue {
	issue := Issue{
		Index:         index,
		ObservationID: id,
		Transform:     transform,
		Message:       err.Error(),
		Err:           err,
	}
	var pe *errors.ParseError
	if errors.As(err, &pe) {
		issue.Field = pe.Field
	}
	return issue
}

// Failure is a transform that failed on one observation.
type Failure struct {
	Index         int    `json:"index" yaml:"index"`
	ObservationID string `json:"observation_id,omitempty" yaml:"observation_id,omitempty"`
	Transform     string `json:"transform" yaml:"transform"`
	Message       string `json:"message" yaml:"message"`
	Err           error  `json:"-" yaml:"-"`
}

// Report summarizes a batch run.
type Report struct {
	RunID        string         `json:"run_id" yaml:"run_id"`
	Version      string         `json:"version" yaml:"version"`
	Transforms   []string       `json:"transforms" yaml:"transforms"`
	StartedAt    utc.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt   utc.Time       `json:"finished_at" yaml:"finished_at"`
	Duration     time.Duration  `json:"duration" yaml:"duration"`
	Observations int            `json:"observations" yaml:"observations"`
	Changed      int            `json:"changed" yaml:"changed"`
	ByTransform  map[string]int `json:"by_transform" yaml:"by_transform"`
	Issues       []Issue        `json:"issues,omitempty" yaml:"issues,omitempty"`
	Failures     []Failure      `json:"failures,omitempty" yaml:"failures,omitempty"`
	Results      []Result       `json:"-" yaml:"-"`
}

func (r *Report) finish(results []Result) {
	r.Results = results
	r.ByTransform = make(map[string]int)
	for _, res := range results {
		if len(res.Changed) > 0 {
			r.Changed++
		}
		for _, name := range res.Changed {
			r.ByTransform[name]++
		}
		r.Issues = append(r.Issues, res.Issues...)
		if res.Err != nil {
			f := Failure{
				Index:         res.Index,
				ObservationID: res.ObservationID,
				Message:       res.Err.Error(),
				Err:           res.Err,
			}
			var te *errors.TransformError
			if errors.As(res.Err, &te) {
				f.Transform = te.Transform
			}
			r.Failures = append(r.Failures, f)
		}
	}
	r.FinishedAt = utc.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}

// Err joins every failure of the run, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}
