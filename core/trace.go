package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// StepRecord is one entry per agent invocation. Output is nil when the
// invocation failed; Errors is empty on success and holds exactly one
// message on failure. After being appended a record is never modified.
type StepRecord struct {
	ID        string         `json:"id" yaml:"id"`
	AgentName string         `json:"agentName" yaml:"agentName"`
	Input     map[string]any `json:"input" yaml:"input"`
	Output    any            `json:"output" yaml:"output"`
	Errors    []string       `json:"errors" yaml:"errors"`
	StartedAt time.Time      `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
}

// Failed reports whether the step recorded an error.
func (r StepRecord) Failed() bool { return len(r.Errors) > 0 }

// StepOption customizes a StepRecord before it is appended.
type StepOption func(r *StepRecord)

// WithTiming sets the start time and duration of the recorded step.
func WithTiming(startedAt time.Time, d time.Duration) StepOption {
	return func(r *StepRecord) {
		r.StartedAt = startedAt
		r.Duration = d
	}
}

// WithStepID overrides the generated step id. Mainly useful in tests that
// compare exported traces.
func WithStepID(id string) StepOption {
	return func(r *StepRecord) { r.ID = id }
}

// PipelineTrace is the ordered, append-only record of agent invocations for a
// single unit of work. It is created and owned by the caller, mutated only
// through LogAgentStep and discarded when the work completes. It is safe for
// concurrent use; appends from concurrent invocations are ordered by whichever
// append acquires the lock first.
type PipelineTrace struct {
	ID        string
	Name      string
	CreatedAt time.Time

	mu    sync.RWMutex
	steps []StepRecord
}

// NewPipelineTrace creates an empty trace.
func NewPipelineTrace(name string) *PipelineTrace {
	return &PipelineTrace{
		ID:        NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		steps:     []StepRecord{},
	}
}

// Len returns the number of recorded steps.
func (t *PipelineTrace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.steps)
}

// Steps returns a copy of the recorded steps in append order.
func (t *PipelineTrace) Steps() []StepRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	steps := make([]StepRecord, len(t.steps))
	copy(steps, t.steps)
	return steps
}

// Last returns the most recently appended step.
func (t *PipelineTrace) Last() (StepRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.steps) == 0 {
		return StepRecord{}, false
	}
	return t.steps[len(t.steps)-1], true
}

// Failed returns the steps that recorded an error, in append order.
func (t *PipelineTrace) Failed() []StepRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var failed []StepRecord
	for _, s := range t.steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// TraceSnapshot is the exported, serializable view of a PipelineTrace.
type TraceSnapshot struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	CreatedAt time.Time    `json:"createdAt" yaml:"createdAt"`
	Steps     []StepRecord `json:"steps" yaml:"steps"`
}

// Snapshot returns a point-in-time copy of the trace.
func (t *PipelineTrace) Snapshot() TraceSnapshot {
	return TraceSnapshot{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt, Steps: t.Steps()}
}

// MarshalJSON encodes the trace through its snapshot.
func (t *PipelineTrace) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

func (t *PipelineTrace) append(r StepRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, r)
}

// LogAgentStep appends exactly one StepRecord built from the given values.
// The input map and error slice are copied so that later mutation by the
// caller does not alter the recorded entry. A nil errs is stored as an empty
// list. The only failure is a nil trace.
func LogAgentStep(
	trace *PipelineTrace,
	agentName string,
	input map[string]any,
	output any,
	errs []string,
	opts ...StepOption,
) error {
	if trace == nil {
		return fmt.Errorf("%w: trace is nil", ErrInvalidArgument)
	}

	rec := StepRecord{
		ID:        NewID(),
		AgentName: agentName,
		Input:     cloneMap(input),
		Output:    output,
		Errors:    append([]string{}, errs...),
		StartedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&rec)
	}

	trace.append(rec)

	return nil
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
