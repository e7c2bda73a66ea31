package testutil

import (
	"fmt"
	"time"

	"github.com/andyMattick/eduagents/core"
)

// TraceBuilder helps construct traces with deterministic step ids and timing.
// Example:
//
//	tr := NewTraceBuilder("quiz").Step("writer", in, out).FailedStep("refiner", in, "quota exceeded").Build()
type TraceBuilder struct {
	name  string
	start time.Time
	step  time.Duration
	steps []func(tr *core.PipelineTrace, i int)
}

// NewTraceBuilder creates a builder for a trace named name. Steps start at a
// fixed instant and are spaced 100ms apart.
func NewTraceBuilder(name string) *TraceBuilder {
	return &TraceBuilder{
		name:  name,
		start: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
		step:  100 * time.Millisecond,
	}
}

// StartAt overrides the start instant of the first step (chainable).
func (b *TraceBuilder) StartAt(t time.Time) *TraceBuilder { b.start = t; return b }

// Step appends a successful step (chainable).
func (b *TraceBuilder) Step(agentName string, input map[string]any, output any) *TraceBuilder {
	b.steps = append(b.steps, func(tr *core.PipelineTrace, i int) {
		_ = core.LogAgentStep(tr, agentName, input, output, nil, b.opts(i)...)
	})
	return b
}

// FailedStep appends a failed step with a single error message (chainable).
func (b *TraceBuilder) FailedStep(agentName string, input map[string]any, msg string) *TraceBuilder {
	b.steps = append(b.steps, func(tr *core.PipelineTrace, i int) {
		_ = core.LogAgentStep(tr, agentName, input, nil, []string{msg}, b.opts(i)...)
	})
	return b
}

func (b *TraceBuilder) opts(i int) []core.StepOption {
	return []core.StepOption{
		core.WithStepID(fmt.Sprintf("step-%d", i+1)),
		core.WithTiming(b.start.Add(time.Duration(i)*b.step), b.step),
	}
}

// Build returns a *core.PipelineTrace holding the configured steps in order.
func (b *TraceBuilder) Build() *core.PipelineTrace {
	tr := core.NewPipelineTrace(b.name)
	for i, add := range b.steps {
		add(tr, i)
	}
	return tr
}
