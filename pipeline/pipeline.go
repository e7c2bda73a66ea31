package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/andyMattick/eduagents/agent"
	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/generation"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
)

// Step names as they appear in the trace.
const (
	StepWriter    = "writer"
	StepValidator = "validator"
	StepRefiner   = "refiner"
)

// DefaultTraceName names the trace of each run.
const DefaultTraceName = "generation"

// Options configures a Pipeline.
type Options struct {
	// Refiner, when set, runs a second model pass over validated problems.
	Refiner *generation.Refiner

	Logger    logging.Logger
	Tracer    trace.Tracer
	TraceName string
	// Now is passed through to agent.Run. Nil means time.Now.
	Now func() time.Time
}

// Request describes one generation run.
type Request struct {
	Topic string
	Goals generation.Goals
	Count int
}

// Result is the outcome of a run. Trace is set even when Run fails.
type Result struct {
	Topic    string                        `json:"topic" yaml:"topic"`
	Problems []generation.Problem          `json:"problems" yaml:"problems"`
	Coverage map[generation.BloomLevel]int `json:"coverage" yaml:"coverage"`
	Model    model.Info                    `json:"model" yaml:"model"`
	Usage    *model.TokenUsage             `json:"usage,omitempty" yaml:"usage,omitempty"`
	Trace    *core.PipelineTrace           `json:"-" yaml:"-"`
}

// Pipeline runs writer, validator and optionally refiner over one trace per
// run. It is safe for concurrent use.
type Pipeline struct {
	writer *generation.Service
	opts   Options
}

// New creates a Pipeline that generates with writer.
func New(writer *generation.Service, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		TraceName: DefaultTraceName,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	if opts.TraceName == "" {
		opts.TraceName = DefaultTraceName
	}
	return &Pipeline{writer: writer, opts: opts}
}

// Run executes one generation run against a fresh trace. A step failure stops
// the run and is returned as a *core.AgentError naming the step; the returned
// Result still carries the trace collected so far.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	tr := core.NewPipelineTrace(p.opts.TraceName)
	res := Result{Topic: strings.TrimSpace(req.Topic), Trace: tr}
	logger := logging.ForTrace(p.opts.Logger, tr.ID)

	logger.Info("Pipeline started", "topic", res.Topic, "count", req.Count)

	runOpts := func(o *agent.Options) {
		o.Logger = p.opts.Logger
		o.Tracer = p.opts.Tracer
		o.Now = p.opts.Now
	}

	written, err := agent.Run(ctx, tr, StepWriter, p.write, map[string]any{
		"topic": req.Topic,
		"goals": map[string]float64(req.Goals),
		"count": req.Count,
	}, runOpts)
	if err != nil {
		return res, fail(logger, StepWriter, err)
	}
	res.Model = written.Model
	res.Usage = written.Usage

	problems, err := agent.Run(ctx, tr, StepValidator, validate, written, runOpts)
	if err != nil {
		return res, fail(logger, StepValidator, err)
	}

	if p.opts.Refiner != nil {
		refine := func(ctx context.Context, in []generation.Problem) ([]generation.Problem, error) {
			return p.opts.Refiner.Refine(ctx, res.Topic, in)
		}
		problems, err = agent.Run(ctx, tr, StepRefiner, refine, problems, runOpts)
		if err != nil {
			return res, fail(logger, StepRefiner, err)
		}
	}

	res.Problems = problems
	res.Coverage = Coverage(problems)

	logger.Info("Pipeline completed", "steps", tr.Len(), "problems", len(problems))

	return res, nil
}

func (p *Pipeline) write(ctx context.Context, in map[string]any) (generation.Result, error) {
	topic, _ := in["topic"].(string)
	goals, _ := in["goals"].(map[string]float64)
	count, _ := in["count"].(int)
	return p.writer.Generate(ctx, topic, generation.Goals(goals), count)
}

func fail(logger logging.Logger, step string, err error) error {
	logger.Error("Pipeline failed", "step", step, "error", core.ErrorMessage(err))
	return core.NewAgentError(step, err)
}

// validate drops duplicate and empty questions, trims the list to the
// requested count and assigns ids to problems that have none.
func validate(_ context.Context, in generation.Result) ([]generation.Problem, error) {
	seen := make(map[string]struct{}, len(in.Problems))
	out := make([]generation.Problem, 0, len(in.Problems))

	for _, p := range in.Problems {
		key := strings.ToLower(strings.Join(strings.Fields(p.Question), " "))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if p.ID == "" {
			p.ID = core.NewID()
		}
		out = append(out, p)

		if in.Requested > 0 && len(out) == in.Requested {
			break
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("validate: %w", generation.ErrNoProblems)
	}
	return out, nil
}

// Coverage counts problems per Bloom level. Problems without a level are
// not counted.
func Coverage(problems []generation.Problem) map[generation.BloomLevel]int {
	coverage := make(map[generation.BloomLevel]int)
	for _, p := range problems {
		if p.BloomLevel == "" {
			continue
		}
		coverage[p.BloomLevel]++
	}
	return coverage
}
