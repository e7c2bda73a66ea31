package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/logging"
)

const tracerName = "github.com/andyMattick/eduagents/agent"

// Func is a single named unit of work in a generation pipeline. It receives
// the caller's context unchanged and must honour its cancellation if it
// blocks.
type Func[I, O any] func(ctx context.Context, input I) (O, error)

// Options configure a single Run call.
type Options struct {
	// Logger receives one start and one completion entry per call.
	Logger logging.Logger
	// Tracer opens one span per call. Defaults to the global OpenTelemetry
	// tracer provider (a no-op unless telemetry was set up).
	Tracer trace.Tracer
	// Now is the wall clock used for the start timestamp and duration.
	Now func() time.Time
}

// Run invokes fn exactly once with input and appends exactly one StepRecord
// to tr describing the call, whatever its outcome.
//
// On success the record carries fn's output and an empty error list and Run
// returns that output. On failure the record carries a nil output and the
// error message, and Run returns fn's error unchanged. If fn panics, the
// panic is recorded and then re-raised with its original value. If fn calls
// runtime.Goexit, a failed step is recorded before the goroutine exits.
//
// A nil fn or trace, or an empty agentName, fails with core.ErrInvalidArgument
// before anything is timed or recorded.
func Run[I, O any](
	ctx context.Context,
	tr *core.PipelineTrace,
	agentName string,
	fn Func[I, O],
	input I,
	optFns ...func(o *Options),
) (out O, err error) {
	switch {
	case fn == nil:
		return out, fmt.Errorf("%w: agent function is nil", core.ErrInvalidArgument)
	case tr == nil:
		return out, fmt.Errorf("%w: trace is nil", core.ErrInvalidArgument)
	case agentName == "":
		return out, fmt.Errorf("%w: agent name is empty", core.ErrInvalidArgument)
	}

	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, apply := range optFns {
		apply(&opts)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.ForTrace(opts.Logger, tr.ID)

	startedAt := opts.Now()

	ctx, span := opts.Tracer.Start(ctx, "agent."+agentName, trace.WithAttributes(
		attribute.String("agent.name", agentName),
		attribute.String("pipeline.trace_id", tr.ID),
	))
	defer span.End()

	logger.Debug("Agent step started", "agent", agentName)

	record := func(output any, failure error) {
		elapsed := opts.Now().Sub(startedAt)
		errs := []string{}
		if failure != nil {
			errs = []string{core.ErrorMessage(failure)}
		}
		// The trace is non-nil here, so LogAgentStep cannot fail.
		_ = core.LogAgentStep(tr, agentName, Snapshot(input, startedAt), output, errs, core.WithTiming(startedAt.UTC(), elapsed))

		if failure != nil {
			span.SetStatus(codes.Error, errs[0])
		} else {
			span.SetStatus(codes.Ok, "")
		}
		logging.AgentStep(logger, agentName, elapsed, failure)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		if r == nil {
			// runtime.Goexit: nothing to re-raise, the goroutine keeps unwinding.
			record(nil, errExited)
			return
		}
		record(nil, errors.New(panicMessage(r)))
		panic(r)
	}()

	out, err = fn(ctx, input)
	completed = true

	if err != nil {
		span.RecordError(err)
		record(nil, err)
		return out, err
	}

	record(out, nil)

	return out, nil
}

var errExited = errors.New("agent function exited without returning")

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return "panic: " + core.ErrorMessage(v)
	case string:
		return "panic: " + v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}
