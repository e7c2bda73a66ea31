// Package agent contains the agent invoker and the prompt instruction helpers
// used by agents in the generation pipeline.
//
// Run wraps a single unit of asynchronous work (an agent), measuring its start
// time, capturing its result or error and appending exactly one StepRecord to
// the caller-owned core.PipelineTrace. The wrapper is transparent: callers
// observe the same value or error the wrapped function produced.
//
//	tr := core.NewPipelineTrace("quiz")
//	res, err := agent.Run(ctx, tr, "writer", writeFn, map[string]any{"topic": "fractions"})
//
// Instruction models a static (templated) or dynamic system prompt.
package agent
