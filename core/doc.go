// Package core provides the foundational domain types shared by every other
// eduagents package. It defines:
//
//   - PipelineTrace / StepRecord (the ordered, append-only record of agent
//     invocations owned by a pipeline run)
//   - LogAgentStep, the recorder that appends one StepRecord to a trace
//   - The error taxonomy (ErrInvalidArgument, AgentError) and ErrorMessage
//   - Role based Content used to talk to models
//
// The package has no knowledge of models, prompts or pipelines. It keeps the
// trace contract small so that agent.Run, exporters and tests can depend on it
// without cycles.
package core
