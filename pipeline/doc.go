// Package pipeline composes the generation service into a small multi-step
// run (writer, validator and an optional refiner). Every step goes through
// agent.Run, so each run leaves behind a PipelineTrace with exactly one
// entry per step that was attempted.
//
// A finished trace can be written out as JSON or YAML with WriteTrace or
// SaveTrace and read back with LoadTrace.
package pipeline
