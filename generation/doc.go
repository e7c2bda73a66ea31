// Package generation produces quiz / problem content with a generative model.
//
// Service.Generate turns a topic, a set of Bloom's taxonomy goal weights and a
// problem count into a prompt, calls the configured model.Model and parses
// the returned JSON into Problems. Refiner runs a second model pass that
// rewrites already generated problems for clarity.
//
// Both are plain context-aware functions so a pipeline can hand them to
// agent.Run as traced steps.
package generation
