// Package model defines the provider-agnostic abstractions for talking to
// generative language models inside eduagents.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (model/openai, model/anthropic) implement the Model interface so
// the generation service stays decoupled from vendor SDKs.
package model
