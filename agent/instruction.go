package agent

import "github.com/andyMattick/eduagents/internal/util"

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from the prompt state, environment, etc.
type Provider interface {
	Instruction(state map[string]any) (string, error)
}

// ProviderFunc is a functional adapter to allow ordinary functions to be used as Providers.
type ProviderFunc func(state map[string]any) (string, error)

// Instruction implements Provider.
func (f ProviderFunc) Instruction(state map[string]any) (string, error) { return f(state) }

// Instruction represents either a static (optionally templated) instruction
// string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string. The text
// may contain text/template markers ({{.topic}}) rendered against the state
// passed to Resolve.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(state map[string]any) (string, error)) Instruction {
	return Instruction{provider: ProviderFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction has neither text nor provider.
func (i Instruction) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed and
// rendering template markers against state.
func (i Instruction) Resolve(state map[string]any) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(state)
	}
	return util.RenderTemplate(i.text, state)
}
