package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andyMattick/eduagents/agent"
	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
)

const defaultRefineInstruction = `You are an editor of classroom practice problems.
Rewrite each problem for clarity and correctness without changing its Bloom level or its order.
Respond with JSON only, using the same shape you were given.`

// RefinerOptions configures a Refiner.
type RefinerOptions struct {
	Instruction agent.Instruction
	Logger      logging.Logger
}

// Refiner rewrites generated problems in a second model pass.
type Refiner struct {
	model model.Model
	opts  RefinerOptions
}

// NewRefiner creates a Refiner backed by m.
func NewRefiner(m model.Model, optFns ...func(o *RefinerOptions)) *Refiner {
	opts := RefinerOptions{
		Instruction: agent.NewInstructionFromText(defaultRefineInstruction),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Refiner{model: m, opts: opts}
}

// Refine returns rewritten copies of problems. The model must return the same
// number of problems; ids are carried over by position and a missing Bloom
// level keeps the original one.
func (r *Refiner) Refine(ctx context.Context, topic string, problems []Problem) ([]Problem, error) {
	if len(problems) == 0 {
		return nil, fmt.Errorf("%w: nothing to refine", core.ErrInvalidArgument)
	}

	payload, err := json.Marshal(struct {
		Topic    string    `json:"topic"`
		Problems []Problem `json:"problems"`
	}{Topic: topic, Problems: problems})
	if err != nil {
		return nil, fmt.Errorf("encode problems: %w", err)
	}

	instructions, err := r.opts.Instruction.Resolve(map[string]any{"topic": topic, "count": len(problems)})
	if err != nil {
		return nil, fmt.Errorf("resolve instruction: %w", err)
	}

	resp, err := model.Collect(ctx, r.model, model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent("user", string(payload))},
	})
	if err != nil {
		return nil, fmt.Errorf("refine problems: %w", err)
	}

	refined, err := ParseProblems(resp.Content.Text())
	if err != nil {
		return nil, err
	}
	if len(refined) != len(problems) {
		return nil, fmt.Errorf("%w: refined %d problems, expected %d", ErrMalformedResponse, len(refined), len(problems))
	}

	for i := range refined {
		refined[i].ID = problems[i].ID
		if refined[i].BloomLevel == "" {
			refined[i].BloomLevel = problems[i].BloomLevel
		}
	}
	r.opts.Logger.Debug("Problems refined", "topic", topic, "count", len(refined))

	return refined, nil
}
