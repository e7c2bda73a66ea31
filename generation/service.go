package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andyMattick/eduagents/agent"
	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
)

// DefaultMaxCount bounds the number of problems one Generate call may request.
const DefaultMaxCount = 50

const defaultInstruction = `You are an experienced teacher who writes clear, accurate practice problems.
Every problem targets exactly one level of Bloom's revised taxonomy.
Respond with JSON only, without commentary.`

const defaultPrompt = `Write {{.count}} practice problems about "{{.topic}}".
Distribute them across Bloom's taxonomy levels as follows:
{{range .allocation}}- {{.Level}}: {{.Count}}
{{end}}
Return a JSON object of the form
{"problems":[{"question":"...","bloomLevel":"<level>","choices":["..."],"answer":"...","explanation":"..."}]}
Omit "choices" for open-ended problems.`

// Options configures a Service.
type Options struct {
	// Instruction is the system prompt. State keys: topic, count, allocation.
	Instruction agent.Instruction
	// Prompt is the user message template. Same state keys as Instruction.
	Prompt agent.Instruction
	// MaxCount is the largest count Generate accepts.
	MaxCount int
	// Temperature and MaxTokens override the model defaults when non-zero.
	Temperature float64
	MaxTokens   int64
	Logger      logging.Logger
}

// Service generates problems with a model. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	model model.Model
	opts  Options
}

// NewService creates a Service backed by m.
func NewService(m model.Model, optFns ...func(o *Options)) *Service {
	opts := Options{
		Instruction: agent.NewInstructionFromText(defaultInstruction),
		Prompt:      agent.NewInstructionFromText(defaultPrompt),
		MaxCount:    DefaultMaxCount,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Service{model: m, opts: opts}
}

// Info describes the backing model.
func (s *Service) Info() model.Info { return s.model.Info() }

// Generate asks the model for count problems about topic distributed across
// goals. Arguments are validated before any model call. Network and provider
// failures are returned wrapped; parsing failures wrap ErrMalformedResponse
// or ErrNoProblems.
func (s *Service) Generate(ctx context.Context, topic string, goals Goals, count int) (Result, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Result{}, fmt.Errorf("%w: topic is empty", core.ErrInvalidArgument)
	}
	if count <= 0 || count > s.opts.MaxCount {
		return Result{}, fmt.Errorf("%w: count %d outside 1..%d", core.ErrInvalidArgument, count, s.opts.MaxCount)
	}
	if err := goals.Validate(); err != nil {
		return Result{}, err
	}

	allocation := goals.Allocate(count)
	state := map[string]any{
		"topic":      topic,
		"count":      count,
		"allocation": allocation,
	}

	instructions, err := s.opts.Instruction.Resolve(state)
	if err != nil {
		return Result{}, fmt.Errorf("resolve instruction: %w", err)
	}
	prompt, err := s.opts.Prompt.Resolve(state)
	if err != nil {
		return Result{}, fmt.Errorf("resolve prompt: %w", err)
	}

	info := s.model.Info()
	start := time.Now()
	resp, err := model.Collect(ctx, s.model, model.Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent("user", prompt)},
		Temperature:  s.opts.Temperature,
		MaxTokens:    s.opts.MaxTokens,
	})
	logging.LLMCall(s.opts.Logger, info.Name, totalTokens(resp.Usage), time.Since(start), err)
	if err != nil {
		return Result{}, fmt.Errorf("generate problems: %w", err)
	}

	problems, err := ParseProblems(resp.Content.Text())
	if err != nil {
		return Result{}, err
	}

	return Result{
		Topic:      topic,
		Requested:  count,
		Allocation: allocation,
		Problems:   problems,
		Model:      info,
		Usage:      resp.Usage,
	}, nil
}

func totalTokens(u *model.TokenUsage) int {
	if u == nil {
		return 0
	}
	return u.TotalTokens
}
