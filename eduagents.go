// Package eduagents wires configuration, a model provider and the generation
// pipeline together. Most applications only need:
//  1. a config.Config (config.Load plus ApplyEnv, or built in code)
//  2. New() to build an App from it
//  3. App.Generate to produce problems together with the trace of the run
//
// Every dependency can be overridden through Options, which is how tests
// substitute model.MockModel for a real provider.
package eduagents

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/andyMattick/eduagents/config"
	"github.com/andyMattick/eduagents/generation"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
	anthropicmodel "github.com/andyMattick/eduagents/model/anthropic"
	openaimodel "github.com/andyMattick/eduagents/model/openai"
	"github.com/andyMattick/eduagents/pipeline"
)

// Options configures an App.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Model overrides the provider built from Config.Provider. When set, the
	// provider section (and its API key) is not validated.
	Model model.Model
	// RefinerModel is used for the refine pass; defaults to Model.
	RefinerModel model.Model

	Logger logging.Logger
	Tracer trace.Tracer
}

// App is the assembled problem generator.
type App struct {
	cfg      *config.Config
	model    model.Model
	pipeline *pipeline.Pipeline
	logger   logging.Logger
}

// New builds an App. Without an explicit Model the configuration must pass
// config.Validate.
func New(optFns ...func(o *Options)) (*App, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	cfg := opts.Config
	logger := logging.OrNoOp(opts.Logger)

	m := opts.Model
	if m == nil {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		var err error
		if m, err = NewModel(cfg.Provider); err != nil {
			return nil, err
		}
	}

	writer := generation.NewService(m, func(o *generation.Options) {
		if cfg.Generation.MaxCount > 0 {
			o.MaxCount = cfg.Generation.MaxCount
		}
		o.Temperature = cfg.Provider.Temperature
		o.MaxTokens = cfg.Provider.MaxTokens
		o.Logger = withComponent(logger, "writer")
	})

	var refiner *generation.Refiner
	if cfg.Generation.Refine {
		rm := opts.RefinerModel
		if rm == nil {
			rm = m
		}
		refiner = generation.NewRefiner(rm, func(o *generation.RefinerOptions) {
			o.Logger = withComponent(logger, "refiner")
		})
	}

	p := pipeline.New(writer, func(o *pipeline.Options) {
		o.Refiner = refiner
		o.Logger = withComponent(logger, "pipeline")
		o.Tracer = opts.Tracer
	})

	info := m.Info()
	logger.Debug("App initialized", "model", info.Name, "provider", info.Provider, "refine", refiner != nil)

	return &App{cfg: cfg, model: m, pipeline: p, logger: logger}, nil
}

// NewModel builds the provider adapter described by p.
func NewModel(p config.ProviderConfig) (model.Model, error) {
	switch p.Type {
	case config.ProviderOpenAI, "":
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.Model = p.ModelName()
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			if p.Temperature > 0 {
				o.Temperature = p.Temperature
			}
			if p.MaxTokens > 0 {
				o.MaxCompletionTokens = p.MaxTokens
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.Model = anthropic.Model(p.ModelName())
			o.APIKey = p.APIKey
			o.BaseURL = p.BaseURL
			if p.Temperature > 0 {
				o.Temperature = p.Temperature
			}
			if p.MaxTokens > 0 {
				o.MaxTokens = p.MaxTokens
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", p.Type)
	}
}

// Generate runs the pipeline once. A zero count uses the configured default.
// The returned Result carries the run's trace even when err is non-nil.
func (a *App) Generate(ctx context.Context, topic string, goals generation.Goals, count int) (pipeline.Result, error) {
	if count == 0 {
		count = a.cfg.Generation.DefaultCount
	}
	return a.pipeline.Run(ctx, pipeline.Request{Topic: topic, Goals: goals, Count: count})
}

// Model describes the model used for generation.
func (a *App) Model() model.Info { return a.model.Info() }

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

func withComponent(l logging.Logger, name string) logging.Logger {
	if cl, ok := l.(*logging.ContextLogger); ok {
		return cl.WithComponent(name)
	}
	return l
}
