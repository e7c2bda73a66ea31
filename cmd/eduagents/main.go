package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andyMattick/eduagents"
	"github.com/andyMattick/eduagents/config"
	"github.com/andyMattick/eduagents/core"
	"github.com/andyMattick/eduagents/generation"
	"github.com/andyMattick/eduagents/internal/telemetry"
	"github.com/andyMattick/eduagents/logging"
	"github.com/andyMattick/eduagents/model"
	"github.com/andyMattick/eduagents/pipeline"
)

// ModelFactory creates the generation model (allows mocking in tests).
type ModelFactory func(p config.ProviderConfig) (model.Model, error)

// cliOptions carries the injectable dependencies of the command tree.
type cliOptions struct {
	ModelFactory ModelFactory
	Getenv       func(string) string
	Stdout       io.Writer
	Stderr       io.Writer
}

type generateFlags struct {
	configPath  string
	provider    string
	model       string
	topic       string
	goals       []string
	count       int
	refine      bool
	output      string
	traceOut    string
	traceFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(cliOptions{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(opts cliOptions) *cobra.Command {
	if opts.ModelFactory == nil {
		opts.ModelFactory = eduagents.NewModel
	}
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	root := &cobra.Command{
		Use:           "eduagents",
		Short:         "eduagents - generate practice problems with traced agent steps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	root.AddCommand(newGenerateCmd(opts), newTraceCmd(opts))

	return root
}

func newGenerateCmd(opts cliOptions) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate practice problems for a topic",
		Example: `  eduagents generate --topic fractions --goal apply=2 --goal analyze=1 --count 6
  eduagents generate --topic photosynthesis --refine --trace-out trace.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML config file")
	fl.StringVar(&f.provider, "provider", "", "model provider (openai or anthropic)")
	fl.StringVar(&f.model, "model", "", "model name")
	fl.StringVarP(&f.topic, "topic", "t", "", "topic of the problems")
	fl.StringArrayVarP(&f.goals, "goal", "g", nil, "Bloom goal as level=weight (repeatable)")
	fl.IntVarP(&f.count, "count", "n", 0, "number of problems (default from config)")
	fl.BoolVar(&f.refine, "refine", false, "run a second refinement pass")
	fl.StringVarP(&f.output, "output", "o", "text", "output format: text, json or yaml")
	fl.StringVar(&f.traceOut, "trace-out", "", "write the pipeline trace to this file")
	fl.StringVar(&f.traceFormat, "trace-format", "", "trace file format: json or yaml (default from extension)")
	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func runGenerate(ctx context.Context, opts cliOptions, f generateFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(opts.Getenv, func(c *config.Config) {
		if f.provider != "" {
			c.Provider.Type = strings.ToLower(f.provider)
		}
		if f.model != "" {
			c.Provider.Model = f.model
		}
	})
	if f.refine {
		cfg.Generation.Refine = true
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return fmt.Errorf("API key not set. Set EDUAGENTS_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY, or provider.apiKey in the config file")
		}
		return err
	}

	var traceFormat pipeline.Format
	if f.traceFormat != "" {
		if traceFormat, err = pipeline.ParseFormat(f.traceFormat); err != nil {
			return err
		}
	}

	goals, err := parseGoals(f.goals)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging, opts.Stderr)
	if err != nil {
		return err
	}

	otelRT, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelRT.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err.Error())
		}
	}()

	m, err := opts.ModelFactory(cfg.Provider)
	if err != nil {
		return err
	}

	app, err := eduagents.New(func(o *eduagents.Options) {
		o.Config = cfg
		o.Model = m
		o.Logger = logger
		o.Tracer = otelRT.Tracer
	})
	if err != nil {
		return err
	}

	res, runErr := app.Generate(ctx, f.topic, goals, f.count)

	if f.traceOut != "" && res.Trace != nil {
		if err := saveTrace(f.traceOut, res.Trace, traceFormat); err != nil {
			return errors.Join(runErr, err)
		}
		logger.Info("Trace written", "path", f.traceOut, "steps", res.Trace.Len())
	}
	if runErr != nil {
		return runErr
	}

	return writeResult(opts.Stdout, res, f.output)
}

// parseGoals defaults to equal weight on every Bloom level.
func parseGoals(pairs []string) (generation.Goals, error) {
	if len(pairs) == 0 {
		goals := generation.Goals{}
		for _, l := range generation.Levels {
			goals[string(l)] = 1
		}
		return goals, nil
	}
	return generation.ParseGoals(pairs)
}

func newLogger(cfg config.LoggingConfig, w io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    w,
		Component: "cli",
	}), nil
}

// createFile opens trace files written with an explicit --trace-format.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

func saveTrace(path string, tr *core.PipelineTrace, format pipeline.Format) error {
	if format == "" {
		return pipeline.SaveTrace(path, tr)
	}
	file, err := createFile(path)
	if err != nil {
		return fmt.Errorf("trace: create %q: %w", path, err)
	}
	if err := pipeline.WriteTrace(file, tr, format); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("trace: close %q: %w", path, err)
	}
	return nil
}

func writeResult(w io.Writer, res pipeline.Result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	case "text", "":
		for i, p := range res.Problems {
			fmt.Fprintf(w, "%d. [%s] %s\n", i+1, p.BloomLevel, p.Question)
			for j, c := range p.Choices {
				fmt.Fprintf(w, "   %c) %s\n", 'a'+j, c)
			}
			if p.Answer != "" {
				fmt.Fprintf(w, "   Answer: %s\n", p.Answer)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func newTraceCmd(opts cliOptions) *cobra.Command {
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect exported pipeline traces",
	}

	showCmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print the steps of a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := pipeline.LoadTrace(args[0])
			if err != nil {
				return err
			}
			return printTrace(opts.Stdout, snap)
		},
	}

	traceCmd.AddCommand(showCmd)
	return traceCmd
}

func printTrace(w io.Writer, snap core.TraceSnapshot) error {
	fmt.Fprintf(w, "Trace %s (%s), %d steps\n", snap.ID, snap.Name, len(snap.Steps))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAGENT\tSTARTED\tDURATION\tSTATUS")
	for i, s := range snap.Steps {
		status := "ok"
		if s.Failed() {
			status = "error: " + strings.Join(s.Errors, "; ")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.AgentName, s.StartedAt.Format(time.RFC3339), s.Duration, status)
	}
	return tw.Flush()
}
