package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name ("debug", "info", "warn",
// "warning", "error") into a LogLevel. An empty string yields LogLevelInfo.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug, nil
	case "", "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger defines the minimal logging interface used across eduagents.
// Args are slog style alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// ContextLogger wraps slog.Logger with a fixed set of contextual attributes
// (component, trace id, custom key/values) and domain helpers for agent steps
// and model calls. With* methods return modified copies.
type ContextLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	traceID   string
}

var _ Logger = (*ContextLogger)(nil)

// LoggerConfig configures construction of a ContextLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	TraceID     string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration writing to stderr.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, CustomAttrs: map[string]any{}}
}

// NewLogger builds a ContextLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *ContextLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	ctx := make(map[string]any, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		ctx[k] = v
	}
	return &ContextLogger{logger: slog.New(handler), level: cfg.Level, context: ctx, component: cfg.Component, traceID: cfg.TraceID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *ContextLogger) clone() *ContextLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *ContextLogger) WithContext(key string, value any) *ContextLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (agent, pipeline, generation, cli).
func (l *ContextLogger) WithComponent(c string) *ContextLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithTrace attaches the pipeline trace identifier.
func (l *ContextLogger) WithTrace(traceID string) *ContextLogger {
	nl := l.clone()
	nl.traceID = traceID
	return nl
}

func (l *ContextLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.traceID != "" {
		attrs = append(attrs, slog.String("trace_id", l.traceID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *ContextLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	attrs := l.buildAttrs()
	with := make([]any, 0, len(attrs)+len(args))
	for _, a := range attrs {
		with = append(with, a)
	}
	with = append(with, args...)
	l.logger.Log(context.Background(), level, msg, with...)
}

// Debug logs at debug level.
func (l *ContextLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *ContextLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *ContextLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *ContextLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogAgentStep records the outcome of a single traced agent invocation.
func (l *ContextLogger) LogAgentStep(agent string, dur time.Duration, err error) {
	if err != nil {
		l.Error("Agent step failed", "agent", agent, "duration", dur, "success", false, "error", err.Error())
		return
	}
	l.Info("Agent step completed", "agent", agent, "duration", dur, "success", true)
}

// LogLLMCall records model call latency, token usage and success.
func (l *ContextLogger) LogLLMCall(model string, tokens int, dur time.Duration, err error) {
	if err != nil {
		l.Error("LLM call failed", "model", model, "token_count", tokens, "duration", dur, "success", false, "error", err.Error())
		return
	}
	l.Info("LLM call completed", "model", model, "token_count", tokens, "duration", dur, "success", true)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new ContextLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *ContextLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

// OrNoOp returns l, or a NoOpLogger when l is nil.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// ForTrace scopes l to a pipeline trace. A *ContextLogger gets the trace id
// as a first-class attribute; any other Logger gets a "trace_id" key/value
// prepended to every entry.
func ForTrace(l Logger, traceID string) Logger {
	switch v := OrNoOp(l).(type) {
	case *ContextLogger:
		return v.WithTrace(traceID)
	case NoOpLogger:
		return v
	default:
		return argsLogger{Logger: v, args: []any{"trace_id", traceID}}
	}
}

// AgentStep logs the outcome of an agent step, through
// ContextLogger.LogAgentStep when l supports it.
func AgentStep(l Logger, agent string, dur time.Duration, err error) {
	if sl, ok := l.(interface {
		LogAgentStep(agent string, dur time.Duration, err error)
	}); ok {
		sl.LogAgentStep(agent, dur, err)
		return
	}
	if err != nil {
		l.Error("Agent step failed", "agent", agent, "duration", dur, "success", false, "error", err.Error())
		return
	}
	l.Info("Agent step completed", "agent", agent, "duration", dur, "success", true)
}

// LLMCall logs a model call, through ContextLogger.LogLLMCall when l
// supports it.
func LLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if cl, ok := l.(interface {
		LogLLMCall(model string, tokens int, dur time.Duration, err error)
	}); ok {
		cl.LogLLMCall(model, tokens, dur, err)
		return
	}
	if err != nil {
		l.Error("LLM call failed", "model", model, "token_count", tokens, "duration", dur, "success", false, "error", err.Error())
		return
	}
	l.Info("LLM call completed", "model", model, "token_count", tokens, "duration", dur, "success", true)
}

// argsLogger prepends fixed key/values to every entry.
type argsLogger struct {
	Logger
	args []any
}

func (l argsLogger) with(args []any) []any {
	out := make([]any, 0, len(l.args)+len(args))
	return append(append(out, l.args...), args...)
}

func (l argsLogger) Debug(msg string, args ...any) { l.Logger.Debug(msg, l.with(args)...) }
func (l argsLogger) Info(msg string, args ...any)  { l.Logger.Info(msg, l.with(args)...) }
func (l argsLogger) Warn(msg string, args ...any)  { l.Logger.Warn(msg, l.with(args)...) }
func (l argsLogger) Error(msg string, args ...any) { l.Logger.Error(msg, l.with(args)...) }
