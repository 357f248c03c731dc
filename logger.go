package distcluster

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with clustering-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRunID tags every record with the run id.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithMethod tags every record with the clustering method.
func (l *Logger) WithMethod(m Method) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", string(m)),
	}
}

// LogPhase logs the end of setup or initialization.
func (l *Logger) LogPhase(ctx context.Context, phase string, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "phase failed",
			"phase", phase,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "phase completed",
			"phase", phase,
			"duration", d,
		)
	}
}

// LogRound logs one completed round.
func (l *Logger) LogRound(ctx context.Context, r RoundInfo) {
	l.DebugContext(ctx, "round completed",
		"round", r.Index,
		"duration", r.Duration,
		"shift", r.Shift,
		"zero_mass", len(r.ZeroMass),
	)
}

// LogRun logs the outcome of a run.
func (l *Logger) LogRun(ctx context.Context, o *Outcome) {
	if o.Err != nil {
		l.ErrorContext(ctx, "run failed",
			"kind", o.Kind(),
			"iterations", o.Iterations,
			"error", o.Err,
		)
		return
	}
	t := o.Result.Timings
	l.InfoContext(ctx, "run completed",
		"iterations", o.Iterations,
		"setup", t.Setup,
		"initialization", t.Initialization,
		"computation", t.Computation,
		"dropped_rows", o.Result.Dropped,
	)
}
