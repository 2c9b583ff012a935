package domain

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with betree-specific helpers. Every call site
// it covers is setup-phase (attribute registration, compilation); the
// matcher never logs on its hot path.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from an arbitrary handler. A nil handler
// falls back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that emits JSON to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that emits human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger discards everything. This is the Config default.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(noopWriter{}, nil))}
}

// LogAttrRegistered records a new attribute domain being added.
func (l *Logger) LogAttrRegistered(name string, id VarID, valueType ValueType) {
	l.Debug("registered attribute", "name", name, "var_id", id, "value_type", valueType.String())
}

// LogCompile records the outcome of compiling one expression tree,
// keyed on the root node's assigned predicate id (InvalidPredID if
// compilation was rejected before AssignPredID ran).
func (l *Logger) LogCompile(rootID PredID, nodeCount, predCount int, err error) {
	if err != nil {
		l.Error("compile failed", "root_pred_id", rootID, "error", err)
		return
	}
	l.Info("compiled expression", "root_pred_id", rootID, "nodes", nodeCount, "predicates", predCount)
}

// LogPredicateDedup records a predicate map hit, i.e. a new node that
// folded onto an already-assigned PredID instead of minting a new one.
func (l *Logger) LogPredicateDedup(id PredID) {
	l.Debug("predicate deduplicated", "pred_id", id)
}
