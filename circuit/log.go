package circuit

import (
	"context"
	"log/slog"
)

// LevelTrace is the level of per-evaluation progress messages.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a message at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
