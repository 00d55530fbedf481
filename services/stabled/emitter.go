package stabled

import (
	"log/slog"

	"stablecore/core/events"
)

// LogEmitter forwards engine events to the structured log so downstream
// tooling (liquidation bots, indexers) can tail them.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements events.Emitter.
func (e *LogEmitter) Emit(ev events.Event) {
	e.logger.Info("engine event", "type", ev.EventType(), "event", ev)
}
