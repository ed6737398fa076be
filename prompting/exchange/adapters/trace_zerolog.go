package adapters

import (
	"context"
	"time"

	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
	"github.com/rs/zerolog"
)

// spanLoggerKey carries the span logger through the context.
type spanLoggerKey struct{}

// ZerologTracer implements the Tracer interface using zerolog.
type ZerologTracer struct {
	logger zerolog.Logger
}

// NewZerologTracer creates a new zerolog tracer.
func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{
		logger: logger,
	}
}

// StartSpan starts a new tracing span and returns the context and finish function.
func (t *ZerologTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	// Child logger carrying the span name and attributes
	spanLogger := t.logger.With().Str("span", name).Fields(attrs).Logger()

	// Store logger in context for use in events
	ctx = context.WithValue(ctx, spanLoggerKey{}, spanLogger)

	startTime := time.Now()

	spanLogger.Debug().Str("event", "span_start").Msg("Starting span")

	finish := func(err error) {
		duration := time.Since(startTime)

		event := spanLogger.Info()
		if err != nil {
			event = spanLogger.Error().Err(err)
		}

		event.
			Str("event", "span_end").
			Dur("duration", duration).
			Msg("Ending span")
	}

	return ctx, finish
}

// Event logs a tracing event with the current span context.
func (t *ZerologTracer) Event(ctx context.Context, name string, attrs map[string]any) {
	// Prefer the span logger from the context
	if logger, ok := ctx.Value(spanLoggerKey{}).(zerolog.Logger); ok {
		logger.Info().Fields(attrs).Str("event", name).Msg("Tracing event")
		return
	}

	// Fallback to main logger if no span context
	t.logger.Info().Fields(attrs).Str("event", name).Msg("Tracing event (no span context)")
}

// Ensure ZerologTracer implements the Tracer interface.
var _ ports.Tracer = (*ZerologTracer)(nil)
