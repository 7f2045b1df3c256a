package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"conversation-agent/internal/domain/ports/adapter"
)

var _ adapter.CompletionClient = (*NoopAdapter)(nil)

// NoopAdapter answers every request with a canned reply; for local/dev runs
// without an LLM endpoint.
type NoopAdapter struct {
	log *zerolog.Logger
}

func NewNoopAdapter(logger *zerolog.Logger) *NoopAdapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &NoopAdapter{log: logger}
}

func (a *NoopAdapter) Complete(ctx context.Context, req adapter.CompletionRequest) (string, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", &adapter.CompletionError{Kind: adapter.KindTimeout, Err: ctx.Err()}
	}
	a.log.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Msg("[noop-ai] complete")
	return "This is a noop AI response.", nil
}
