package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// ContextComposer supplies a panel with the ambient conversation. The source
// is optional: a panel mounted standalone gets an empty context.
type ContextComposer struct {
	source driven.ConversationSource // nil when no provider is mounted
	logger *slog.Logger
}

// NewContextComposer creates a composer. source may be nil.
func NewContextComposer(source driven.ConversationSource, logger *slog.Logger) *ContextComposer {
	return &ContextComposer{source: source, logger: logger}
}

// HasSource reports whether a provider was supplied.
func (c *ContextComposer) HasSource() bool {
	return c.source != nil
}

// Compose returns the live context, or an empty one if the provider is
// absent or cannot serve. It never fails.
func (c *ContextComposer) Compose(ctx context.Context) model.ComposedContext {
	if c.source == nil {
		c.logger.Debug("conversation context not available, using default values")
		return model.EmptyContext()
	}

	msgs, err := c.source.Messages(ctx)
	switch {
	case errors.Is(err, model.ErrContextUnavailable):
		c.logger.Debug("conversation provider unavailable, using default values")
		return model.EmptyContext()
	case err != nil:
		c.logger.Warn("conversation provider failed, using default values", "error", err)
		return model.EmptyContext()
	}

	if msgs == nil {
		msgs = []model.Message{}
	}
	return model.ComposedContext{Messages: msgs, Available: true}
}
