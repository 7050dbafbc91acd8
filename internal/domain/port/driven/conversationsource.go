package driven

import (
	"context"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

// ConversationSource supplies the ambient conversation a panel may display.
// Implementations return model.ErrContextUnavailable when they cannot serve.
type ConversationSource interface {
	Messages(ctx context.Context) ([]model.Message, error)
}

// MessageStore persists conversation messages.
type MessageStore interface {
	ConversationSource

	// Append stores a new message and returns it with ID and CreatedAt set.
	Append(ctx context.Context, msg model.Message) (model.Message, error)

	// Clear removes every stored message.
	Clear(ctx context.Context) error
}
