package model

import "time"

// MessageRole identifies who authored a conversation message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one entry in the assistant conversation.
type Message struct {
	ID        string
	Role      MessageRole
	Content   string
	CreatedAt time.Time
}

// ComposedContext is the ambient conversation state a panel renders.
// Messages is never nil. Available is false when no provider supplied it.
type ComposedContext struct {
	Messages  []Message
	Available bool
}

// EmptyContext returns the default used when no provider is reachable.
func EmptyContext() ComposedContext {
	return ComposedContext{Messages: []Message{}}
}
