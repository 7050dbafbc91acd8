package application_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func TestContextComposer_NoProvider(t *testing.T) {
	c := application.NewContextComposer(nil, slog.Default())

	var got model.ComposedContext
	require.NotPanics(t, func() { got = c.Compose(context.Background()) })

	assert.False(t, c.HasSource())
	assert.False(t, got.Available)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestContextComposer_ProviderUnavailable(t *testing.T) {
	src := &stubConversation{err: fmt.Errorf("chat service: %w", model.ErrContextUnavailable)}
	c := application.NewContextComposer(src, slog.Default())

	got := c.Compose(context.Background())
	assert.False(t, got.Available)
	assert.Empty(t, got.Messages)
}

func TestContextComposer_ProviderError(t *testing.T) {
	c := application.NewContextComposer(&stubConversation{err: errors.New("db closed")}, slog.Default())

	got := c.Compose(context.Background())
	assert.False(t, got.Available)
	assert.NotNil(t, got.Messages)
}

func TestContextComposer_LiveMessages(t *testing.T) {
	msgs := []model.Message{
		{ID: "1", Role: model.MessageRoleUser, Content: "hi"},
		{ID: "2", Role: model.MessageRoleAssistant, Content: "hello"},
	}
	c := application.NewContextComposer(&stubConversation{msgs: msgs}, slog.Default())

	got := c.Compose(context.Background())
	assert.True(t, got.Available)
	assert.Equal(t, msgs, got.Messages)
}

func TestContextComposer_NilSliceNormalized(t *testing.T) {
	c := application.NewContextComposer(&stubConversation{}, slog.Default())

	got := c.Compose(context.Background())
	assert.True(t, got.Available)
	assert.NotNil(t, got.Messages)
}
