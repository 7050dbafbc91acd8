package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func TestMessageRepo_AppendAssignsIDAndTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepo(db, 0)

	msg, err := repo.Append(context.Background(), model.Message{Role: model.MessageRoleUser, Content: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestMessageRepo_MessagesInOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepo(db, 0)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := repo.Append(ctx, model.Message{Role: model.MessageRoleUser, Content: "what's the weather", CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.Append(ctx, model.Message{Role: model.MessageRoleAssistant, Content: "sunny", CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)

	msgs, err := repo.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "what's the weather", msgs[0].Content)
	assert.Equal(t, model.MessageRoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].CreatedAt.Equal(base.Add(time.Second)))
}

func TestMessageRepo_LimitKeepsMostRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepo(db, 2)
	ctx := context.Background()

	for i := range 4 {
		_, err := repo.Append(ctx, model.Message{Role: model.MessageRoleUser, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	msgs, err := repo.Messages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].Content)
	assert.Equal(t, "m3", msgs[1].Content)
}

func TestMessageRepo_EmptyIsNonNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepo(db, 10)

	msgs, err := repo.Messages(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestMessageRepo_Clear(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepo(db, 0)
	ctx := context.Background()

	_, err := repo.Append(ctx, model.Message{Role: model.MessageRoleUser, Content: "x"})
	require.NoError(t, err)
	require.NoError(t, repo.Clear(ctx))

	msgs, err := repo.Messages(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
