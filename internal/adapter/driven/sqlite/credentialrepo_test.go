package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	err := repo.Set(ctx, "openai", "sk-abc123")
	require.NoError(t, err)

	val, err := repo.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc123", val)
}

func TestCredentialRepo_ValueEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "openai", "sk-plain"))

	var raw string
	err := db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = ?`, "openai").Scan(&raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "sk-plain")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	val, err := repo.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "elevenlabs")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Set(ctx, "elevenlabs", "el-key"))

	for range 3 {
		exists, err = repo.Exists(ctx, "elevenlabs")
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "openai", "old-value"))
	require.NoError(t, repo.Set(ctx, "openai", "new-value"))

	val, err := repo.Get(ctx, "openai")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 1, "overwrite must not create a second record")
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "openai", "sk-1"))
	require.NoError(t, repo.Set(ctx, "elevenlabs", "el-1"))

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, model.ServiceID("elevenlabs"), creds[0].Service)
	assert.Equal(t, "el-1", creds[0].Secret)
	assert.Equal(t, model.ServiceID("openai"), creds[1].Service)
	assert.False(t, creds[1].UpdatedAt.IsZero())
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "openai", "sk-1"))
	require.NoError(t, repo.Delete(ctx, "openai"))

	exists, err := repo.Exists(ctx, "openai")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCredentialRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, testKey)

	err := repo.Delete(context.Background(), "nonexistent")
	assert.NoError(t, err, "deleting nonexistent credential should not error")
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db, nil)
	ctx := context.Background()

	err := repo.Set(ctx, "openai", "sk-1")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, "openai")
	require.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	exists, err := repo.Exists(ctx, "openai")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCredentialRepo_WrongKeyFailsDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewCredentialRepo(db, testKey).Set(ctx, "openai", "sk-1"))

	other := NewCredentialRepo(db, []byte("ffffffffffffffffffffffffffffffff"))
	_, err := other.Get(ctx, "openai")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrypt credential")
}
