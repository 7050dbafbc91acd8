package application_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func newCredentialService(store *mockCredentialStore, notifier *recordingNotifier) *application.CredentialService {
	return application.NewCredentialService(store, notifier, nil, slog.Default())
}

func TestCredentialService_SetThenExists(t *testing.T) {
	secrets := []string{"sk-1", "  padded  ", "x", "ünïcode-kéy"}

	for _, secret := range secrets {
		store := newMockCredentialStore()
		svc := newCredentialService(store, &recordingNotifier{})
		ctx := context.Background()

		require.NoError(t, svc.Set(ctx, "OpenAI", secret))
		assert.True(t, svc.Exists(ctx, "openai"), "secret %q", secret)
		assert.True(t, svc.Exists(ctx, "OPENAI"))
	}
}

func TestCredentialService_SetNotifiesSuccess(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newCredentialService(newMockCredentialStore(), notifier)

	require.NoError(t, svc.Set(context.Background(), "ElevenLabs", "el-key"))

	notes := notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, "Success", notes[0].Title)
	assert.Equal(t, "ElevenLabs API key has been updated", notes[0].Description)
	assert.Equal(t, model.SeverityDefault, notes[0].Severity)
	assert.Empty(t, notes[0].PanelID, "direct writes are not scoped to a panel")
}

func TestCredentialService_SetRejectsWhitespace(t *testing.T) {
	inputs := []string{"", " ", "  ", "\t\n", "   \r\n  "}

	for _, input := range inputs {
		store := newMockCredentialStore()
		notifier := &recordingNotifier{}
		svc := newCredentialService(store, notifier)

		err := svc.Set(context.Background(), "OpenAI", input)

		require.ErrorIs(t, err, model.ErrValidation)
		assert.Equal(t, 0, store.SetCalls(), "store must not be called for %q", input)

		notes := notifier.All()
		require.Len(t, notes, 1)
		assert.Equal(t, "Error", notes[0].Title)
		assert.Equal(t, "API key cannot be empty", notes[0].Description)
		assert.Equal(t, model.SeverityDestructive, notes[0].Severity)
	}
}

func TestCredentialService_SetStoreError(t *testing.T) {
	store := newMockCredentialStore()
	store.setErr = errors.New("disk full")
	notifier := &recordingNotifier{}
	svc := newCredentialService(store, notifier)

	err := svc.Set(context.Background(), "OpenAI", "sk-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, notifier.All(), "no success notification on failure")
}

func TestCredentialService_ExistsIdempotent(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})
	ctx := context.Background()

	for range 5 {
		assert.False(t, svc.Exists(ctx, "openai"))
	}

	require.NoError(t, svc.Set(ctx, "openai", "sk"))

	for range 5 {
		assert.True(t, svc.Exists(ctx, "openai"))
	}
}

func TestCredentialService_ExistsNeverFails(t *testing.T) {
	store := newMockCredentialStore()
	store.existsErr = errors.New("db locked")
	svc := newCredentialService(store, &recordingNotifier{})

	assert.False(t, svc.Exists(context.Background(), "openai"))
}

func TestVisibilityPolicy(t *testing.T) {
	policy := application.VisibilityPolicy{
		"groq":   application.VisibilityHidden,
		"deepl":  application.VisibilityHiddenWhenSet,
		"openai": application.VisibilityShown,
	}

	tests := []struct {
		service model.ServiceID
		hasKey  bool
		want    bool
	}{
		{"groq", false, false},
		{"groq", true, false},
		{"deepl", false, true},
		{"deepl", true, false},
		{"openai", false, true},
		{"openai", true, true},
		{"unlisted", false, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, policy.Visible(tt.service, tt.hasKey), "%s hasKey=%v", tt.service, tt.hasKey)
	}
}

func TestCredentialService_GroqSuppressed(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})

	assert.Equal(t, model.ServiceID("groq"), model.NormalizeServiceID("Groq"))
	assert.True(t, svc.Suppressed("Groq"))
	assert.False(t, svc.Suppressed("OpenAI"))

	ctrl := svc.NewControl("Groq", nil)
	ctrl.Mount(context.Background())

	state := ctrl.State()
	assert.False(t, state.HasKey)
	assert.False(t, state.Visible, "groq control is never rendered")
}

func TestCredentialControl_MountChecksOnce(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})
	ctrl := svc.NewControl("OpenAI", nil)
	ctx := context.Background()

	ctrl.Mount(ctx)
	ctrl.Mount(ctx)
	ctrl.Mount(ctx)

	assert.Equal(t, 1, store.ExistCalls())
}

func TestCredentialControl_Label(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})
	ctx := context.Background()

	missing := svc.NewControl("OpenAI", nil)
	missing.Mount(ctx)
	assert.Equal(t, "Set OpenAI API Key", missing.State().Label)

	require.NoError(t, store.Set(ctx, "openai", "sk"))
	present := svc.NewControl("OpenAI", nil)
	present.Mount(ctx)
	assert.Equal(t, "Update OpenAI API Key", present.State().Label)
}

func TestCredentialControl_SubmitOptimistic(t *testing.T) {
	store := newMockCredentialStore()
	store.setGate = make(chan struct{})
	notifier := &recordingNotifier{}
	svc := newCredentialService(store, notifier)

	saved := make(chan struct{})
	ctrl := svc.NewControl("OpenAI", func() { close(saved) })
	ctx := context.Background()
	ctrl.Mount(ctx)

	ctrl.Open()
	ctrl.SetInput("sk-new")
	require.NoError(t, ctrl.Submit(ctx))

	// Closed and cleared before the write is confirmed.
	state := ctrl.State()
	assert.False(t, state.Open)
	assert.True(t, state.HasKey)
	assert.Equal(t, "Update OpenAI API Key", state.Label)
	assert.Equal(t, 0, store.SetCalls())

	close(store.setGate)
	ctrl.Wait()
	<-saved

	assert.Equal(t, 1, store.SetCalls())
	assert.True(t, svc.Exists(ctx, "openai"))
	notes := notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, "Success", notes[0].Title)
}

func TestCredentialControl_SubmitTwoSpaces(t *testing.T) {
	store := newMockCredentialStore()
	notifier := &recordingNotifier{}
	svc := newCredentialService(store, notifier)
	ctrl := svc.NewControl("OpenAI", nil)
	ctx := context.Background()
	ctrl.Mount(ctx)

	ctrl.Open()
	ctrl.SetInput("  ")
	err := ctrl.Submit(ctx)
	ctrl.Wait()

	require.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 0, store.SetCalls())
	assert.True(t, ctrl.State().Open, "dialog stays open on validation failure")

	notes := notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, "Error", notes[0].Title)
}

func TestCredentialControl_OpenResetsInput(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})
	ctrl := svc.NewControl("OpenAI", nil)

	ctrl.Open()
	ctrl.SetInput("half-typed")
	ctrl.Dismiss()
	ctrl.Open()

	err := ctrl.Submit(context.Background())
	require.ErrorIs(t, err, model.ErrValidation, "input was reset on reopen")
}

func TestCredentialControl_PersistFailureRollsBack(t *testing.T) {
	store := newMockCredentialStore()
	store.setErr = errors.New("readonly database")
	notifier := &recordingNotifier{}
	svc := newCredentialService(store, notifier)
	ctrl := svc.NewControl("OpenAI", nil)
	ctx := context.Background()
	ctrl.Mount(ctx)

	ctrl.Open()
	ctrl.SetInput("sk-1")
	require.NoError(t, ctrl.Submit(ctx))
	ctrl.Wait()

	assert.False(t, ctrl.State().HasKey, "default handler restores the prior state")
	require.Error(t, ctrl.LastError())

	notes := notifier.All()
	require.Len(t, notes, 1)
	assert.Equal(t, model.SeverityDestructive, notes[0].Severity)
	assert.Contains(t, notes[0].Description, "could not be saved")
}

func TestCredentialControl_CustomFailureHandler(t *testing.T) {
	store := newMockCredentialStore()
	store.setErr = errors.New("boom")
	notifier := &recordingNotifier{}
	svc := newCredentialService(store, notifier)
	ctrl := svc.NewControl("OpenAI", nil)

	var gotPrev bool
	var gotErr error
	ctrl.SetPersistFailureHandler(func(_ *application.CredentialControl, prevHasKey bool, err error) {
		gotPrev = prevHasKey
		gotErr = err
	})

	ctrl.Open()
	ctrl.SetInput("sk-1")
	require.NoError(t, ctrl.Submit(context.Background()))
	ctrl.Wait()

	assert.False(t, gotPrev)
	require.Error(t, gotErr)
	assert.True(t, ctrl.State().HasKey, "custom handler chose not to roll back")
	assert.Empty(t, notifier.All())
}

func TestCredentialControl_WriteOutlivesRequestContext(t *testing.T) {
	store := newMockCredentialStore()
	svc := newCredentialService(store, &recordingNotifier{})
	ctrl := svc.NewControl("OpenAI", nil)

	ctx, cancel := context.WithCancel(context.Background())
	ctrl.Open()
	ctrl.SetInput("sk-1")
	require.NoError(t, ctrl.Submit(ctx))
	cancel()
	ctrl.Wait()

	assert.True(t, svc.Exists(context.Background(), "openai"))
}
