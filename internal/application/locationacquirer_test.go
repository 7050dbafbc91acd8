package application_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func waitResult(t *testing.T, a *application.LocationAcquirer) model.LocationResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r := a.Wait(ctx)
	require.NoError(t, ctx.Err(), "acquisition did not resolve")
	return r
}

func TestLocationAcquirer_StartsIdle(t *testing.T) {
	a := application.NewLocationAcquirer(&fakeLocator{available: true}, slog.Default())

	assert.Equal(t, model.LocationStateIdle, a.Result().State)
	assert.Equal(t, []model.LocationState{model.LocationStateIdle}, a.Transitions())
}

func TestLocationAcquirer_UnavailableSkipsPending(t *testing.T) {
	locator := &fakeLocator{available: false}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())
	r := waitResult(t, a)

	assert.Equal(t, model.LocationStateFailed, r.State)
	assert.Equal(t, "Geolocation not supported by your browser", r.Message)
	assert.Nil(t, r.Position)
	assert.Equal(t, []model.LocationState{model.LocationStateIdle, model.LocationStateFailed}, a.Transitions())
	assert.NotContains(t, a.Transitions(), model.LocationStatePending)
	assert.Equal(t, 0, locator.Calls())
}

func TestLocationAcquirer_NilLocatorIsUnavailable(t *testing.T) {
	a := application.NewLocationAcquirer(nil, slog.Default())

	a.Acquire(context.Background())

	assert.Equal(t, application.NotSupportedMessage, a.Result().Message)
}

func TestLocationAcquirer_Success(t *testing.T) {
	release := make(chan struct{})
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	locator := &fakeLocator{
		available: true,
		release:   release,
		pos:       model.Position{Latitude: 48.85, Longitude: 2.35, Accuracy: 20, Timestamp: stamp},
	}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())
	pending := a.Result()
	assert.Equal(t, model.LocationStatePending, pending.State)
	assert.True(t, pending.IsLoading())

	close(release)
	r := waitResult(t, a)

	assert.Equal(t, model.LocationStateSuccess, r.State)
	require.NotNil(t, r.Position)
	assert.InDelta(t, 48.85, r.Position.Latitude, 1e-9)
	assert.Equal(t, stamp, r.Position.Timestamp)
	assert.Empty(t, r.Message)
	assert.Equal(t, []model.LocationState{
		model.LocationStateIdle, model.LocationStatePending, model.LocationStateSuccess,
	}, a.Transitions())
}

func TestLocationAcquirer_FailureKeepsOnlyMessage(t *testing.T) {
	locator := &fakeLocator{
		available: true,
		err:       model.NewAcquisitionError(model.AcquisitionPermissionDenied, "User denied Geolocation"),
	}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())
	r := waitResult(t, a)

	assert.Equal(t, model.LocationStateFailed, r.State)
	assert.Equal(t, "User denied Geolocation", r.Message)
	assert.Nil(t, r.Position)
}

func TestLocationAcquirer_GenericErrorMessage(t *testing.T) {
	locator := &fakeLocator{available: true, err: errors.New("sensor offline")}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())

	assert.Equal(t, "sensor offline", waitResult(t, a).Message)
}

func TestLocationAcquirer_OneShot(t *testing.T) {
	locator := &fakeLocator{available: true}
	a := application.NewLocationAcquirer(locator, slog.Default())
	ctx := context.Background()

	a.Acquire(ctx)
	waitResult(t, a)
	a.Acquire(ctx)
	a.Acquire(ctx)

	assert.Equal(t, 1, locator.Calls())

	out := 0
	for _, s := range a.Transitions() {
		if s.IsTerminal() {
			out++
		}
	}
	assert.Equal(t, 1, out, "exactly one transition out of pending")
}

func TestLocationAcquirer_CloseCancelsInFlight(t *testing.T) {
	locator := &fakeLocator{available: true, release: make(chan struct{})}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())
	a.Close()

	assert.Equal(t, model.LocationStatePending, a.Result().State, "no resolution into a torn-down owner")
	assert.Equal(t, []model.LocationState{model.LocationStateIdle, model.LocationStatePending}, a.Transitions())
}

func TestLocationAcquirer_LateResultDiscarded(t *testing.T) {
	locator := &ignoreCancelLocator{release: make(chan struct{}), pos: model.Position{Latitude: 1}}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Acquire(context.Background())

	closed := make(chan struct{})
	go func() {
		a.Close()
		close(closed)
	}()

	// Close waits for the locator; let it resolve after teardown began.
	time.Sleep(10 * time.Millisecond)
	close(locator.release)
	<-closed

	assert.Equal(t, model.LocationStatePending, a.Result().State)
	assert.Nil(t, a.Result().Position)
}

func TestLocationAcquirer_AcquireAfterCloseIgnored(t *testing.T) {
	locator := &fakeLocator{available: true}
	a := application.NewLocationAcquirer(locator, slog.Default())

	a.Close()
	a.Acquire(context.Background())

	assert.Equal(t, model.LocationStateIdle, a.Result().State)
	assert.Equal(t, 0, locator.Calls())
}

func TestLocationAcquirer_ParentCancelFails(t *testing.T) {
	locator := &fakeLocator{available: true, release: make(chan struct{})}
	a := application.NewLocationAcquirer(locator, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	a.Acquire(ctx)
	cancel()

	r := waitResult(t, a)
	assert.Equal(t, model.LocationStateFailed, r.State)
	assert.Equal(t, "Location request canceled", r.Message)
}
