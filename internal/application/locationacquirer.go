package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// NotSupportedMessage is the failure message when no location capability exists.
const NotSupportedMessage = "Geolocation not supported by your browser"

// LocationAcquirer performs a single asynchronous location request.
// States move Idle -> Pending -> Success|Failed, or Idle -> Failed when the
// capability is unavailable. There is no retry.
type LocationAcquirer struct {
	locator driven.Locator
	logger  *slog.Logger

	mu          sync.Mutex
	result      model.LocationResult
	transitions []model.LocationState
	started     bool
	closed      bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewLocationAcquirer creates an idle acquirer. A nil locator is treated as
// an unavailable capability.
func NewLocationAcquirer(locator driven.Locator, logger *slog.Logger) *LocationAcquirer {
	return &LocationAcquirer{
		locator:     locator,
		logger:      logger,
		result:      model.LocationResult{State: model.LocationStateIdle},
		transitions: []model.LocationState{model.LocationStateIdle},
		done:        make(chan struct{}),
	}
}

// Acquire starts the one-shot request and returns without waiting for it.
// Only the first call has any effect; calls after Close are ignored.
func (a *LocationAcquirer) Acquire(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started || a.closed {
		return
	}
	a.started = true

	if a.locator == nil || !a.locator.Available() {
		a.transition(model.LocationResult{State: model.LocationStateFailed, Message: NotSupportedMessage})
		close(a.done)
		return
	}

	a.transition(model.LocationResult{State: model.LocationStatePending})

	reqCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	go a.run(reqCtx)
}

func (a *LocationAcquirer) run(ctx context.Context) {
	defer close(a.done)

	pos, err := a.locator.Locate(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel()

	if a.closed {
		a.logger.Debug("discarding location result after teardown")
		return
	}

	if err != nil {
		a.logger.Error("error getting location", "error", err)
		a.transition(model.LocationResult{State: model.LocationStateFailed, Message: failureMessage(err)})
		return
	}

	a.transition(model.LocationResult{State: model.LocationStateSuccess, Position: &pos})
}

// transition records a new state. Callers hold a.mu.
func (a *LocationAcquirer) transition(r model.LocationResult) {
	a.result = r
	a.transitions = append(a.transitions, r.State)
}

// failureMessage keeps only the human-readable part of err.
func failureMessage(err error) string {
	var acqErr *model.AcquisitionError
	switch {
	case errors.As(err, &acqErr):
		return acqErr.Message
	case errors.Is(err, model.ErrCapabilityUnavailable):
		return NotSupportedMessage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Location request canceled"
	default:
		return err.Error()
	}
}

// Result returns the current outcome.
func (a *LocationAcquirer) Result() model.LocationResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Transitions returns every state visited so far, starting with Idle.
func (a *LocationAcquirer) Transitions() []model.LocationState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.LocationState, len(a.transitions))
	copy(out, a.transitions)
	return out
}

// Wait blocks until the acquisition resolves or ctx is done, then returns the
// current result. It returns immediately if Acquire was never called.
func (a *LocationAcquirer) Wait(ctx context.Context) model.LocationResult {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()

	if started {
		select {
		case <-a.done:
		case <-ctx.Done():
		}
	}
	return a.Result()
}

// Close cancels an in-flight request and waits for it to stop. A result that
// arrives after Close is discarded.
func (a *LocationAcquirer) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	started := a.started
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	if started {
		<-a.done
	}
}
