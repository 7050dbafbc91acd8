package application

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// DefaultTelemetryInterval is the period between synthetic samples.
const DefaultTelemetryInterval = 8 * time.Second

// mathRand is the default RandomSource.
type mathRand struct{}

func (mathRand) IntN(n int) int { return rand.IntN(n) }

// TelemetryPoller produces synthetic resource-usage samples on a fixed period.
type TelemetryPoller struct {
	interval time.Duration
	rng      driven.RandomSource
	now      func() time.Time
	logger   *slog.Logger
	active   atomic.Int64
}

// NewTelemetryPoller creates a poller. A nil rng uses math/rand/v2; a
// non-positive interval uses DefaultTelemetryInterval.
func NewTelemetryPoller(interval time.Duration, rng driven.RandomSource, logger *slog.Logger) *TelemetryPoller {
	if interval <= 0 {
		interval = DefaultTelemetryInterval
	}
	if rng == nil {
		rng = mathRand{}
	}
	return &TelemetryPoller{
		interval: interval,
		rng:      rng,
		now:      time.Now,
		logger:   logger,
	}
}

// Interval returns the sampling period.
func (p *TelemetryPoller) Interval() time.Duration {
	return p.interval
}

// Sample draws one sample, each channel independently within its bounds.
func (p *TelemetryPoller) Sample() model.TelemetrySample {
	return model.TelemetrySample{
		CPU:       model.CPUBounds.Min + p.rng.IntN(model.CPUBounds.Width()),
		Memory:    model.MemoryBounds.Min + p.rng.IntN(model.MemoryBounds.Width()),
		Network:   model.NetworkBounds.Min + p.rng.IntN(model.NetworkBounds.Width()),
		SampledAt: p.now(),
	}
}

// ActiveTimers returns the number of running sample timers.
func (p *TelemetryPoller) ActiveTimers() int {
	return int(p.active.Load())
}

// TelemetryHandle owns one running sample timer. Stop must be called when
// the owner is torn down.
type TelemetryHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop releases the timer and returns once the sampling goroutine has exited.
// No sample is emitted after Stop returns. Stop is safe to call repeatedly.
func (h *TelemetryHandle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed when the timer has been released.
func (h *TelemetryHandle) Done() <-chan struct{} {
	return h.done
}

// Start emits one sample per interval until ctx is canceled or the returned
// handle is stopped. Each tick is scheduled from the end of the previous one.
func (p *TelemetryPoller) Start(ctx context.Context, emit func(model.TelemetrySample)) *TelemetryHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &TelemetryHandle{cancel: cancel, done: make(chan struct{})}

	p.active.Add(1)
	go p.run(ctx, h.done, emit)

	return h
}

func (p *TelemetryPoller) run(ctx context.Context, done chan struct{}, emit func(model.TelemetrySample)) {
	defer close(done)
	defer p.active.Add(-1)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("telemetry timer released")
			return
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			emit(p.Sample())
			timer.Reset(p.interval)
		}
	}
}
