// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// PanelState is one consistent view of every subsystem the panel shows.
// Subsystems in a non-final state (location pending) are reported as-is.
type PanelState struct {
	ID           string
	Theme        model.ThemeMode
	Telemetry    model.TelemetrySample
	Core         model.CoreIntelligence
	Location     model.LocationResult
	Emotion      model.EmotionalSnapshot
	Conversation model.ComposedContext
	Credentials  []CredentialControlState
}

// PanelLimits bounds the panel sessions a PanelService keeps mounted.
type PanelLimits struct {
	// IdleTTL closes a panel nobody has read for this long. Zero disables expiry.
	IdleTTL time.Duration
	// MaxPanels caps concurrently mounted panels. Zero means no cap.
	MaxPanels int
}

// DefaultPanelLimits is applied by NewPanelService.
var DefaultPanelLimits = PanelLimits{IdleTTL: 10 * time.Minute, MaxPanels: 64}

// PanelService mounts and tracks panel sessions.
type PanelService struct {
	credentials *CredentialService
	poller      *TelemetryPoller
	locator     driven.Locator
	composer    *ContextComposer
	services    []string
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	limits PanelLimits
	panels map[string]*Panel
}

// NewPanelService creates a PanelService. services lists the display names
// of the credential entry controls each panel mounts. locator may be nil.
func NewPanelService(
	credentials *CredentialService,
	poller *TelemetryPoller,
	locator driven.Locator,
	composer *ContextComposer,
	services []string,
	logger *slog.Logger,
) *PanelService {
	return &PanelService{
		credentials: credentials,
		poller:      poller,
		locator:     locator,
		composer:    composer,
		services:    services,
		logger:      logger,
		now:         time.Now,
		limits:      DefaultPanelLimits,
		panels:      make(map[string]*Panel),
	}
}

// SetLimits replaces the session limits. Already mounted panels are kept
// until the next Reap.
func (s *PanelService) SetLimits(l PanelLimits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = l
}

// Limits returns the current session limits.
func (s *PanelService) Limits() PanelLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// full reports whether the panel cap is reached. Callers hold s.mu.
func (s *PanelService) full() bool {
	return s.limits.MaxPanels > 0 && len(s.panels) >= s.limits.MaxPanels
}

// Open mounts a new panel: it starts the telemetry timer, launches the
// location request and runs one existence check per credential control.
// The panel outlives ctx; Close, CloseAll or idle expiry tears it down.
// Open fails with model.ErrPanelLimit when the cap is reached even after
// expiring idle panels, and with ctx's error if ctx ends during mounting.
func (s *PanelService) Open(ctx context.Context) (*Panel, error) {
	s.mu.Lock()
	full := s.full()
	s.mu.Unlock()
	if full {
		s.Reap(s.now())
		s.mu.Lock()
		full = s.full()
		s.mu.Unlock()
		if full {
			return nil, model.ErrPanelLimit
		}
	}

	lifeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	p := &Panel{
		ID:        uuid.NewString(),
		composer:  s.composer,
		location:  NewLocationAcquirer(s.locator, s.logger),
		telemetry: model.InitialTelemetry,
		cancel:    cancel,
		logger:    s.logger,
		now:       s.now,
	}
	p.touch()

	for _, name := range s.services {
		c := s.credentials.NewControl(name, nil)
		c.panelID = p.ID
		p.controls = append(p.controls, c)
	}

	// A requester that went away while the controls were checked gets no
	// panel; nothing has been started yet.
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range p.controls {
		g.Go(func() error {
			c.Mount(gctx)
			return ctx.Err()
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mount panel: %w", err)
	}

	p.handle = s.poller.Start(lifeCtx, p.setTelemetry)
	p.location.Acquire(lifeCtx)

	s.mu.Lock()
	if s.full() {
		s.mu.Unlock()
		p.Close()
		return nil, model.ErrPanelLimit
	}
	s.panels[p.ID] = p
	s.mu.Unlock()

	s.logger.Info("panel mounted", "panel_id", p.ID, "controls", len(p.controls))
	return p, nil
}

// Get returns the panel with the given ID and marks it as accessed.
func (s *PanelService) Get(id string) (*Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.panels[id]
	if ok {
		p.touch()
	}
	return p, ok
}

// Reap closes every panel not accessed within the idle TTL as of now and
// returns how many it closed.
func (s *PanelService) Reap(now time.Time) int {
	s.mu.Lock()
	ttl := s.limits.IdleTTL
	if ttl <= 0 {
		s.mu.Unlock()
		return 0
	}
	var stale []*Panel
	for id, p := range s.panels {
		if now.Sub(p.LastAccess()) > ttl {
			stale = append(stale, p)
			delete(s.panels, id)
		}
	}
	s.mu.Unlock()

	for _, p := range stale {
		p.Close()
	}
	if len(stale) > 0 {
		s.logger.Info("expired idle panels", "count", len(stale), "idle_ttl", ttl)
	}
	return len(stale)
}

// RunReaper expires idle panels every interval until ctx is done. A
// non-positive interval uses half the idle TTL. It returns nil on
// cancellation so it can run under an errgroup.
func (s *PanelService) RunReaper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = s.Limits().IdleTTL / 2
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Reap(s.now())
		}
	}
}

// Close tears down the panel with the given ID. It reports whether a panel was found.
func (s *PanelService) Close(id string) bool {
	s.mu.Lock()
	p, ok := s.panels[id]
	delete(s.panels, id)
	s.mu.Unlock()

	if ok {
		p.Close()
	}
	return ok
}

// CloseAll tears down every open panel.
func (s *PanelService) CloseAll() {
	s.mu.Lock()
	panels := s.panels
	s.panels = make(map[string]*Panel)
	s.mu.Unlock()

	for _, p := range panels {
		p.Close()
	}
}

// Count returns the number of open panels.
func (s *PanelService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels)
}

// Panel is one mounted dashboard session.
type Panel struct {
	ID string

	composer *ContextComposer
	location *LocationAcquirer
	controls []*CredentialControl
	handle   *TelemetryHandle
	cancel   context.CancelFunc
	logger   *slog.Logger
	now      func() time.Time

	lastAccess atomic.Int64 // unix nanoseconds

	mu        sync.RWMutex
	telemetry model.TelemetrySample

	closeOnce sync.Once
}

func (p *Panel) touch() {
	p.lastAccess.Store(p.now().UnixNano())
}

// LastAccess returns when the panel was last opened, fetched or snapshotted.
func (p *Panel) LastAccess() time.Time {
	return time.Unix(0, p.lastAccess.Load())
}

func (p *Panel) setTelemetry(s model.TelemetrySample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.telemetry = s
}

// Telemetry returns the most recent sample.
func (p *Panel) Telemetry() model.TelemetrySample {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.telemetry
}

// Location returns the location acquirer of this panel.
func (p *Panel) Location() *LocationAcquirer {
	return p.location
}

// Control returns the credential control for name.
func (p *Panel) Control(name string) (*CredentialControl, bool) {
	service := model.NormalizeServiceID(name)
	for _, c := range p.controls {
		if c.Service() == service {
			return c, true
		}
	}
	return nil, false
}

// Snapshot routes every subsystem's current value into one PanelState.
// It never waits on a pending subsystem.
func (p *Panel) Snapshot(ctx context.Context, theme model.ThemeMode) PanelState {
	p.touch()

	creds := make([]CredentialControlState, 0, len(p.controls))
	for _, c := range p.controls {
		creds = append(creds, c.State())
	}

	return PanelState{
		ID:           p.ID,
		Theme:        theme,
		Telemetry:    p.Telemetry(),
		Core:         model.DefaultCoreIntelligence(),
		Location:     p.location.Result(),
		Emotion:      model.SampleEmotionalSnapshot(),
		Conversation: p.composer.Compose(ctx),
		Credentials:  creds,
	}
}

// Close releases the telemetry timer, cancels the location request and
// waits for in-flight credential writes. Safe to call more than once.
func (p *Panel) Close() {
	p.closeOnce.Do(func() {
		p.handle.Stop()
		p.location.Close()
		p.cancel()
		for _, c := range p.controls {
			c.Wait()
		}
		p.logger.Info("panel closed", "panel_id", p.ID)
	})
}
