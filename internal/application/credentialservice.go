package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// VisibilityRule decides whether a service's credential entry control is shown.
type VisibilityRule int

const (
	// VisibilityShown always shows the control. It is the rule for any
	// service without an explicit entry.
	VisibilityShown VisibilityRule = iota
	// VisibilityHidden never shows the control. Used for services that are
	// pre-provisioned with a fallback credential.
	VisibilityHidden
	// VisibilityHiddenWhenSet shows the control only until a credential exists.
	VisibilityHiddenWhenSet
)

// VisibilityPolicy maps services to their visibility rule. Exceptions are
// added as table rows, never as code branches.
type VisibilityPolicy map[model.ServiceID]VisibilityRule

// DefaultVisibilityPolicy hides the Groq control: the deployment ships a
// fallback Groq key.
func DefaultVisibilityPolicy() VisibilityPolicy {
	return VisibilityPolicy{
		"groq": VisibilityHidden,
	}
}

// Rule returns the rule for service, VisibilityShown if none is listed.
func (p VisibilityPolicy) Rule(service model.ServiceID) VisibilityRule {
	if rule, ok := p[service]; ok {
		return rule
	}
	return VisibilityShown
}

// Visible is the pure visibility function of service and credential existence.
func (p VisibilityPolicy) Visible(service model.ServiceID, hasKey bool) bool {
	switch p.Rule(service) {
	case VisibilityHidden:
		return false
	case VisibilityHiddenWhenSet:
		return !hasKey
	default:
		return true
	}
}

const emptySecretMessage = "API key cannot be empty"

// CredentialService manages the existence/update lifecycle of service
// credentials on top of a CredentialStore.
type CredentialService struct {
	store    driven.CredentialStore
	notifier driven.Notifier
	policy   VisibilityPolicy
	logger   *slog.Logger
}

// NewCredentialService creates a CredentialService. A nil policy uses
// DefaultVisibilityPolicy.
func NewCredentialService(
	store driven.CredentialStore,
	notifier driven.Notifier,
	policy VisibilityPolicy,
	logger *slog.Logger,
) *CredentialService {
	if policy == nil {
		policy = DefaultVisibilityPolicy()
	}
	return &CredentialService{
		store:    store,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
	}
}

// Exists reports whether a credential is stored for name. It never fails:
// store errors are logged and reported as false.
func (s *CredentialService) Exists(ctx context.Context, name string) bool {
	service := model.NormalizeServiceID(name)
	exists, err := s.store.Exists(ctx, service)
	if err != nil {
		s.logger.Error("credential existence check failed", "service", service, "error", err)
		return false
	}
	return exists
}

// Set validates secret and persists it for name, replacing any prior value.
// A whitespace-only secret yields model.ErrValidation, a destructive
// notification, and no store call.
func (s *CredentialService) Set(ctx context.Context, name, secret string) error {
	if err := s.validate("", secret); err != nil {
		return err
	}
	return s.persist(ctx, "", name, secret)
}

// Suppressed reports whether name's entry control is hidden regardless of
// stored state.
func (s *CredentialService) Suppressed(name string) bool {
	return s.policy.Rule(model.NormalizeServiceID(name)) == VisibilityHidden
}

// Visible applies the visibility policy to name and hasKey.
func (s *CredentialService) Visible(name string, hasKey bool) bool {
	return s.policy.Visible(model.NormalizeServiceID(name), hasKey)
}

// validate rejects empty secrets and notifies the user. panelID scopes the
// notification; empty for calls not made through a panel control.
func (s *CredentialService) validate(panelID, secret string) error {
	if strings.TrimSpace(secret) != "" {
		return nil
	}
	s.notifier.Notify(model.Notification{
		PanelID:     panelID,
		Title:       "Error",
		Description: emptySecretMessage,
		Severity:    model.SeverityDestructive,
	})
	return fmt.Errorf("%w: %s", model.ErrValidation, emptySecretMessage)
}

func (s *CredentialService) persist(ctx context.Context, panelID, name, secret string) error {
	service := model.NormalizeServiceID(name)
	if err := s.store.Set(ctx, service, secret); err != nil {
		return fmt.Errorf("persist credential for %s: %w", service, err)
	}

	s.logger.Info("credential updated", "service", service)
	s.notifier.Notify(model.Notification{
		PanelID:     panelID,
		Title:       "Success",
		Description: fmt.Sprintf("%s API key has been updated", name),
		Severity:    model.SeverityDefault,
	})
	return nil
}

// PersistFailureHandler runs when an optimistic credential write fails after
// the entry control has already closed. prevHasKey is the control's state
// before the submit.
type PersistFailureHandler func(c *CredentialControl, prevHasKey bool, err error)

// CredentialControlState is a snapshot of one entry control.
type CredentialControlState struct {
	Name    string
	Service model.ServiceID
	Visible bool
	HasKey  bool
	Open    bool
	Label   string
}

// CredentialControl is the per-panel entry control for one service's
// credential. It mirrors a set/update dialog: one existence check on Mount,
// then Open, input, Submit.
type CredentialControl struct {
	svc       *CredentialService
	panelID   string // set by PanelService; scopes notifications
	name      string
	service   model.ServiceID
	onSaved   func()
	onFailure PersistFailureHandler

	mu      sync.Mutex
	mounted bool
	hasKey  bool
	open    bool
	input   string
	lastErr error

	inflight sync.WaitGroup
}

// NewControl creates an entry control for the service display name.
// onSaved, if non-nil, runs after each confirmed write.
func (s *CredentialService) NewControl(name string, onSaved func()) *CredentialControl {
	c := &CredentialControl{
		svc:     s,
		name:    name,
		service: model.NormalizeServiceID(name),
		onSaved: onSaved,
	}
	c.onFailure = defaultPersistFailure
	return c
}

// SetPersistFailureHandler replaces the handler run when an optimistic write fails.
func (c *CredentialControl) SetPersistFailureHandler(h PersistFailureHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = h
}

// Mount performs the control's single existence check. Later calls are no-ops.
func (c *CredentialControl) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	exists := c.svc.Exists(ctx, c.name)

	c.mu.Lock()
	c.hasKey = exists
	c.mu.Unlock()
}

// Service returns the normalized service identifier.
func (c *CredentialControl) Service() model.ServiceID {
	return c.service
}

// Open shows the dialog with a cleared input.
func (c *CredentialControl) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.input = ""
}

// Dismiss hides the dialog without saving.
func (c *CredentialControl) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

// SetInput records the value typed into the dialog.
func (c *CredentialControl) SetInput(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = v
}

// Submit validates the current input and issues the write. On success the
// dialog closes, the input clears and the control reports hasKey immediately,
// before the write is confirmed. A validation failure leaves the dialog open.
func (c *CredentialControl) Submit(ctx context.Context) error {
	c.mu.Lock()
	secret := c.input
	c.mu.Unlock()

	if err := c.svc.validate(c.panelID, secret); err != nil {
		return err
	}

	c.mu.Lock()
	prevHasKey := c.hasKey
	c.open = false
	c.input = ""
	c.hasKey = true
	c.lastErr = nil
	onFailure := c.onFailure
	c.mu.Unlock()

	// The write must outlive the request that triggered it.
	writeCtx := context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()

		if err := c.svc.persist(writeCtx, c.panelID, c.name, secret); err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.mu.Unlock()
			if onFailure != nil {
				onFailure(c, prevHasKey, err)
			}
			return
		}

		if c.onSaved != nil {
			c.onSaved()
		}
	}()

	return nil
}

// Wait blocks until every issued write has finished.
func (c *CredentialControl) Wait() {
	c.inflight.Wait()
}

// LastError returns the error of the most recent failed write, if any.
func (c *CredentialControl) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// RestoreHasKey sets the existence flag back, typically from a failure handler.
func (c *CredentialControl) RestoreHasKey(hasKey bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasKey = hasKey
}

// State returns a snapshot of the control.
func (c *CredentialControl) State() CredentialControlState {
	c.mu.Lock()
	defer c.mu.Unlock()

	verb := "Set"
	if c.hasKey {
		verb = "Update"
	}

	return CredentialControlState{
		Name:    c.name,
		Service: c.service,
		Visible: c.svc.policy.Visible(c.service, c.hasKey),
		HasKey:  c.hasKey,
		Open:    c.open,
		Label:   fmt.Sprintf("%s %s API Key", verb, c.name),
	}
}

// defaultPersistFailure logs, rolls hasKey back and tells the user.
func defaultPersistFailure(c *CredentialControl, prevHasKey bool, err error) {
	c.svc.logger.Error("optimistic credential write failed", "service", c.service, "error", err)
	c.RestoreHasKey(prevHasKey)
	c.svc.notifier.Notify(model.Notification{
		PanelID:     c.panelID,
		Title:       "Error",
		Description: fmt.Sprintf("%s API key could not be saved", c.name),
		Severity:    model.SeverityDestructive,
	})
}
