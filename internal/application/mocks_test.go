package application_test

import (
	"context"
	"sync"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

// --- Mock implementations ---

type mockCredentialStore struct {
	mu         sync.Mutex
	secrets    map[model.ServiceID]string
	setCalls   int
	existCalls int
	setErr     error
	existsErr  error
	getErr     error
	setGate    chan struct{} // when non-nil, Set blocks until it is closed
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{secrets: make(map[model.ServiceID]string)}
}

func (m *mockCredentialStore) Exists(_ context.Context, service model.ServiceID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.secrets[service]
	return ok, nil
}

func (m *mockCredentialStore) Set(_ context.Context, service model.ServiceID, secret string) error {
	if m.setGate != nil {
		<-m.setGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.secrets[service] = secret
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, service model.ServiceID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.secrets[service], nil
}

func (m *mockCredentialStore) List(_ context.Context) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds := []model.Credential{}
	for service, secret := range m.secrets {
		creds = append(creds, model.Credential{Service: service, Secret: secret})
	}
	return creds, nil
}

func (m *mockCredentialStore) Delete(_ context.Context, service model.ServiceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, service)
	return nil
}

func (m *mockCredentialStore) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setCalls
}

func (m *mockCredentialStore) ExistCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existCalls
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []model.Notification
}

func (n *recordingNotifier) Notify(note model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
}

func (n *recordingNotifier) All() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Notification, len(n.items))
	copy(out, n.items)
	return out
}

// fakeLocator resolves with pos/err once release is closed (or immediately
// when release is nil).
type fakeLocator struct {
	available bool
	pos       model.Position
	err       error
	release   chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeLocator) Available() bool { return f.available }

func (f *fakeLocator) Locate(ctx context.Context) (model.Position, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return model.Position{}, ctx.Err()
		}
	}
	return f.pos, f.err
}

func (f *fakeLocator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ignoreCancelLocator ignores ctx and resolves only when release is closed.
type ignoreCancelLocator struct {
	release chan struct{}
	pos     model.Position
}

func (l *ignoreCancelLocator) Available() bool { return true }

func (l *ignoreCancelLocator) Locate(_ context.Context) (model.Position, error) {
	<-l.release
	return l.pos, nil
}

type stubConversation struct {
	msgs []model.Message
	err  error
}

func (s *stubConversation) Messages(_ context.Context) ([]model.Message, error) {
	return s.msgs, s.err
}

// fixedRand returns the same value (clamped to n-1) on every call.
type fixedRand struct{ v int }

func (r fixedRand) IntN(n int) int {
	if r.v >= n {
		return n - 1
	}
	return r.v
}
