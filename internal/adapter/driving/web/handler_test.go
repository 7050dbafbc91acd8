package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/adapter/driven/notify"
	"github.com/ericfisherdev/brainpanel/internal/adapter/driving/web"
	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

type memCredentialStore struct {
	mu      sync.Mutex
	secrets map[model.ServiceID]string
}

func (m *memCredentialStore) Exists(_ context.Context, s model.ServiceID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.secrets[s]
	return ok, nil
}

func (m *memCredentialStore) Set(_ context.Context, s model.ServiceID, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[s] = secret
	return nil
}

func (m *memCredentialStore) Get(_ context.Context, s model.ServiceID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secrets[s], nil
}

func (m *memCredentialStore) List(_ context.Context) ([]model.Credential, error) { return nil, nil }

func (m *memCredentialStore) Delete(_ context.Context, s model.ServiceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, s)
	return nil
}

type webFixture struct {
	mux    *http.ServeMux
	store  *memCredentialStore
	poller *application.TelemetryPoller
	panels *application.PanelService
}

func setupWeb(t *testing.T) *webFixture {
	t.Helper()

	store := &memCredentialStore{secrets: make(map[model.ServiceID]string)}
	queue := notify.NewQueue(notify.DefaultCapacity, slog.Default())
	creds := application.NewCredentialService(store, queue, nil, slog.Default())
	poller := application.NewTelemetryPoller(time.Hour, nil, slog.Default())
	composer := application.NewContextComposer(nil, slog.Default())
	panels := application.NewPanelService(creds, poller, nil, composer, []string{"Groq", "OpenAI", "ElevenLabs"}, slog.Default())
	t.Cleanup(panels.CloseAll)

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(panels, queue, 8*time.Second, slog.Default()))
	return &webFixture{mux: mux, store: store, poller: poller, panels: panels}
}

func (f *webFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// openSession loads the dashboard and returns the panel and csrf cookies.
func (f *webFixture) openSession(t *testing.T) (panelID, csrf string) {
	t.Helper()
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	panelID = cookieValue(rec, "panel_id")
	csrf = cookieValue(rec, "csrf_token")
	require.NotEmpty(t, panelID)
	require.NotEmpty(t, csrf)
	return panelID, csrf
}

func withSession(req *http.Request, panelID, csrf string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "panel_id", Value: panelID})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrf})
	return req
}

func TestDashboard_MountsPanel(t *testing.T) {
	f := setupWeb(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, `id="panel-root"`)
	assert.Contains(t, body, "panel--normal")
	assert.Contains(t, body, "System Telemetry")
	assert.Contains(t, body, "42%")
	assert.Contains(t, body, "Geolocation not supported by your browser")
	assert.Contains(t, body, "Set OpenAI API Key")
	assert.Contains(t, body, "Set ElevenLabs API Key")
	assert.NotContains(t, body, "Groq API Key")
	assert.Equal(t, 1, f.panels.Count())
}

func TestDashboard_ReusesSessionPanel(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(httptest.NewRequest(http.MethodGet, "/?mode=hacker", nil), panelID, csrf))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cookieValue(rec, "panel_id"))
	assert.Contains(t, rec.Body.String(), "panel--hacker")
	assert.Contains(t, rec.Body.String(), "card--hacker")
	assert.NotContains(t, rec.Body.String(), "card--normal")
	assert.Equal(t, 1, f.panels.Count())
}

func TestPanelFragment(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(httptest.NewRequest(http.MethodGet, "/app/panel", nil), panelID, csrf))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!doctype html>")
	assert.Contains(t, rec.Body.String(), `id="panel"`)
}

func TestPanelFragment_NoSession(t *testing.T) {
	f := setupWeb(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/app/panel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSubmitCredential(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	req := withSession(postForm("/app/credentials/openai", url.Values{
		"csrf_token": {csrf},
		"secret":     {"sk-live"},
	}), panelID, csrf)
	req.Header.Set("HX-Request", "true")

	rec := f.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Update OpenAI API Key")

	p, ok := f.panels.Get(panelID)
	require.True(t, ok)
	control, ok := p.Control("OpenAI")
	require.True(t, ok)
	control.Wait()

	secret, err := f.store.Get(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-live", secret)
}

func TestSubmitCredential_EmptySecret(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	req := withSession(postForm("/app/credentials/openai", url.Values{
		"csrf_token": {csrf},
		"secret":     {"  "},
	}), panelID, csrf)
	req.Header.Set("HX-Request", "true")

	rec := f.serve(req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "toast--destructive")
	assert.Contains(t, body, "API key cannot be empty")
	assert.Contains(t, body, `data-service="openai" open`)

	exists, err := f.store.Exists(context.Background(), "openai")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSubmitCredential_RedirectWithoutScript(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(postForm("/app/credentials/elevenlabs?mode=hacker", url.Values{
		"csrf_token": {csrf},
		"secret":     {"el-key"},
	}), panelID, csrf))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?mode=hacker", rec.Header().Get("Location"))
}

func TestSubmitCredential_BadCSRF(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(postForm("/app/credentials/openai", url.Values{
		"csrf_token": {"forged"},
		"secret":     {"sk"},
	}), panelID, csrf))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubmitCredential_UnknownService(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(postForm("/app/credentials/anthropic", url.Values{
		"csrf_token": {csrf},
		"secret":     {"sk"},
	}), panelID, csrf))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClosePanel(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	rec := f.serve(withSession(postForm("/app/panel/close", url.Values{"csrf_token": {csrf}}), panelID, csrf))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, f.panels.Count())
}

func TestStaticAssets(t *testing.T) {
	f := setupWeb(t)

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/static/panel.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".panel--hacker")
}

func TestSubmitCredential_HiddenControl(t *testing.T) {
	f := setupWeb(t)
	panelID, csrf := f.openSession(t)

	req := withSession(postForm("/app/credentials/groq", url.Values{
		"csrf_token": {csrf},
		"secret":     {"gsk-live"},
	}), panelID, csrf)
	req.Header.Set("HX-Request", "true")

	rec := f.serve(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	exists, err := f.store.Exists(context.Background(), "groq")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNotifications_StayWithTheirSession(t *testing.T) {
	f := setupWeb(t)
	firstID, firstCSRF := f.openSession(t)
	secondID, secondCSRF := f.openSession(t)

	rec := f.serve(withSession(postForm("/app/credentials/openai", url.Values{
		"csrf_token": {firstCSRF},
		"secret":     {""},
	}), firstID, firstCSRF))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.serve(withSession(httptest.NewRequest(http.MethodGet, "/app/panel", nil), secondID, secondCSRF))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "API key cannot be empty")

	rec = f.serve(withSession(httptest.NewRequest(http.MethodGet, "/", nil), firstID, firstCSRF))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "API key cannot be empty")
}

func TestDashboard_IdlePanelsExpire(t *testing.T) {
	f := setupWeb(t)
	f.panels.SetLimits(application.PanelLimits{IdleTTL: time.Minute, MaxPanels: 5})

	for range 5 {
		rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Equal(t, 5, f.poller.ActiveTimers())

	rec := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, cookieValue(rec, "panel_id"))
	assert.Equal(t, 5, f.panels.Count())

	assert.Equal(t, 5, f.panels.Reap(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, f.poller.ActiveTimers())
	assert.Equal(t, 0, f.panels.Count())

	rec = f.serve(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
