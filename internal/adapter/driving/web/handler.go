// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/brainpanel/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/brainpanel/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/brainpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

const (
	panelCookieName = "panel_id"
	pageTitle       = "Brain Panel"
)

// NotificationFeed hands out the notifications raised for one panel exactly once.
type NotificationFeed interface {
	Drain(panelID string) []model.Notification
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
// Each browser session is bound to one mounted panel through a cookie.
type Handler struct {
	panels        *application.PanelService
	notifications NotificationFeed
	refresh       time.Duration
	logger        *slog.Logger
}

// NewHandler creates a Handler. refresh is the fragment polling period the
// page asks the browser to use; it normally equals the telemetry interval.
func NewHandler(
	panels *application.PanelService,
	notifications NotificationFeed,
	refresh time.Duration,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		panels:        panels,
		notifications: notifications,
		refresh:       refresh,
		logger:        logger,
	}
}

// Dashboard renders the main panel page with the full HTML layout, mounting
// a panel for the session on first visit.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token := csrfToken(w, r)

	p, ok := h.sessionPanel(r)
	if !ok {
		var err error
		p, err = h.panels.Open(r.Context())
		if errors.Is(err, model.ErrPanelLimit) {
			h.logger.Warn("panel limit reached", "open_panels", h.panels.Count())
			http.Error(w, "too many open panels, try again later", http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			h.logger.Error("failed to open panel", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     panelCookieName,
			Value:    p.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	panel := h.panelViewModel(r, p, token)
	h.render(w, r, templates.Layout(pageTitle, pages.Dashboard(panel)))
}

// PanelFragment renders the live panel without the page shell.
func (h *Handler) PanelFragment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.sessionPanel(r)
	if !ok {
		http.Error(w, "panel not found", http.StatusNotFound)
		return
	}

	token := csrfToken(w, r)
	h.render(w, r, pages.Panel(h.panelViewModel(r, p, token)))
}

// SubmitCredential runs the entry control flow for one service: open, type,
// submit. The dialog closes optimistically; a failed write surfaces later as
// a destructive notification.
func (h *Handler) SubmitCredential(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	p, ok := h.sessionPanel(r)
	if !ok {
		http.Error(w, "panel not found", http.StatusNotFound)
		return
	}

	service := r.PathValue("service")
	control, ok := p.Control(service)
	if !ok {
		http.Error(w, "unknown service", http.StatusNotFound)
		return
	}
	if !control.State().Visible {
		http.Error(w, "credential entry not available", http.StatusForbidden)
		return
	}

	control.Open()
	control.SetInput(r.FormValue("secret"))
	if err := control.Submit(r.Context()); err != nil && !errors.Is(err, model.ErrValidation) {
		h.logger.Error("credential submit failed", "service", service, "error", err)
	}

	if !isFragmentRequest(r) {
		http.Redirect(w, r, withMode("/", model.ParseThemeMode(r.URL.Query().Get("mode"))), http.StatusSeeOther)
		return
	}

	h.render(w, r, pages.Panel(h.panelViewModel(r, p, csrfToken(w, r))))
}

// ClosePanel unmounts the session panel and clears the cookie.
func (h *Handler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	if cookie, err := r.Cookie(panelCookieName); err == nil {
		h.panels.Close(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     panelCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// sessionPanel returns the panel bound to the request's cookie, if still mounted.
func (h *Handler) sessionPanel(r *http.Request) (*application.Panel, bool) {
	cookie, err := r.Cookie(panelCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return h.panels.Get(cookie.Value)
}

func (h *Handler) panelViewModel(r *http.Request, p *application.Panel, token string) vm.PanelViewModel {
	q := r.URL.Query()
	theme := model.ParseThemeMode(q.Get("mode"))

	controlMode := model.ControlMode(q.Get("control"))
	if controlMode == "" {
		controlMode = model.ControlModeNormal
	}

	var notes []model.Notification
	if h.notifications != nil {
		notes = h.notifications.Drain(p.ID)
	}

	return toPanelViewModel(p.Snapshot(r.Context(), theme), panelInputs{
		controlMode:   controlMode,
		notifications: notes,
		csrfToken:     token,
		refresh:       h.refresh,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// isFragmentRequest reports whether the request came from panel.js and
// expects a fragment back instead of a redirect.
func isFragmentRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
