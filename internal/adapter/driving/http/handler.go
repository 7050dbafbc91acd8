package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// NotificationFeed hands out the notifications raised for one panel exactly
// once. An empty panel ID selects notifications raised outside any panel.
type NotificationFeed interface {
	Drain(panelID string) []model.Notification
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	panels        *application.PanelService
	credentials   *application.CredentialService
	resolver      *application.CredentialResolver
	messages      driven.MessageStore
	notifications NotificationFeed
	logger        *slog.Logger
}

// NewHandler creates a Handler. messages and notifications may be nil; the
// endpoints depending on them then answer 503 and an empty list respectively.
func NewHandler(
	panels *application.PanelService,
	credentials *application.CredentialService,
	resolver *application.CredentialResolver,
	messages driven.MessageStore,
	notifications NotificationFeed,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		panels:        panels,
		credentials:   credentials,
		resolver:      resolver,
		messages:      messages,
		notifications: notifications,
		logger:        logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("POST /api/v1/panels", h.OpenPanel)
	mux.HandleFunc("GET /api/v1/panels/{id}", h.GetPanel)
	mux.HandleFunc("DELETE /api/v1/panels/{id}", h.ClosePanel)
	mux.HandleFunc("GET /api/v1/credentials/{service}", h.GetCredential)
	mux.HandleFunc("PUT /api/v1/credentials/{service}", h.SetCredential)
	mux.HandleFunc("GET /api/v1/messages", h.ListMessages)
	mux.HandleFunc("POST /api/v1/messages", h.AddMessage)
	mux.HandleFunc("GET /api/v1/notifications", h.ListNotifications)
	mux.HandleFunc("GET /api/v1/control-options", h.ControlOptions)
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// Health reports liveness and the number of mounted panels.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Panels: h.panels.Count(),
	})
}

// OpenPanel mounts a new panel and returns its first snapshot.
func (h *Handler) OpenPanel(w http.ResponseWriter, r *http.Request) {
	p, err := h.panels.Open(r.Context())
	if errors.Is(err, model.ErrPanelLimit) {
		h.logger.Warn("panel limit reached", "open_panels", h.panels.Count())
		writeError(w, http.StatusServiceUnavailable, "too many open panels")
		return
	}
	if err != nil {
		h.logger.Error("failed to open panel", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	theme := model.ParseThemeMode(r.URL.Query().Get("mode"))
	writeJSON(w, http.StatusCreated, toPanelResponse(p.Snapshot(r.Context(), theme)))
}

// GetPanel returns the current snapshot of a mounted panel.
func (h *Handler) GetPanel(w http.ResponseWriter, r *http.Request) {
	p, ok := h.panels.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "panel not found")
		return
	}

	theme := model.ParseThemeMode(r.URL.Query().Get("mode"))
	writeJSON(w, http.StatusOK, toPanelResponse(p.Snapshot(r.Context(), theme)))
}

// ClosePanel unmounts a panel and releases its timers and requests.
func (h *Handler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	if !h.panels.Close(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "panel not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCredential reports whether a credential exists for a service. The
// secret itself is never returned. Configured is true when either a stored
// or a fallback secret would be used.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("service")
	exists := h.credentials.Exists(r.Context(), name)

	configured := exists
	if h.resolver != nil {
		secret, err := h.resolver.Resolve(r.Context(), name)
		if err != nil {
			h.logger.Warn("credential resolution failed", "service", name, "error", err)
		}
		configured = secret != ""
	}

	writeJSON(w, http.StatusOK, CredentialStatusResponse{
		Service:    model.NormalizeServiceID(name).String(),
		Exists:     exists,
		Visible:    h.credentials.Visible(name, exists),
		Suppressed: h.credentials.Suppressed(name),
		Configured: configured,
	})
}

// SetCredential stores or replaces a service credential.
func (h *Handler) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req SetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := r.PathValue("service")
	if err := h.credentials.Set(r.Context(), name, req.Secret); err != nil {
		if errors.Is(err, model.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to set credential", "service", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save credential")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMessages returns the ambient conversation, oldest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	if h.messages == nil {
		writeJSON(w, http.StatusOK, ConversationResponse{Messages: []MessageResponse{}})
		return
	}

	msgs, err := h.messages.Messages(r.Context())
	if err != nil {
		h.logger.Error("failed to list messages", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, ConversationResponse{Available: true, Messages: resp})
}

// AddMessage appends a message to the ambient conversation.
func (h *Handler) AddMessage(w http.ResponseWriter, r *http.Request) {
	if h.messages == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation store not configured")
		return
	}

	var req AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := model.MessageRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if role != model.MessageRoleUser && role != model.MessageRoleAssistant {
		writeError(w, http.StatusBadRequest, "role must be user or assistant")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	msg, err := h.messages.Append(r.Context(), model.Message{Role: role, Content: req.Content})
	if err != nil {
		h.logger.Error("failed to append message", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// NotificationResponse is one user-visible notification.
type NotificationResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// ListNotifications drains the notifications of the panel named by the
// panel_id query parameter. Without it, notifications raised by direct
// credential writes are returned.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	resp := []NotificationResponse{}
	if h.notifications != nil {
		for _, n := range h.notifications.Drain(r.URL.Query().Get("panel_id")) {
			resp = append(resp, NotificationResponse{
				Title:       n.Title,
				Description: n.Description,
				Severity:    string(n.Severity),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ControlOptions returns the interaction mode list for the requested state.
// Query parameters: mode (active control mode), hacker (bool).
func (h *Handler) ControlOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hacker := false
	if v := q.Get("hacker"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "hacker must be a boolean")
			return
		}
		hacker = parsed
	}

	mode := model.ControlMode(q.Get("mode"))
	if mode == "" {
		mode = model.ControlModeNormal
	}

	opts := application.ControlOptions(mode, hacker)
	resp := make([]ModeOptionResponse, 0, len(opts))
	for _, o := range opts {
		resp = append(resp, ModeOptionResponse{ID: string(o.ID), Label: o.Label, Active: o.Active})
	}
	writeJSON(w, http.StatusOK, resp)
}
