package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Panels int    `json:"panels"`
}

// TelemetryResponse is one telemetry sample.
type TelemetryResponse struct {
	CPU       int    `json:"cpu"`
	Memory    int    `json:"memory"`
	Network   int    `json:"network"`
	SampledAt string `json:"sampled_at,omitempty"`
}

// PositionResponse is the payload of a successful location acquisition.
type PositionResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp string  `json:"timestamp"`
}

// LocationResponse is the current location acquisition state.
type LocationResponse struct {
	State    string            `json:"state"`
	Loading  bool              `json:"loading"`
	Position *PositionResponse `json:"position,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// MessageResponse is one conversation message.
type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// ConversationResponse is the composed ambient conversation.
type ConversationResponse struct {
	Available bool              `json:"available"`
	Messages  []MessageResponse `json:"messages"`
}

// CredentialControlResponse is the state of one credential entry control.
type CredentialControlResponse struct {
	Service string `json:"service"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	HasKey  bool   `json:"has_key"`
	Label   string `json:"label"`
}

// EmotionResponse is the emotional intelligence slot data.
type EmotionResponse struct {
	Emotions  map[string]float64 `json:"emotions"`
	Sentiment SentimentResponse  `json:"sentiment"`
}

// SentimentResponse is the sentiment part of EmotionResponse.
type SentimentResponse struct {
	Score       float64 `json:"score"`
	Comparative float64 `json:"comparative"`
	Type        string  `json:"type"`
}

// CoreResponse holds the core intelligence gauges.
type CoreResponse struct {
	IntelligenceCapacity int `json:"intelligence_capacity"`
	LearningModule       int `json:"learning_module"`
}

// PanelResponse is the JSON representation of one panel snapshot.
type PanelResponse struct {
	ID           string                      `json:"id"`
	Theme        string                      `json:"theme"`
	Telemetry    TelemetryResponse           `json:"telemetry"`
	Core         CoreResponse                `json:"core"`
	Location     LocationResponse            `json:"location"`
	Emotion      EmotionResponse             `json:"emotion"`
	Conversation ConversationResponse        `json:"conversation"`
	Credentials  []CredentialControlResponse `json:"credentials"`
}

// CredentialStatusResponse describes one service's credential.
type CredentialStatusResponse struct {
	Service    string `json:"service"`
	Exists     bool   `json:"exists"`
	Visible    bool   `json:"visible"`
	Suppressed bool   `json:"suppressed"`
	Configured bool   `json:"configured"`
}

// SetCredentialRequest is the JSON body for the set credential endpoint.
type SetCredentialRequest struct {
	Secret string `json:"secret"`
}

// AddMessageRequest is the JSON body for the add message endpoint.
type AddMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModeOptionResponse is one entry of the control options list.
type ModeOptionResponse struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: formatTime(m.CreatedAt),
	}
}

func toLocationResponse(r model.LocationResult) LocationResponse {
	resp := LocationResponse{
		State:   string(r.State),
		Loading: r.IsLoading(),
		Message: r.Message,
	}
	if r.Position != nil {
		resp.Position = &PositionResponse{
			Latitude:  r.Position.Latitude,
			Longitude: r.Position.Longitude,
			Accuracy:  r.Position.Accuracy,
			Timestamp: formatTime(r.Position.Timestamp),
		}
	}
	return resp
}

// toPanelResponse converts a panel snapshot to its JSON representation.
// All slices are initialized so clients never see null.
func toPanelResponse(s application.PanelState) PanelResponse {
	msgs := make([]MessageResponse, 0, len(s.Conversation.Messages))
	for _, m := range s.Conversation.Messages {
		msgs = append(msgs, toMessageResponse(m))
	}

	creds := make([]CredentialControlResponse, 0, len(s.Credentials))
	for _, c := range s.Credentials {
		creds = append(creds, CredentialControlResponse{
			Service: c.Service.String(),
			Name:    c.Name,
			Visible: c.Visible,
			HasKey:  c.HasKey,
			Label:   c.Label,
		})
	}

	return PanelResponse{
		ID:    s.ID,
		Theme: string(s.Theme),
		Telemetry: TelemetryResponse{
			CPU:       s.Telemetry.CPU,
			Memory:    s.Telemetry.Memory,
			Network:   s.Telemetry.Network,
			SampledAt: formatTime(s.Telemetry.SampledAt),
		},
		Core: CoreResponse{
			IntelligenceCapacity: s.Core.IntelligenceCapacity,
			LearningModule:       s.Core.LearningModule,
		},
		Location: toLocationResponse(s.Location),
		Emotion: EmotionResponse{
			Emotions: s.Emotion.Emotions,
			Sentiment: SentimentResponse{
				Score:       s.Emotion.Sentiment.Score,
				Comparative: s.Emotion.Sentiment.Comparative,
				Type:        s.Emotion.Sentiment.Type,
			},
		},
		Conversation: ConversationResponse{Available: s.Conversation.Available, Messages: msgs},
		Credentials:  creds,
	}
}
