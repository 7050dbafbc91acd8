package web

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"
	"time"

	vm "github.com/ericfisherdev/brainpanel/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

const acquiringLocationText = "Acquiring location..."

// toThemeViewModel derives every theme-dependent class from one mode value.
func toThemeViewModel(theme model.ThemeMode) vm.ThemeViewModel {
	if theme == model.ThemeModeHacker {
		return vm.ThemeViewModel{
			Mode:       string(theme),
			RootClass:  "panel panel--hacker",
			CardClass:  "card card--hacker",
			AccentText: "accent--red",
			BarFill:    "bar--red",
			ToggleURL:  "/",
			ToggleText: "Normal mode",
		}
	}
	return vm.ThemeViewModel{
		Mode:       string(model.ThemeModeNormal),
		RootClass:  "panel panel--normal",
		CardClass:  "card card--normal",
		AccentText: "accent--cyan",
		BarFill:    "bar--cyan",
		ToggleURL:  "/?mode=hacker",
		ToggleText: "Hacker mode",
	}
}

func gauge(label string, value int) vm.GaugeViewModel {
	return vm.GaugeViewModel{Label: label, Value: value, Percent: fmt.Sprintf("%d%%", value)}
}

// toLocationViewModel maps the location state machine to display text.
func toLocationViewModel(r model.LocationResult) vm.LocationViewModel {
	out := vm.LocationViewModel{State: string(r.State), Loading: r.IsLoading()}

	switch r.State {
	case model.LocationStatePending:
		out.Summary = acquiringLocationText
	case model.LocationStateSuccess:
		if r.Position != nil {
			out.Summary = fmt.Sprintf("%.4f, %.4f", r.Position.Latitude, r.Position.Longitude)
			out.Accuracy = fmt.Sprintf("±%.0f m", r.Position.Accuracy)
		}
	case model.LocationStateFailed:
		out.Summary = r.Message
		out.Failed = true
	}
	return out
}

// toEmotionViewModels returns the emotion bars sorted by name so rendering is stable.
func toEmotionViewModels(emotions map[string]float64) []vm.EmotionViewModel {
	names := make([]string, 0, len(emotions))
	for name := range emotions {
		names = append(names, name)
	}
	slices.Sort(names)

	vms := make([]vm.EmotionViewModel, 0, len(names))
	for _, name := range names {
		pct := math.Round(emotions[name] * 100)
		vms = append(vms, vm.EmotionViewModel{
			Name:    name,
			Value:   int(pct),
			Percent: fmt.Sprintf("%.0f%%", pct),
		})
	}
	return vms
}

func toMessageViewModels(msgs []model.Message) []vm.MessageViewModel {
	vms := make([]vm.MessageViewModel, 0, len(msgs))
	for _, m := range msgs {
		vms = append(vms, vm.MessageViewModel{
			ID:        m.ID,
			Role:      string(m.Role),
			BodyHTML:  RenderMarkdown(m.Content),
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return vms
}

// toCredentialViewModels keeps only the controls the visibility policy shows.
func toCredentialViewModels(states []application.CredentialControlState, theme model.ThemeMode) []vm.CredentialViewModel {
	vms := make([]vm.CredentialViewModel, 0, len(states))
	for _, s := range states {
		if !s.Visible {
			continue
		}
		vms = append(vms, vm.CredentialViewModel{
			Name:       s.Name,
			Service:    s.Service.String(),
			Label:      s.Label,
			HasKey:     s.HasKey,
			Open:       s.Open,
			FormAction: withMode("/app/credentials/"+url.PathEscape(s.Service.String()), theme),
		})
	}
	return vms
}

func toModeOptionViewModels(opts []application.ModeOption) []vm.ModeOptionViewModel {
	vms := make([]vm.ModeOptionViewModel, 0, len(opts))
	for _, o := range opts {
		vms = append(vms, vm.ModeOptionViewModel{ID: string(o.ID), Label: o.Label, Active: o.Active})
	}
	return vms
}

func toNotificationViewModels(notes []model.Notification) []vm.NotificationViewModel {
	vms := make([]vm.NotificationViewModel, 0, len(notes))
	for _, n := range notes {
		vms = append(vms, vm.NotificationViewModel{
			Title:       n.Title,
			Description: n.Description,
			Destructive: n.Severity == model.SeverityDestructive,
		})
	}
	return vms
}

// withMode appends the theme query parameter when it differs from the default.
func withMode(path string, theme model.ThemeMode) string {
	if theme != model.ThemeModeHacker {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "mode=" + string(theme)
}

// panelInputs bundles what the panel view model is built from besides the snapshot.
type panelInputs struct {
	controlMode   model.ControlMode
	notifications []model.Notification
	csrfToken     string
	refresh       time.Duration
}

// toPanelViewModel converts a panel snapshot into the fragment view model.
func toPanelViewModel(s application.PanelState, in panelInputs) vm.PanelViewModel {
	refresh := int(in.refresh / time.Second)
	if refresh < 1 {
		refresh = 1
	}

	return vm.PanelViewModel{
		ID:             s.ID,
		Theme:          toThemeViewModel(s.Theme),
		FragmentURL:    withMode("/app/panel", s.Theme),
		RefreshSeconds: refresh,
		CSRFToken:      in.csrfToken,
		Telemetry: []vm.GaugeViewModel{
			gauge("CPU", s.Telemetry.CPU),
			gauge("Memory", s.Telemetry.Memory),
			gauge("Network", s.Telemetry.Network),
		},
		Core: []vm.GaugeViewModel{
			gauge("Intelligence Capacity", s.Core.IntelligenceCapacity),
			gauge("Learning Module", s.Core.LearningModule),
		},
		Location: toLocationViewModel(s.Location),
		Emotions: toEmotionViewModels(s.Emotion.Emotions),
		Sentiment: vm.SentimentViewModel{
			Type:        s.Emotion.Sentiment.Type,
			Score:       fmt.Sprintf("%.2f", s.Emotion.Sentiment.Score),
			Comparative: fmt.Sprintf("%.2f", s.Emotion.Sentiment.Comparative),
		},
		ConversationAvailable: s.Conversation.Available,
		Messages:              toMessageViewModels(s.Conversation.Messages),
		Credentials:           toCredentialViewModels(s.Credentials, s.Theme),
		ControlOptions:        toModeOptionViewModels(application.ControlOptions(in.controlMode, s.Theme == model.ThemeModeHacker)),
		Notifications:         toNotificationViewModels(in.notifications),
	}
}
