// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ThemeViewModel carries the CSS classes derived from the theme mode. Every
// component takes its colors from here so a mode switch restyles the whole
// panel at once.
type ThemeViewModel struct {
	Mode       string
	RootClass  string
	CardClass  string
	AccentText string
	BarFill    string
	ToggleURL  string
	ToggleText string
}

// GaugeViewModel holds one labelled percentage gauge.
type GaugeViewModel struct {
	Label   string
	Value   int
	Percent string // "42%"
}

// LocationViewModel holds the location slot.
type LocationViewModel struct {
	State    string
	Loading  bool
	Summary  string // coordinates on success, message on failure
	Accuracy string
	Failed   bool
}

// EmotionViewModel is one emotion bar.
type EmotionViewModel struct {
	Name    string
	Value   int
	Percent string
}

// SentimentViewModel holds the sentiment summary line.
type SentimentViewModel struct {
	Type        string
	Score       string
	Comparative string
}

// MessageViewModel holds one rendered conversation message.
type MessageViewModel struct {
	ID        string
	Role      string
	BodyHTML  string
	CreatedAt string
}

// CredentialViewModel holds one visible credential entry control.
type CredentialViewModel struct {
	Name       string
	Service    string
	Label      string
	HasKey     bool
	Open       bool
	FormAction string
}

// ModeOptionViewModel is one entry of the control mode list.
type ModeOptionViewModel struct {
	ID     string
	Label  string
	Active bool
}

// NotificationViewModel is one toast.
type NotificationViewModel struct {
	Title       string
	Description string
	Destructive bool
}

// PanelViewModel holds all data needed to render the panel fragment.
type PanelViewModel struct {
	ID             string
	Theme          ThemeViewModel
	FragmentURL    string
	RefreshSeconds int
	CSRFToken      string

	Telemetry []GaugeViewModel
	Core      []GaugeViewModel
	Location  LocationViewModel
	Emotions  []EmotionViewModel
	Sentiment SentimentViewModel

	ConversationAvailable bool
	Messages              []MessageViewModel

	Credentials    []CredentialViewModel
	ControlOptions []ModeOptionViewModel
	Notifications  []NotificationViewModel
}
