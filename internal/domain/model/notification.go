package model

// Severity selects how a notification is displayed.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification is a fire-and-forget user message (toast). PanelID scopes it
// to the session that caused it; empty means it was not raised by a panel.
type Notification struct {
	PanelID     string
	Title       string
	Description string
	Severity    Severity
}
