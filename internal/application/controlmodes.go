package application

import "github.com/ericfisherdev/brainpanel/internal/domain/model"

// ModeOption is one selectable entry in the assistant control panel.
type ModeOption struct {
	ID     model.ControlMode
	Label  string
	Active bool
}

// ControlOptions lists the modes a user can pick directly. Satellite and
// hacker modes are voice-activated only and never listed; while hacker mode
// is on, no listed mode is active.
func ControlOptions(activeMode model.ControlMode, hackerModeActive bool) []ModeOption {
	listed := []struct {
		id    model.ControlMode
		label string
	}{
		{model.ControlModeNormal, "Normal Mode"},
		{model.ControlModeVoice, "Voice Mode"},
		{model.ControlModeFace, "Face Mode"},
	}

	opts := make([]ModeOption, 0, len(listed))
	for _, m := range listed {
		opts = append(opts, ModeOption{
			ID:     m.id,
			Label:  m.label,
			Active: activeMode == m.id && !hackerModeActive,
		})
	}
	return opts
}
