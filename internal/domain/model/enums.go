package model

// ThemeMode selects the panel color scheme.
type ThemeMode string

const (
	ThemeModeNormal ThemeMode = "normal"
	ThemeModeHacker ThemeMode = "hacker" // High-contrast alert variant.
)

// ParseThemeMode maps a query value to a ThemeMode, defaulting to normal.
func ParseThemeMode(v string) ThemeMode {
	if ThemeMode(v) == ThemeModeHacker {
		return ThemeModeHacker
	}
	return ThemeModeNormal
}

// ControlMode is an assistant interaction mode.
type ControlMode string

const (
	ControlModeNormal    ControlMode = "normal"
	ControlModeVoice     ControlMode = "voice"
	ControlModeFace      ControlMode = "face"
	ControlModeHacker    ControlMode = "hacker"
	ControlModeSatellite ControlMode = "satellite"
)
