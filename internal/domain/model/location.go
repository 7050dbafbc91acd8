package model

import "time"

// LocationState is the phase of a single location acquisition.
type LocationState string

const (
	LocationStateIdle    LocationState = "idle"
	LocationStatePending LocationState = "pending"
	LocationStateSuccess LocationState = "success"
	LocationStateFailed  LocationState = "failed"
)

// IsTerminal reports whether no further transition can occur.
func (s LocationState) IsTerminal() bool {
	return s == LocationStateSuccess || s == LocationStateFailed
}

// Position is the payload of a successful location acquisition.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64 // meters
	Timestamp time.Time
}

// LocationResult is the observable outcome of an acquisition. Position is set
// only in LocationStateSuccess; Message only in LocationStateFailed.
type LocationResult struct {
	State    LocationState
	Position *Position
	Message  string
}

// IsLoading reports whether the loading indicator should be shown.
func (r LocationResult) IsLoading() bool {
	return r.State == LocationStatePending
}
