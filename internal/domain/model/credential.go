package model

import (
	"strings"
	"time"
)

// ServiceID names the external system that owns a credential ("groq",
// "openai"). Values are always lowercased; construct them with
// NormalizeServiceID.
type ServiceID string

// NormalizeServiceID trims and lowercases a user-facing service name.
func NormalizeServiceID(name string) ServiceID {
	return ServiceID(strings.ToLower(strings.TrimSpace(name)))
}

// String returns the normalized identifier.
func (s ServiceID) String() string {
	return string(s)
}

// Credential holds the stored secret for a single service. There is at most
// one Credential per ServiceID; writing replaces the previous value.
type Credential struct {
	ID        int64
	Service   ServiceID
	Secret    string
	UpdatedAt time.Time
}
