package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when user-supplied input is rejected before
	// any persistence call is made.
	ErrValidation = errors.New("validation failed")

	// ErrCapabilityUnavailable is returned when the host lacks a device capability.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrAcquisitionFailed is the base error for a capability request that was
	// attempted and failed.
	ErrAcquisitionFailed = errors.New("acquisition failed")

	// ErrContextUnavailable signals that no ambient context provider is reachable.
	ErrContextUnavailable = errors.New("context unavailable")

	// ErrPanelLimit is returned when no more panel sessions may be mounted.
	ErrPanelLimit = errors.New("panel limit reached")
)

// AcquisitionCode classifies why a location request failed.
type AcquisitionCode int

const (
	AcquisitionPermissionDenied AcquisitionCode = iota + 1
	AcquisitionPositionUnavailable
	AcquisitionTimeout
)

// AcquisitionError describes a failed location request. It unwraps to
// ErrAcquisitionFailed.
type AcquisitionError struct {
	Code    AcquisitionCode
	Message string
}

// Error implements the error interface.
func (e *AcquisitionError) Error() string {
	return e.Message
}

// Unwrap allows errors.Is(err, ErrAcquisitionFailed).
func (e *AcquisitionError) Unwrap() error {
	return ErrAcquisitionFailed
}

// NewAcquisitionError builds an AcquisitionError with a formatted message.
func NewAcquisitionError(code AcquisitionCode, format string, args ...any) *AcquisitionError {
	return &AcquisitionError{Code: code, Message: fmt.Sprintf(format, args...)}
}
