package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func TestNormalizeServiceID(t *testing.T) {
	assert.Equal(t, model.ServiceID("openai"), model.NormalizeServiceID("  OpenAI "))
	assert.Equal(t, model.ServiceID("elevenlabs"), model.NormalizeServiceID("ElevenLabs"))
}

func TestChannelBounds(t *testing.T) {
	assert.True(t, model.CPUBounds.Contains(30))
	assert.True(t, model.CPUBounds.Contains(59))
	assert.False(t, model.CPUBounds.Contains(60))
	assert.Equal(t, 30, model.CPUBounds.Width())
	assert.Equal(t, 40, model.MemoryBounds.Width())
	assert.Equal(t, 50, model.NetworkBounds.Width())
}

func TestInitialTelemetryInBounds(t *testing.T) {
	assert.True(t, model.InitialTelemetry.InBounds())
	assert.False(t, model.TelemetrySample{CPU: 61, Memory: 30, Network: 20}.InBounds())
}

func TestParseThemeMode(t *testing.T) {
	assert.Equal(t, model.ThemeModeHacker, model.ParseThemeMode("hacker"))
	assert.Equal(t, model.ThemeModeNormal, model.ParseThemeMode(""))
	assert.Equal(t, model.ThemeModeNormal, model.ParseThemeMode("HACKER"))
}

func TestAcquisitionError(t *testing.T) {
	err := model.NewAcquisitionError(model.AcquisitionTimeout, "Timeout expired after %ds", 5)

	assert.True(t, errors.Is(err, model.ErrAcquisitionFailed))
	assert.Equal(t, "Timeout expired after 5s", err.Error())

	var acqErr *model.AcquisitionError
	assert.True(t, errors.As(error(err), &acqErr))
	assert.Equal(t, model.AcquisitionTimeout, acqErr.Code)
}

func TestLocationResult(t *testing.T) {
	assert.True(t, model.LocationResult{State: model.LocationStatePending}.IsLoading())
	assert.False(t, model.LocationResult{State: model.LocationStateFailed}.IsLoading())
	assert.True(t, model.LocationStateSuccess.IsTerminal())
	assert.False(t, model.LocationStatePending.IsTerminal())
}
