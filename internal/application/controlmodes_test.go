package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/brainpanel/internal/application"
	"github.com/ericfisherdev/brainpanel/internal/domain/model"
)

func TestControlOptions_ListsDirectModesOnly(t *testing.T) {
	opts := application.ControlOptions(model.ControlModeVoice, false)

	require.Len(t, opts, 3)
	assert.Equal(t, model.ControlModeNormal, opts[0].ID)
	assert.Equal(t, "Voice Mode", opts[1].Label)
	assert.False(t, opts[0].Active)
	assert.True(t, opts[1].Active)
	assert.False(t, opts[2].Active)
}

func TestControlOptions_HackerModeDeactivatesAll(t *testing.T) {
	for _, opt := range application.ControlOptions(model.ControlModeNormal, true) {
		assert.False(t, opt.Active, opt.Label)
	}
}

func TestControlOptions_VoiceOnlyModeNotListed(t *testing.T) {
	for _, opt := range application.ControlOptions(model.ControlModeSatellite, false) {
		assert.NotEqual(t, model.ControlModeSatellite, opt.ID)
		assert.False(t, opt.Active)
	}
}
