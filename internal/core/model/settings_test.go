package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	assert.NoError(t, DefaultDetectionSettings().Validate())
	assert.NoError(t, DefaultSolidifySettings().Validate())
}

func TestDetectionSettingsValidate(t *testing.T) {
	s := DefaultDetectionSettings()

	s.Sensitivity = 0.05
	assert.Error(t, s.Validate())
	s.Sensitivity = 1.5
	assert.Error(t, s.Validate())

	s = DefaultDetectionSettings()
	s.PointDensity = 5
	assert.Error(t, s.Validate())
	s.PointDensity = 200
	assert.Error(t, s.Validate())

	s = DefaultDetectionSettings()
	s.Smoothness = 0
	assert.Error(t, s.Validate())
}

func TestSolidifySettingsValidate(t *testing.T) {
	s := SolidifySettings{ExtrusionDepth: 0.4}
	assert.Error(t, s.Validate())

	s.ExtrusionDepth = 5.1
	assert.Error(t, s.Validate())

	s.ExtrusionDepth = 2.0
	assert.NoError(t, s.Validate())
}
