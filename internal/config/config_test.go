package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.APIBaseURL)
	assert.Equal(t, 10, cfg.RequestTimeoutSec)
	assert.Equal(t, "mohali", cfg.DefaultLocation)
	assert.Positive(t, cfg.GeocodeTimeoutSec)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := Config{
		APIBaseURL:        "https://api.example.com",
		RequestTimeoutSec: 10,
		GeocodeTimeoutSec: 5,
	}
	require.NoError(t, valid.Validate())

	t.Run("missing base url", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.APIBaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed base url", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.APIBaseURL = "not a url"
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero timeout", func(t *testing.T) {
		t.Parallel()
		cfg := valid
		cfg.RequestTimeoutSec = 0
		assert.Error(t, cfg.Validate())
	})
}
