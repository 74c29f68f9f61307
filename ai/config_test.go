package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "embeddinggemma", cfg.Model)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.internal:9100/v1"),
		WithModel("text-embedding-3-small"),
	)
	assert.Equal(t, "http://embed.internal:9100/v1", cfg.Host)
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
}

func TestNormalizeAddsV1Suffix(t *testing.T) {
	for input, want := range map[string]string{
		"http://localhost:11434":    "http://localhost:11434/v1",
		"http://localhost:11434/":   "http://localhost:11434/v1",
		"http://localhost:11434/v1": "http://localhost:11434/v1",
	} {
		cfg := NewConfig(WithHost(input))
		cfg.Normalize()
		assert.Equal(t, want, cfg.Host)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cfg := &Config{Model: "m"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Host: "http://localhost:11434/v1"}
	assert.Error(t, cfg.Validate())
}
