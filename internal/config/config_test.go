package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerbosity(t *testing.T) {
	assert.Equal(t, 1, Config{}.Verbosity())
	assert.Equal(t, 3, Config{Verbose: 2}.Verbosity())
	assert.Equal(t, 0, Config{Verbose: 2, Quiet: true}.Verbosity())
}

func TestPromptMissingEnvVars(t *testing.T) {
	assert.True(t, Config{}.PromptMissingEnvVars())
	assert.False(t, Config{NoPrompt: true}.PromptMissingEnvVars())
}

func TestTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), Config{}.Timeout())
	assert.Equal(t, 1500*time.Millisecond, Config{TimeoutMs: 1500}.Timeout())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(Config{Quiet: true})
	assert.NotNil(t, logger)
	logger = NewLogger(Config{Verbose: 3})
	assert.NotNil(t, logger)
}
