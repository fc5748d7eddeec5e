package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "focusgroup.log")

	log, err := New(Config{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info().Str("tool", "mytool").Msg("session started")
	log.Debug().Msg("debug detail")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"session started"`)
	assert.Contains(t, string(content), `"tool":"mytool"`)
	assert.Contains(t, string(content), "debug detail")
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focusgroup.log")

	log, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)

	log.Info().Msg("filtered out")
	log.Warn().Msg("kept")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "filtered out")
	assert.Contains(t, string(content), "kept")
}

func TestNewInvalidLevelFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focusgroup.log")

	log, err := New(Config{Level: "chatty", File: path})
	require.NoError(t, err)

	log.Info().Msg("info still logged")
	log.Debug().Msg("debug suppressed")
	require.NoError(t, log.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "info still logged")
	assert.NotContains(t, string(content), "debug suppressed")
}

func TestCloseWithoutFile(t *testing.T) {
	log, err := New(Config{Level: "info", Console: true})
	require.NoError(t, err)
	assert.NoError(t, log.Close())
}
