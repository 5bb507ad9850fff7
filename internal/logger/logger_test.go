package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	saved := log.Logger
	level := zerolog.GlobalLevel()
	timeFormat := zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = saved
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = timeFormat
	})
}

func TestSetupJSONFile(t *testing.T) {
	restoreGlobals(t)
	path := filepath.Join(t.TempDir(), "app.log")

	require.NoError(t, Setup(LogConfig{Level: "INFO", Format: "json", TimeFormat: time.RFC3339, Output: path}))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	l := WithComponent("form")
	l.Debug().Msg("hidden")
	l.Info().Str("invoice_id", "42").Msg("Invoice saved")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "form", entry["component"])
	assert.Equal(t, "42", entry["invoice_id"])
	assert.Equal(t, "Invoice saved", entry["message"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	restoreGlobals(t)
	assert.Error(t, Setup(LogConfig{Level: "loud", Output: "discard"}))
}

func TestRedirect(t *testing.T) {
	restoreGlobals(t)
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: "discard"}))

	before := WithComponent("before")

	var buf bytes.Buffer
	Redirect(&buf)
	before.Info().Msg("old writer")
	assert.Empty(t, buf.String())

	after := WithComponent("after")
	after.Info().Msg("new writer")
	assert.Contains(t, buf.String(), `"component":"after"`)
	assert.Contains(t, buf.String(), `"message":"new writer"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "stderr", cfg.Output)
}
