package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/config"
	nerrors "github.com/genecyber/NOESIS-sub002/pkg/errors"
)

func TestNew_NoSinksIsNop(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "info"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	logger.Info("dropped")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty"})
	require.Error(t, err)
	assert.True(t, nerrors.IsCode(err, nerrors.ErrConfigInvalid))
}

func TestBuild_FileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "noesis.log")
	logger, err := build(config.LoggingConfig{Level: "debug", File: path}, nil)
	require.NoError(t, err)

	logger.Info("branch created", zap.String("branch", "alt"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(strings.Split(string(data), "\n")[0])
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "branch created", entry["message"])
	assert.Equal(t, "alt", entry["branch"])
	assert.Contains(t, entry, "timestamp")
}

func TestBuild_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := build(config.LoggingConfig{Level: "warn", Console: true}, &buf)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
