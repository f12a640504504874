package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUntulis/filesync/internal/errors"
)

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"none", "console", "file", "both"} {
		mode, err := ParseMode(valid)
		require.NoError(t, err)
		assert.Equal(t, Mode(valid), mode)
	}

	_, err := ParseMode("syslog")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestNewLoggerNone(t *testing.T) {
	logger, err := NewLogger(ModeNone, "")
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Safe to use without any sink configured.
	logger.Info("dropped")
}

func TestNewLoggerFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "file_sync.log")

	logger, err := NewLogger(ModeFile, logFile)
	require.NoError(t, err)

	logger.Info("Copying new file: a.txt")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Copying new file: a.txt")
}

func TestNewLoggerFileBadPath(t *testing.T) {
	_, err := NewLogger(ModeFile, filepath.Join(t.TempDir(), "missing-dir", "x.log"))
	require.Error(t, err)
}
