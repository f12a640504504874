package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfig(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		cfg, err := buildConfig(rootCmd)
		require.NoError(t, err)
		assert.Equal(t, "console", cfg.Log.Type)
		assert.Equal(t, "file_sync.log", cfg.Log.File)
		assert.Empty(t, cfg.Source)
		assert.Zero(t, cfg.ModifiedWithin)
	})

	t.Run("explicit flags override config file values", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(cfgPath, []byte(`{
			"source": "/file/source",
			"backup": "/file/backup",
			"versioning": "/file/versions",
			"dry_run": true,
			"modified_within": 60,
			"log": {"type": "both"}
		}`), 0644))

		require.NoError(t, rootCmd.ParseFlags([]string{
			"--config", cfgPath,
			"--source", "/flag/source",
			"--modified-within", "5",
		}))

		cfg, err := buildConfig(rootCmd)
		require.NoError(t, err)

		// Flags that were set win.
		assert.Equal(t, "/flag/source", cfg.Source)
		assert.Equal(t, 5, cfg.ModifiedWithin)

		// Fields without an explicit flag keep the file's values.
		assert.Equal(t, "/file/backup", cfg.Backup)
		assert.Equal(t, "/file/versions", cfg.Versioning)
		assert.True(t, cfg.DryRun)
		assert.Equal(t, "both", cfg.Log.Type)

		// Fields absent from both stay at defaults.
		assert.Equal(t, "file_sync.log", cfg.Log.File)
	})

	t.Run("missing config file fails", func(t *testing.T) {
		require.NoError(t, rootCmd.ParseFlags([]string{
			"--config", filepath.Join(t.TempDir(), "nope.json"),
		}))

		_, err := buildConfig(rootCmd)
		require.Error(t, err)
	})
}
