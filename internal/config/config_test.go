package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BUntulis/filesync/internal/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "console", c.Log.Type)
	assert.Equal(t, "file_sync.log", c.Log.File)
	assert.Zero(t, c.ModifiedWithin)
	assert.False(t, c.DryRun)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("reads values and keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"source": "/data/in",
			"backup": "/data/backup",
			"versioning": "/data/versions",
			"modified_within": 60,
			"log": {"type": "both"}
		}`), 0644))

		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/in", c.Source)
		assert.Equal(t, 60, c.ModifiedWithin)
		assert.Equal(t, "both", c.Log.Type)
		// Unset fields fall back to defaults.
		assert.Equal(t, "file_sync.log", c.Log.File)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindIO))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindConfig))
	})
}

func TestValidate(t *testing.T) {
	source := t.TempDir()

	valid := func() *Config {
		c := Default()
		c.Source = source
		c.Backup = filepath.Join(source, "backup")
		c.Versioning = filepath.Join(source, "versions")
		return c
	}

	t.Run("accepts a complete config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("requires all three directories", func(t *testing.T) {
		for _, mutate := range []func(*Config){
			func(c *Config) { c.Source = "" },
			func(c *Config) { c.Backup = "" },
			func(c *Config) { c.Versioning = "" },
		} {
			c := valid()
			mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindConfig))
		}
	})

	t.Run("source must exist", func(t *testing.T) {
		c := valid()
		c.Source = filepath.Join(source, "missing")
		err := c.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindConfig))
	})

	t.Run("source must be a directory", func(t *testing.T) {
		file := filepath.Join(source, "plain.txt")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		c := valid()
		c.Source = file
		err := c.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindConfig))
	})

	t.Run("rejects negative recency window", func(t *testing.T) {
		c := valid()
		c.ModifiedWithin = -1
		err := c.Validate()
		require.Error(t, err)
		assert.True(t, errors.IsKind(err, errors.KindConfig))
	})
}
