// internal/config/config.go
package config

import (
	"encoding/json"
	"os"

	"github.com/BUntulis/filesync/internal/errors"
)

type Config struct {
	Source     string `json:"source"`
	Backup     string `json:"backup"`
	Versioning string `json:"versioning"`

	DryRun          bool `json:"dry_run"`
	ModifiedWithin  int  `json:"modified_within"` // minutes; 0 disables the filter
	ContinueOnError bool `json:"continue_on_error"`

	Log struct {
		Type string `json:"type"` // none, console, file, both
		File string `json:"file"`
	} `json:"log"`

	Journal string `json:"journal"` // journal database directory; empty disables
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	var c Config
	c.Log.Type = "console"
	c.Log.File = "file_sync.log"
	return &c
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError(err, "opening config file %s", path)
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, errors.ConfigError("parsing config file %s: %v", path, err)
	}

	return config, nil
}

// Validate checks everything that can be checked before any sync I/O starts.
// The backup and versioning directories are created on demand by the engine,
// so only the source directory must already exist.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.ConfigError("source directory is required")
	}
	if c.Backup == "" {
		return errors.ConfigError("backup directory is required")
	}
	if c.Versioning == "" {
		return errors.ConfigError("versioning directory is required")
	}

	info, err := os.Stat(c.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigError("source path does not exist: %s", c.Source)
		}
		return errors.IOError(err, "checking source path %s", c.Source)
	}
	if !info.IsDir() {
		return errors.ConfigError("source path is not a directory: %s", c.Source)
	}

	if c.ModifiedWithin < 0 {
		return errors.ConfigError("modified-within must be positive, got %d", c.ModifiedWithin)
	}

	return nil
}
