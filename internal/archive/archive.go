// Package archive compacts aged version artifacts in place with zstd.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const compressedExt = ".zst"

// Options configures a compaction run over one versioning directory.
type Options struct {
	// Dir is the versioning directory to compact.
	Dir string
	// OlderThan selects artifacts whose mtime is older than this.
	OlderThan time.Duration
	Logger    *zap.Logger
}

// Compact compresses every qualifying artifact to a .zst sibling and removes
// the original after a synced write. Returns the number of files archived.
func Compact(opts Options) (int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return 0, fmt.Errorf("reading versioning directory %s: %w", opts.Dir, err)
	}

	cutoff := time.Now().Add(-opts.OlderThan)
	archived := 0

	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), compressedExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return archived, fmt.Errorf("checking %s: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(opts.Dir, entry.Name())
		if err := compressFile(path); err != nil {
			return archived, fmt.Errorf("archiving %s: %w", entry.Name(), err)
		}

		logger.Info("archived version artifact", zap.String("name", entry.Name()))
		archived++
	}

	return archived, nil
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(path+compressedExt, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	enc, err := zstd.NewWriter(out,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		out.Close()
		return fmt.Errorf("creating encoder: %w", err)
	}

	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return fmt.Errorf("compressing: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}

	// Only drop the original once the archive is safely on disk.
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing original: %w", err)
	}

	return nil
}
