// Package sync implements the synchronization decision engine: per eligible
// source file, copy it fresh, version the existing backup and replace it, or
// skip it, based on SHA-256 content comparison.
package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/BUntulis/filesync/internal/errors"
	"github.com/BUntulis/filesync/internal/fingerprint"
	"github.com/BUntulis/filesync/internal/journal"
)

// suffix is the fixed extension filter; only top-level regular files with
// this suffix are eligible.
const suffix = ".txt"

// timestampLayout gives second-resolution version stamps, e.g. 20231001T123456.
const timestampLayout = "20060102T150405"

// Options parameterizes an Engine. Source, Backup, and Versioning are
// required; everything else defaults to off.
type Options struct {
	Source     string
	Backup     string
	Versioning string

	// DryRun produces the full log narrative without mutating anything.
	DryRun bool

	// ModifiedWithin, in minutes, restricts a pass to files modified within
	// that window. Zero disables the filter.
	ModifiedWithin int

	// ContinueOnError finishes the pass and returns every per-file failure
	// aggregated, instead of aborting on the first one.
	ContinueOnError bool

	Logger  *zap.Logger
	Cache   *fingerprint.Cache
	Journal *journal.Journal
}

// Engine performs directory-scoped, per-file synchronization. Construction
// does no I/O; all validation happens when a pass runs.
type Engine struct {
	opts Options
	log  *zap.Logger

	// now is swappable for deterministic version names in tests.
	now func() time.Time
}

func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		opts: opts,
		log:  log,
		now:  time.Now,
	}
}

// ListEligible returns the names of regular files directly inside the source
// directory that carry the fixed extension. Order is directory-listing order
// and carries no meaning.
func (e *Engine) ListEligible() ([]string, error) {
	info, err := os.Stat(e.opts.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("source path does not exist: %s", e.opts.Source)
		}
		return nil, errors.IOError(err, "checking source path %s", e.opts.Source)
	}
	if !info.IsDir() {
		return nil, errors.ConfigError("source path is not a directory: %s", e.opts.Source)
	}

	dirEntries, err := os.ReadDir(e.opts.Source)
	if err != nil {
		return nil, errors.IOError(err, "reading source directory %s", e.opts.Source)
	}

	var names []string
	for _, entry := range dirEntries {
		if !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		// Stat follows symlinks, so links to regular files count.
		fi, err := os.Stat(filepath.Join(e.opts.Source, entry.Name()))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

// ShouldSync is the sole content-comparison authority: true when no backup
// exists, otherwise true iff the two files' fingerprints differ. When a
// digest cache is configured, a file rewritten with identical size and mtime
// since its last digest is served the memoized value; run without a cache if
// that window matters.
func (e *Engine) ShouldSync(sourcePath, backupPath string) (bool, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.NotFound(sourcePath)
		}
		return false, errors.IOError(err, "checking source file %s", sourcePath)
	}
	if !info.Mode().IsRegular() {
		return false, errors.ValidationError("source path is not a regular file: %s", sourcePath)
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return true, nil
	}

	sourceDigest, err := e.digest(sourcePath)
	if err != nil {
		return false, fmt.Errorf("comparing %s with %s: %w", sourcePath, backupPath, err)
	}
	backupDigest, err := e.digest(backupPath)
	if err != nil {
		return false, fmt.Errorf("comparing %s with %s: %w", sourcePath, backupPath, err)
	}

	return sourceDigest != backupDigest, nil
}

// Sync runs one pass: ensure target directories, then copy, version, or skip
// each eligible file. With ContinueOnError unset, the first failure aborts
// the pass; already-applied mutations are not rolled back.
func (e *Engine) Sync() error {
	if err := os.MkdirAll(e.opts.Backup, 0755); err != nil {
		return errors.IOError(err, "creating backup directory %s", e.opts.Backup)
	}
	if err := os.MkdirAll(e.opts.Versioning, 0755); err != nil {
		return errors.IOError(err, "creating versioning directory %s", e.opts.Versioning)
	}

	names, err := e.ListEligible()
	if err != nil {
		return err
	}

	var rec *journal.Recorder
	if e.opts.Journal != nil {
		rec = e.opts.Journal.Begin(e.opts.DryRun)
	}

	var errs error
	for _, name := range names {
		if err := e.syncFile(name, rec); err != nil {
			if e.opts.ContinueOnError {
				errs = multierr.Append(errs, err)
				continue
			}
			e.finishRun(rec, err)
			return err
		}
	}

	e.finishRun(rec, errs)
	return errs
}

func (e *Engine) finishRun(rec *journal.Recorder, runErr error) {
	if rec == nil {
		return
	}
	if err := rec.Finish(runErr); err != nil {
		e.log.Warn("writing journal run header", zap.Error(err))
	}
}

// syncFile applies the per-file state machine: recency filter, then
// copy / version-then-replace / skip.
func (e *Engine) syncFile(name string, rec *journal.Recorder) error {
	sourcePath := filepath.Join(e.opts.Source, name)
	backupPath := filepath.Join(e.opts.Backup, name)

	if e.opts.ModifiedWithin > 0 {
		info, err := os.Stat(sourcePath)
		if err != nil {
			return errors.IOError(err, "reading modification time of %s", sourcePath)
		}
		if e.now().Sub(info.ModTime()) > time.Duration(e.opts.ModifiedWithin)*time.Minute {
			return nil
		}
	}

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		e.log.Info(fmt.Sprintf("Copying new file: %s", name))
		if !e.opts.DryRun {
			if err := copyFile(sourcePath, backupPath); err != nil {
				return errors.IOError(err, "copying %s to %s", sourcePath, backupPath)
			}
		}
		e.record(rec, name, journal.ActionCopy, "")
		return nil
	}

	should, err := e.ShouldSync(sourcePath, backupPath)
	if err != nil {
		return err
	}

	if should {
		versionedName := versionName(name, e.now())
		versionedPath := filepath.Join(e.opts.Versioning, versionedName)
		e.log.Info(fmt.Sprintf("Versioning: %s → %s", name, versionedName))
		if !e.opts.DryRun {
			if err := moveFile(backupPath, versionedPath); err != nil {
				return errors.IOError(err, "versioning %s", name)
			}
			if err := copyFile(sourcePath, backupPath); err != nil {
				return errors.IOError(err, "versioning %s", name)
			}
		}
		e.record(rec, name, journal.ActionVersion, versionedName)
		return nil
	}

	e.log.Info(fmt.Sprintf("Skipped (unchanged): %s", name))
	e.record(rec, name, journal.ActionSkip, "")
	return nil
}

// record writes a journal entry; journal trouble is never allowed to fail a
// pass, only to warn.
func (e *Engine) record(rec *journal.Recorder, name string, action journal.Action, versionedName string) {
	if rec == nil {
		return
	}
	if err := rec.Record(name, action, versionedName); err != nil {
		e.log.Warn("writing journal entry", zap.String("name", name), zap.Error(err))
	}
}

func (e *Engine) digest(path string) (string, error) {
	if e.opts.Cache != nil {
		return e.opts.Cache.File(path)
	}
	return fingerprint.File(path)
}

// versionName inserts a second-resolution timestamp between the filename's
// stem and extension: a.txt becomes a_20231001T123456.txt. Two supersessions
// of one file within the same second still collide; the journal records both
// so the overwrite is diagnosable.
func versionName(name string, t time.Time) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", stem, t.Format(timestampLayout), ext)
}
