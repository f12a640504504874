// cmd/filesync/main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BUntulis/filesync/internal/archive"
	"github.com/BUntulis/filesync/internal/config"
	"github.com/BUntulis/filesync/internal/fingerprint"
	"github.com/BUntulis/filesync/internal/journal"
	"github.com/BUntulis/filesync/internal/logging"
	syncengine "github.com/BUntulis/filesync/internal/sync"
	"github.com/BUntulis/filesync/internal/watch"
)

// digestCacheSize bounds the number of memoized digests across watch passes.
const digestCacheSize = 1024

var (
	flagConfig          string
	flagSource          string
	flagBackup          string
	flagVersioning      string
	flagDryRun          bool
	flagModifiedWithin  int
	flagContinueOnError bool
	flagLogType         string
	flagLogFile         string
	flagJournal         string
)

var rootCmd = &cobra.Command{
	Use:   "filesync",
	Short: "Synchronize .txt files with backup and versioning",
	Long: `Filesync copies .txt files from a source directory into a backup
directory. When a backup already exists and its content differs, the old
backup is preserved in a versioning directory under a timestamped name
before being replaced.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Path to a JSON config file supplying defaults")
	pf.StringVar(&flagSource, "source", "", "Path to the source folder")
	pf.StringVar(&flagBackup, "backup", "", "Path to the backup folder")
	pf.StringVar(&flagVersioning, "versioning", "", "Path to the versioning folder")
	pf.BoolVar(&flagDryRun, "dry-run", false, "Preview actions without making changes")
	pf.IntVar(&flagModifiedWithin, "modified-within", 0, "Only sync files modified in the last N minutes")
	pf.BoolVar(&flagContinueOnError, "continue-on-error", false, "Finish the pass and report all failures instead of aborting on the first")
	pf.StringVar(&flagLogType, "log-type", "console", "Logging output: none, console, file, or both")
	pf.StringVar(&flagLogFile, "log-file", "file_sync.log", "Path to the log file (used if --log-type is file or both)")
	pf.StringVar(&flagJournal, "journal", "", "Directory for the sync-run journal database (disabled if empty)")

	var syncCmd = &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.engine.Sync(); err != nil {
				env.logger.Error("synchronization failed", zap.Error(err))
				return err
			}

			if env.cfg.DryRun {
				color.Yellow("Dry run complete, no changes were made")
			} else {
				color.Green("Synchronization complete")
			}
			return nil
		},
	}

	var watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Sync continuously, re-running on source changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			// Initial pass before waiting on events.
			if err := env.engine.Sync(); err != nil {
				env.logger.Error("synchronization failed", zap.Error(err))
				return err
			}

			watcher, err := watch.New(env.cfg.Source, ".txt", 500*time.Millisecond, env.logger.Logger)
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer watcher.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			color.Cyan("Watching %s (interrupt to stop)", env.cfg.Source)
			return watcher.Run(ctx, env.engine.Sync)
		},
	}

	var historyLimit int
	var historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recorded sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Journal == "" {
				return fmt.Errorf("history requires --journal")
			}

			j, err := journal.Open(cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.List(historyLimit)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded")
				return nil
			}

			for _, run := range runs {
				printRun(j, run)
			}
			return nil
		},
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to show")

	var olderThanDays int
	var archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Compress old version artifacts with zstd",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Versioning == "" {
				return fmt.Errorf("archive requires --versioning")
			}

			mode, err := logging.ParseMode(cfg.Log.Type)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(mode, cfg.Log.File)
			if err != nil {
				return err
			}
			defer logger.Sync()

			count, err := archive.Compact(archive.Options{
				Dir:       cfg.Versioning,
				OlderThan: time.Duration(olderThanDays) * 24 * time.Hour,
				Logger:    logger.Logger,
			})
			if err != nil {
				logger.Error("archiving failed", zap.Error(err))
				return err
			}

			color.Green("Archived %d version artifact(s)", count)
			return nil
		},
	}
	archiveCmd.Flags().IntVar(&olderThanDays, "older-than", 30, "Archive artifacts older than this many days")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(archiveCmd)
}

// environment bundles everything a sync-running command needs.
type environment struct {
	cfg     *config.Config
	logger  *logging.Logger
	engine  *syncengine.Engine
	journal *journal.Journal
}

func (e *environment) close() {
	if e.journal != nil {
		e.journal.Close()
	}
	e.logger.Sync()
}

// setup merges config sources, validates them, and assembles the engine.
func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode, err := logging.ParseMode(cfg.Log.Type)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(mode, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	cache, err := fingerprint.NewCache(digestCacheSize)
	if err != nil {
		return nil, err
	}

	opts := syncengine.Options{
		Source:          cfg.Source,
		Backup:          cfg.Backup,
		Versioning:      cfg.Versioning,
		DryRun:          cfg.DryRun,
		ModifiedWithin:  cfg.ModifiedWithin,
		ContinueOnError: cfg.ContinueOnError,
		Logger:          logger.Logger,
		Cache:           cache,
	}

	env := &environment{cfg: cfg, logger: logger}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return nil, err
		}
		env.journal = j
		opts.Journal = j
	}

	env.engine = syncengine.New(opts)
	return env, nil
}

// buildConfig loads the optional config file, then lets explicitly-set flags
// override it.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("source") {
		cfg.Source = flagSource
	}
	if fl.Changed("backup") {
		cfg.Backup = flagBackup
	}
	if fl.Changed("versioning") {
		cfg.Versioning = flagVersioning
	}
	if fl.Changed("dry-run") {
		cfg.DryRun = flagDryRun
	}
	if fl.Changed("modified-within") {
		cfg.ModifiedWithin = flagModifiedWithin
	}
	if fl.Changed("continue-on-error") {
		cfg.ContinueOnError = flagContinueOnError
	}
	if fl.Changed("log-type") {
		cfg.Log.Type = flagLogType
	}
	if fl.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	if fl.Changed("journal") {
		cfg.Journal = flagJournal
	}

	return cfg, nil
}

func printRun(j *journal.Journal, run journal.Run) {
	status := "ok"
	if run.Error != "" {
		status = "failed"
	}
	marker := ""
	if run.DryRun {
		marker = "  (dry run)"
	}

	fmt.Printf("%s  %s  copied=%d versioned=%d skipped=%d  %s%s\n",
		run.ID[:8],
		run.StartedAt.Format(time.RFC3339),
		run.Copied,
		run.Versioned,
		run.Skipped,
		status,
		marker,
	)

	entries, err := j.Entries(run.ID)
	if err != nil {
		fmt.Printf("  (entries unavailable: %v)\n", err)
		return
	}
	for _, entry := range entries {
		if entry.VersionedName != "" {
			fmt.Printf("  %-8s %s → %s\n", entry.Action, entry.Name, entry.VersionedName)
		} else {
			fmt.Printf("  %-8s %s\n", entry.Action, entry.Name)
		}
	}
	if run.Error != "" {
		color.Red("  error: %s", run.Error)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
