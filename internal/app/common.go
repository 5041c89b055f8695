package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/rewind/internal/config"
	"github.com/blackwell-systems/rewind/internal/directory"
	"github.com/blackwell-systems/rewind/internal/loader"
	"github.com/blackwell-systems/rewind/internal/permission"
	"github.com/blackwell-systems/rewind/internal/store"
	"github.com/blackwell-systems/rewind/internal/timeline"
	"github.com/blackwell-systems/rewind/internal/watcher"
)

// isInteractive reports whether prompts can be answered.
var isInteractive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func stderrIsTTY() bool {
	return isatty.IsTerminal(os.Stderr.Fd())
}

// env is the resolved configuration of one invocation.
type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// loadEnv reads the config, applies global flag overrides, creates the data
// directory and sets up logging.
func loadEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		if _, err := config.ParseLevel(logLevel); err != nil {
			return nil, fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.Logging.Level = logLevel
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: config.SetupLogger(cfg.Logging, os.Stderr),
	}, nil
}

// dbFile returns the --db flag value or the configured database path.
func (e *env) dbFile() string {
	if dbPath != "" {
		return dbPath
	}
	return e.cfg.DBPath()
}

// openStore opens the database and makes sure the schema exists.
func (e *env) openStore() (*store.Store, error) {
	st, err := store.New(e.dbFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}
	return st, nil
}

func (e *env) scanner() *directory.Scanner {
	paths := e.cfg.Directory.Paths
	if len(paths) == 0 {
		paths = directory.DefaultPaths()
	}
	return directory.NewScanner(paths, e.logger)
}

func (e *env) gate() *permission.FileGate {
	return permission.NewFileGate(e.cfg.DataDir)
}

func (e *env) usagePaths() watcher.Paths {
	return watcher.Paths{Log: e.cfg.UsageLogPath(), Offset: e.cfg.OffsetPath()}
}

// aliases loads the alias file. A broken file is logged and ignored.
func (e *env) aliases() config.Aliases {
	dir, err := config.Dir()
	if err != nil {
		e.logger.Warn().Err(err).Msg("cannot resolve config directory, aliases disabled")
		return nil
	}
	aliases, err := config.LoadAliases(dir)
	if err != nil {
		e.logger.Warn().Err(err).Msg("cannot read aliases file")
	}
	return aliases
}

// ingest drains the usage log so reads see every recorded event.
func (e *env) ingest(st *store.Store) {
	res, err := watcher.DrainUsageLog(st, e.usagePaths(), e.aliases(), e.logger)
	if err != nil {
		e.logger.Warn().Err(err).Msg("usage log ingest failed")
		return
	}
	if res.Ingested > 0 {
		e.logger.Debug().Int("ingested", res.Ingested).Msg("usage log ingested")
	}
}

// storedDirectory serves the persisted directory snapshot and scans only
// when none exists yet or rescan is set.
func storedDirectory(st *store.Store, sc *directory.Scanner, rescan bool) loader.DirectoryFunc {
	return func(ctx context.Context) (timeline.Directory, error) {
		if !rescan {
			last, err := st.GetLastScan()
			if err != nil {
				return nil, err
			}
			if last != nil {
				return st.LoadDirectory(ctx)
			}
		}
		apps, err := scanAndSave(ctx, st, sc)
		if err != nil {
			return nil, err
		}
		dir := make(timeline.Directory, len(apps))
		for _, app := range apps {
			dir[app.Package] = app
		}
		return dir, nil
	}
}

func scanAndSave(ctx context.Context, st *store.Store, sc *directory.Scanner) ([]*timeline.InstalledApp, error) {
	apps, scanID, err := sc.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan applications: %w", err)
	}
	if err := st.SaveDirectory(scanID, apps); err != nil {
		return nil, fmt.Errorf("failed to save applications: %w", err)
	}
	return apps, nil
}

// storeEvents adapts the store's query to loader.EventSource.
func storeEvents(st *store.Store) loader.EventSourceFunc {
	return func(ctx context.Context, start, end time.Time) (loader.EventIterator, error) {
		it, err := st.QueryEvents(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return it, nil
	}
}

// commandContext returns the command's context, or Background when the
// command was invoked without Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
