package directory

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/ini.v1"

	"github.com/blackwell-systems/rewind/internal/timeline"
)

const desktopSection = "Desktop Entry"

// Scanner reads desktop entries from a list of applications directories.
// Earlier directories take precedence when the same id appears twice.
type Scanner struct {
	paths  []string
	logger zerolog.Logger

	// Progress, if set, is called after each desktop entry is processed.
	Progress func(done, total int)
}

// NewScanner creates a Scanner over the given applications directories.
func NewScanner(paths []string, logger zerolog.Logger) *Scanner {
	return &Scanner{
		paths:  paths,
		logger: logger.With().Str("component", "directory").Logger(),
	}
}

// DefaultPaths returns the XDG applications directories, user directory first.
func DefaultPaths() []string {
	var paths []string

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	if dataHome != "" {
		paths = append(paths, filepath.Join(dataHome, "applications"))
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range filepath.SplitList(dataDirs) {
		if d != "" {
			paths = append(paths, filepath.Join(d, "applications"))
		}
	}

	return paths
}

type entryFile struct {
	id      string
	path    string
	dataDir string
}

// Scan performs one directory-build pass. All returned apps share the
// returned scan id and are sorted by package.
func (s *Scanner) Scan(ctx context.Context) ([]*timeline.InstalledApp, string, error) {
	files, err := s.collect()
	if err != nil {
		return nil, "", err
	}

	scanID := uuid.NewString()
	apps := make([]*timeline.InstalledApp, 0, len(files))

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		app, ok := s.parseEntry(f)
		if ok {
			if app.Flags != timeline.FlagSystem {
				app.ScanID = scanID
				apps = append(apps, app)
			} else {
				s.logger.Debug().Str("package", app.Package).Msg("skipping system app")
			}
		}

		if s.Progress != nil {
			s.Progress(i+1, len(files))
		}
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Package < apps[j].Package })

	s.logger.Info().
		Str("scan_id", scanID).
		Int("entries", len(files)).
		Int("apps", len(apps)).
		Msg("directory scan complete")

	return apps, scanID, nil
}

// Build scans and returns the apps keyed by package.
func (s *Scanner) Build(ctx context.Context) (timeline.Directory, error) {
	apps, _, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(timeline.Directory, len(apps))
	for _, app := range apps {
		dir[app.Package] = app
	}
	return dir, nil
}

// collect lists desktop files, keeping only the first occurrence of each id.
func (s *Scanner) collect() ([]entryFile, error) {
	seen := make(map[string]bool)
	var files []entryFile

	for _, root := range s.paths {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("cannot read applications directory entry")
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			id := strings.TrimSuffix(strings.ReplaceAll(rel, string(filepath.Separator), "-"), ".desktop")
			if seen[id] {
				return nil
			}
			seen[id] = true
			files = append(files, entryFile{id: id, path: path, dataDir: filepath.Dir(root)})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	return files, nil
}

// parseEntry reads one desktop file. Unreadable or non-application entries
// are skipped.
func (s *Scanner) parseEntry(f entryFile) (*timeline.InstalledApp, bool) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
	}, f.path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", f.path).Msg("skipping unreadable desktop entry")
		return nil, false
	}

	sec, err := cfg.GetSection(desktopSection)
	if err != nil {
		s.logger.Debug().Str("path", f.path).Msg("no [Desktop Entry] section")
		return nil, false
	}
	if sec.Key("Type").String() != "Application" {
		return nil, false
	}

	app := &timeline.InstalledApp{
		Package: f.id,
		Label:   strings.TrimSpace(sec.Key("Name").String()),
	}
	if app.Label == "" {
		app.Label = f.id
	}
	if sec.Key("NoDisplay").MustBool(false) || sec.Key("Hidden").MustBool(false) {
		app.Flags |= timeline.FlagSystem
	}
	if sec.Key("Terminal").MustBool(false) {
		app.Flags |= timeline.FlagTerminal
	}

	app.Icon = resolveIcon(strings.TrimSpace(sec.Key("Icon").String()), f.dataDir)
	app.Color = DominantColor(app.Icon, timeline.DefaultColor)

	return app, true
}
