// Package permission decides whether rewind may read the usage history.
//
// Access is recorded as a marker file in the rewind data directory. The
// marker must contain the word "granted" and must not be writable by other
// users; anything else counts as not granted.
package permission

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerName is the file name of the usage-access marker.
const MarkerName = "usage-access"

const grantedToken = "granted"

// ErrNotGranted is returned by callers that require usage access.
var ErrNotGranted = errors.New("usage access not granted: run 'rewind grant'")

// Gate reports whether usage access is currently granted.
type Gate interface {
	Granted(ctx context.Context) (bool, error)
}

// FileGate is a Gate backed by a marker file.
type FileGate struct {
	path string
}

// NewFileGate returns a gate whose marker lives in dataDir.
func NewFileGate(dataDir string) *FileGate {
	return &FileGate{path: filepath.Join(dataDir, MarkerName)}
}

// Path returns the marker file path.
func (g *FileGate) Path() string {
	return g.path
}

// Granted checks the marker file.
func (g *FileGate) Granted(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(g.path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat usage access marker: %w", err)
	}
	if info.IsDir() || info.Mode().Perm()&0002 != 0 {
		return false, nil
	}

	data, err := os.ReadFile(g.path)
	if err != nil {
		return false, fmt.Errorf("failed to read usage access marker: %w", err)
	}
	fields := strings.Fields(string(data))
	return len(fields) > 0 && fields[0] == grantedToken, nil
}

// Grant writes the marker.
func (g *FileGate) Grant() error {
	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	content := fmt.Sprintf("%s %s\n", grantedToken, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(g.path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write usage access marker: %w", err)
	}
	return nil
}

// Revoke removes the marker. Revoking twice is not an error.
func (g *FileGate) Revoke() error {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove usage access marker: %w", err)
	}
	return nil
}
