// Command rewind-hook records one usage event for rewind.
//
//	rewind-hook <kind> <package>
//
// Window managers and launchers call it on every focus change, e.g.
// "rewind-hook resumed firefox". The event is appended to usage.log in the
// rewind data directory ($REWIND_DATA_DIR, default ~/.rewind) and picked up
// later by 'rewind watch' or 'rewind today'.
//
// The hook must NOT import any internal rewind packages. It runs on every
// focus change and has to start fast.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: rewind-hook <kind> <package>")
		os.Exit(2)
	}

	line, err := formatLine(time.Now(), os.Args[1], os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "rewind-hook: %v\n", err)
		os.Exit(2)
	}

	// Best-effort: a failed write must never break the caller's hook chain.
	appendLine(line)
}

// formatLine renders "<unix_ms>,<kind>,<package>\n".
func formatLine(at time.Time, kind, pkg string) (string, error) {
	switch {
	case kind == "" || strings.ContainsAny(kind, ",\r\n"):
		return "", fmt.Errorf("invalid kind %q", kind)
	case pkg == "" || strings.ContainsAny(pkg, "\r\n"):
		return "", fmt.Errorf("invalid package %q", pkg)
	}
	return fmt.Sprintf("%d,%s,%s\n", at.UnixMilli(), kind, pkg), nil
}

// dataDir returns $REWIND_DATA_DIR, or ~/.rewind.
func dataDir() (string, error) {
	if dir := os.Getenv("REWIND_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rewind"), nil
}

// appendLine writes line to usage.log in one write. Errors are ignored.
func appendLine(line string) {
	dir, err := dataDir()
	if err != nil {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}

	// O_APPEND keeps concurrent single writes from interleaving.
	f, err := os.OpenFile(filepath.Join(dir, "usage.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	f.WriteString(line) //nolint:errcheck
}
