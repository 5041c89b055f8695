// Package config resolves rewind's configuration: the viper-backed config
// file, the data directory layout and the package alias file.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the rewind config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/rewind.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rewind"), nil
}

// Aliases maps the name a hook reports (a launcher name or window class) to
// the desktop-entry id it should be attributed to.
type Aliases map[string]string

// Canonical returns the package name is attributed to.
func (a Aliases) Canonical(name string) string {
	if pkg, ok := a[name]; ok {
		return pkg
	}
	return name
}

// LoadAliases reads {dir}/aliases. Each line is "name = package"; blank
// lines and # comments are ignored, malformed lines are skipped. A missing
// file yields an empty map.
func LoadAliases(dir string) (Aliases, error) {
	aliases := make(Aliases)

	f, err := os.Open(filepath.Join(dir, "aliases"))
	if err != nil {
		if os.IsNotExist(err) {
			return aliases, nil
		}
		return aliases, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, pkg, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name, pkg = strings.TrimSpace(name), strings.TrimSpace(pkg)
		if name == "" || pkg == "" {
			continue
		}
		aliases[name] = pkg
	}

	return aliases, sc.Err()
}
