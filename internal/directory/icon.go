package directory

import (
	"os"
	"path/filepath"
)

// iconSizes lists hicolor sizes from largest to smallest.
var iconSizes = []string{"256x256", "128x128", "96x96", "64x64", "48x48", "32x32", "24x24", "16x16"}

// resolveIcon turns an Icon= value into a file path. Absolute paths are used
// as-is when they exist; names are looked up in the hicolor theme and then
// in pixmaps under dataDir. Returns "" if nothing is found.
func resolveIcon(name, dataDir string) string {
	if name == "" {
		return ""
	}

	if filepath.IsAbs(name) {
		if fileExists(name) {
			return name
		}
		return ""
	}

	for _, size := range iconSizes {
		p := filepath.Join(dataDir, "icons", "hicolor", size, "apps", name+".png")
		if fileExists(p) {
			return p
		}
	}

	p := filepath.Join(dataDir, "pixmaps", name+".png")
	if fileExists(p) {
		return p
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
