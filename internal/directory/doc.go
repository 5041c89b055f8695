// Package directory builds the installed-app directory from XDG desktop
// entries.
//
// Each *.desktop file of Type=Application under the configured
// applications directories becomes one InstalledApp. Its identifier is the
// desktop-file id (the path relative to the applications directory with
// separators replaced by "-", minus the .desktop suffix), its color is the
// dominant color of its PNG icon.
//
// Entries marked NoDisplay or Hidden carry FlagSystem and entries marked
// Terminal carry FlagTerminal. Apps whose flags are exactly FlagSystem are
// left out of the directory.
//
// Example usage:
//
//	sc := directory.NewScanner(directory.DefaultPaths(), logger)
//	dir, err := sc.Build(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
package directory
