// Package resources bundles the proficiency word lists shipped with
// dragonmasher. The lists are excerpts of the published HSK, TOCFL and
// XDCYZ lists; point a source at a full copy through its url setting.
package resources

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed data/*.csv
var files embed.FS

// FS returns the bundled files rooted at the data directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "data")
	if err != nil {
		panic(fmt.Sprintf("bundled data directory missing: %v", err))
	}
	return sub
}

// ReadFile returns the raw contents of a bundled file such as "hsk.csv".
func ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(FS(), name)
	if err != nil {
		return nil, fmt.Errorf("read bundled resource %s: %w", name, err)
	}
	return data, nil
}

// Names lists the bundled files.
func Names() ([]string, error) {
	entries, err := fs.ReadDir(FS(), ".")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
