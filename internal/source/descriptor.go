package source

import (
	"fmt"
	"path/filepath"
	"slices"

	"dragonmasher/internal/format"
)

const DefaultEncoding = "utf-8"

// Descriptor is the static description of one dataset type.
type Descriptor struct {
	Name        string // short name, also the attribute prefix and cache key
	Description string
	Files       []string // bundled resource names; empty for remote sources
	URL         string   // download URL for remote sources
	Archive     bool     // the download is an archive to extract
	Whitelist   []string // file basenames to parse; empty parses everything
	Encoding    string
	Format      format.Format
}

// Remote reports whether the source is downloaded rather than bundled.
func (d Descriptor) Remote() bool {
	return d.URL != ""
}

// Kind names the acquisition strategy for display.
func (d Descriptor) Kind() string {
	switch {
	case !d.Remote():
		return "bundled"
	case d.Archive:
		return "remote archive"
	default:
		return "remote"
	}
}

// Prefix is prepended to every attribute name produced by the source.
func (d Descriptor) Prefix() string {
	return d.Name + "-"
}

func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("source descriptor has no name")
	}
	if d.Format == nil {
		return fmt.Errorf("source %s has no format", d.Name)
	}
	if !d.Remote() && len(d.Files) == 0 {
		return fmt.Errorf("source %s has neither a url nor bundled files", d.Name)
	}
	return nil
}

// allowed reports whether the file at path passes the whitelist.
func allowed(whitelist []string, path string) bool {
	return len(whitelist) == 0 || slices.Contains(whitelist, filepath.Base(path))
}
