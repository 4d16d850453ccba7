// Package archive unpacks downloaded zip, tar and gzip-compressed tar files.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnreadableArchive = errors.New("unreadable archive")

type kind int

const (
	kindUnknown kind = iota
	kindZip
	kindGzip
	kindTar
)

// Extract unpacks every regular file in the archive at path into dest and
// returns the extracted paths in archive order. The format is detected
// from the file contents, not its name.
func Extract(path, dest string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	k, err := detect(f)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	switch k {
	case kindZip:
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat archive: %w", err)
		}
		return extractZip(f, info.Size(), dest)
	case kindGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableArchive, filepath.Base(path), err)
		}
		defer gz.Close()
		return extractTar(gz, dest)
	case kindTar:
		return extractTar(f, dest)
	default:
		return nil, fmt.Errorf("%w: %s: unknown format", ErrUnreadableArchive, filepath.Base(path))
	}
}

// detect sniffs the archive format and rewinds f.
func detect(f *os.File) (kind, error) {
	header := make([]byte, 512)
	n, err := io.ReadFull(bufio.NewReader(f), header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return kindUnknown, fmt.Errorf("read archive header: %w", err)
	}
	header = header[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return kindUnknown, fmt.Errorf("rewind archive: %w", err)
	}

	switch {
	case bytes.HasPrefix(header, []byte("PK\x03\x04")), bytes.HasPrefix(header, []byte("PK\x05\x06")):
		return kindZip, nil
	case bytes.HasPrefix(header, []byte{0x1f, 0x8b}):
		return kindGzip, nil
	case len(header) >= 262 && string(header[257:262]) == "ustar":
		return kindTar, nil
	}
	return kindUnknown, nil
}

func extractZip(r io.ReaderAt, size int64, dest string) ([]string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
	}

	var paths []string
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		target, err := targetPath(dest, zf.Name)
		if err != nil {
			return paths, err
		}
		rc, err := zf.Open()
		if err != nil {
			return paths, fmt.Errorf("%w: %s: %v", ErrUnreadableArchive, zf.Name, err)
		}
		err = writeFile(target, rc)
		rc.Close()
		if err != nil {
			return paths, err
		}
		paths = append(paths, target)
	}
	return paths, nil
}

func extractTar(r io.Reader, dest string) ([]string, error) {
	tr := tar.NewReader(r)

	var paths []string
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return paths, fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		target, err := targetPath(dest, header.Name)
		if err != nil {
			return paths, err
		}
		if err := writeFile(target, tr); err != nil {
			return paths, err
		}
		paths = append(paths, target)
	}
	return paths, nil
}

// targetPath joins name onto dest, refusing entries that would land outside it.
func targetPath(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: entry %q escapes the destination", ErrUnreadableArchive, name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: write %s: %v", ErrUnreadableArchive, target, err)
	}
	return out.Close()
}
