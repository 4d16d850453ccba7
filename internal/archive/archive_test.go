package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var files = map[string]string{
	"remote_source_test.txt": "Hello world!\n",
	"nested/cedict_ts.u8":    "長 长 [chang2] /long/\n",
}

var order = []string{"remote_source_test.txt", "nested/cedict_ts.u8"}

func buildZip(t *testing.T, names []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		w.Write([]byte(files[name]))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func buildTar(t *testing.T, names []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range names {
		body := files[name]
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg, Format: tar.FormatUSTAR}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header: %v", err)
		}
		tw.Write([]byte(body))
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{"data.zip", func(t *testing.T) []byte { return buildZip(t, order) }},
		{"data.tar", func(t *testing.T) []byte { return buildTar(t, order) }},
		{"data.tar.gz", func(t *testing.T) []byte { return gzipped(t, buildTar(t, order)) }},
		{"misleading.bin", func(t *testing.T) []byte { return buildZip(t, order) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeArchive(t, tt.name, tt.data(t))
			dest := t.TempDir()

			paths, err := Extract(path, dest)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if len(paths) != len(order) {
				t.Fatalf("expected %d files, got %v", len(order), paths)
			}
			for i, name := range order {
				want := filepath.Join(dest, filepath.FromSlash(name))
				if paths[i] != want {
					t.Fatalf("path %d = %s, want %s", i, paths[i], want)
				}
				got, err := os.ReadFile(want)
				if err != nil {
					t.Fatalf("read extracted file: %v", err)
				}
				if string(got) != files[name] {
					t.Fatalf("%s = %q, want %q", name, got, files[name])
				}
			}
		})
	}
}

func TestExtractUnreadable(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"plain.txt", []byte("not an archive at all")},
		{"empty.zip", nil},
		{"truncated.zip", []byte("PK\x03\x04garbage")},
		{"broken.tar.gz", []byte{0x1f, 0x8b, 0x08, 0x00, 0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(writeArchive(t, tt.name, tt.data), t.TempDir())
			if !errors.Is(err, ErrUnreadableArchive) {
				t.Fatalf("expected ErrUnreadableArchive, got %v", err)
			}
		})
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("../escape.txt")
	w.Write([]byte("nope"))
	zw.Close()

	dest := t.TempDir()
	_, err := Extract(writeArchive(t, "evil.zip", buf.Bytes()), dest)
	if !errors.Is(err, ErrUnreadableArchive) {
		t.Fatalf("expected ErrUnreadableArchive, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt")); statErr == nil {
		t.Fatalf("file escaped the destination directory")
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := Extract(filepath.Join(t.TempDir(), "absent.zip"), t.TempDir()); err == nil {
		t.Fatalf("expected error for missing archive")
	}
}
