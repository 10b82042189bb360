package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zip"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(current string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := os.ReadFile(current)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, current)
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree: %v", err)
	}
	return out
}

func TestWriteDirAndExtract_RoundTrip(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"model.yaml":        "name: invoice\n",
		"template.tpl":      "Hello {{ customer }}",
		"lists/colors.txt":  "red\nblue",
		"lists/sizes.json":  `[{"key":"s","value":"S"}]`,
		"__pycache__/x.pyc": "cache",
	}
	writeTree(t, src, files)
	if err := os.MkdirAll(filepath.Join(src, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir empty: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "invoice.zip")
	skip := func(rel string, entry fs.DirEntry) bool {
		return entry.IsDir() && entry.Name() == "__pycache__"
	}
	if err := WriteDir(src, dest, skip); err != nil {
		t.Fatalf("write dir: %v", err)
	}

	r, err := Open(dest)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	names := r.Names()
	r.Close()
	sort.Strings(names)
	wantNames := []string{"empty/", "lists/", "lists/colors.txt", "lists/sizes.json", "model.yaml", "template.tpl"}
	if diff := cmp.Diff(wantNames, names); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}

	out := filepath.Join(t.TempDir(), "invoice")
	if err := Extract(dest, out); err != nil {
		t.Fatalf("extract: %v", err)
	}
	delete(files, "__pycache__/x.pyc")
	if diff := cmp.Diff(files, readTree(t, out)); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if info, err := os.Stat(filepath.Join(out, "empty")); err != nil || !info.IsDir() {
		t.Fatalf("expected empty dir to survive round trip: %v", err)
	}
}

func TestExtract_RejectsEscapingEntries(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "evil.zip")
	f, err := os.Create(dest)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../escape.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()

	out := filepath.Join(t.TempDir(), "target")
	if err := Extract(dest, out); !errors.Is(err, ErrUnsafePath) {
		t.Fatalf("expected ErrUnsafePath, got %v", err)
	}
}

func TestOpen_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected open error")
	}
}
