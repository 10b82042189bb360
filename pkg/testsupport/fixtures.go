package testsupport

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportwriter/pkg/archive"
)

// InvoiceDescriptor is a small YAML model descriptor exercising a text, a
// select backed by a list and an array of line items.
const InvoiceDescriptor = `name: invoice
title: Invoice
version: "1.0"
template: invoice.tpl
rows:
  - - name: customer
      type: text
      required: true
    - name: currency
      type: select
      options: currencies
      default: EUR
  - - name: items
      type: array
      widgets:
        - - name: description
            type: text
            required: true
          - name: amount
            type: text
            converter: float
`

// InvoiceModel returns the files of a complete invoice model keyed by
// slash-separated relative path.
func InvoiceModel() map[string]string {
	return map[string]string{
		"model.yaml":           InvoiceDescriptor,
		"invoice.tpl":          "Invoice for {{ customer }} in {{ currency }}\n{% for item in items %}- {{ item.description }}: {{ item.amount|floatformat:2 }}\n{% endfor %}",
		"instructions.md":      "Fill in the customer.\n\nAmounts use a dot as decimal separator.",
		"lists/currencies.txt": "EUR\nUSD\n",
	}
}

// WriteTree creates files under dir, making parent folders as needed.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// WriteModel creates a model folder called name under root and returns its
// path.
func WriteModel(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir model %s: %v", name, err)
	}
	WriteTree(t, dir, files)
	return dir
}

// WriteArchive builds a model archive at dest holding files.
func WriteArchive(t *testing.T, dest string, files map[string]string) string {
	t.Helper()
	staging := t.TempDir()
	WriteTree(t, staging, files)
	if err := archive.WriteDir(staging, dest, nil); err != nil {
		t.Fatalf("write archive %s: %v", dest, err)
	}
	return dest
}

// ReadTree returns every regular file under dir keyed by slash-separated
// relative path. Directories are reported with a trailing slash and empty
// content so empty folders take part in comparisons.
func ReadTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if entry.IsDir() {
			out[rel+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", dir, err)
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
