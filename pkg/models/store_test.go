package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportwriter/pkg/lists"
	"github.com/goliatone/go-reportwriter/pkg/testsupport"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestStore_ListSkipsHiddenEntries(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "zeta", testsupport.InvoiceModel())
	testsupport.WriteModel(t, store.Root(), "alpha", testsupport.InvoiceModel())
	testsupport.WriteModel(t, store.Root(), ".trash", nil)
	testsupport.WriteModel(t, store.Root(), "__pycache__", nil)
	testsupport.WriteTree(t, store.Root(), map[string]string{"notes.txt": "x"})

	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !store.Exists("alpha") || store.Exists("missing") || store.Exists("../alpha") {
		t.Fatalf("unexpected Exists results")
	}
}

func TestStore_LoadReadsFreshEachCall(t *testing.T) {
	store := newStore(t)
	dir := testsupport.WriteModel(t, store.Root(), "invoice", testsupport.InvoiceModel())

	first, err := store.Load("invoice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.Descriptor.Title != "Invoice" {
		t.Fatalf("unexpected title %q", first.Descriptor.Title)
	}

	testsupport.WriteTree(t, dir, map[string]string{
		"model.yaml": "title: Invoice v2\nrows: []\n",
	})
	second, err := store.Load("invoice")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Descriptor.Title != "Invoice v2" {
		t.Fatalf("expected edited descriptor, got %q", second.Descriptor.Title)
	}
	if second.Descriptor.Template != DefaultTemplate {
		t.Fatalf("expected default template, got %q", second.Descriptor.Template)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := newStore(t)
	if _, err := store.Load("ghost"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Load("../etc"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name, got %v", err)
	}
}

func TestStore_InfoAndForm(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "invoice", testsupport.InvoiceModel())

	info, err := store.Info("invoice")
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	want := Info{
		Name:            "invoice",
		Title:           "Invoice",
		Version:         "1.0",
		Template:        "invoice.tpl",
		Descriptor:      "model.yaml",
		HasInstructions: true,
		Lists:           []string{"currencies"},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	model, err := store.Load("invoice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	form, err := model.Form(nil, nil)
	if err != nil {
		t.Fatalf("form: %v", err)
	}
	defaults, err := form.DefaultData()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if got := defaults["currency"]; got != (lists.Item{Key: "EUR", Value: "EUR"}) {
		t.Fatalf("unexpected currency default %#v", got)
	}
	if got := model.TemplatePath(); got != filepath.Join(store.Root(), "invoice", "invoice.tpl") {
		t.Fatalf("unexpected template path %s", got)
	}
}

func TestStore_ListsScopedToModel(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "invoice", map[string]string{
		"model.yaml":       "rows: []\n",
		"lists/colors.txt": "red\nblue",
	})

	provider, err := store.Lists("invoice")
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	items, err := provider.Resolve("colors")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff(lists.FromStrings("red", "blue"), items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
	if _, err := store.Lists("ghost"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStore_ImportCreatesModelAndManifest(t *testing.T) {
	store := newStore(t)
	src := testsupport.WriteArchive(t, filepath.Join(t.TempDir(), "invoice.zip"), testsupport.InvoiceModel())

	name, err := store.Import(src, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if name != "invoice" {
		t.Fatalf("expected invoice, got %q", name)
	}

	got := testsupport.ReadTree(t, filepath.Join(store.Root(), "invoice"))
	if diff := cmp.Diff(treeOf(t, testsupport.InvoiceModel()), got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	manifest, err := ReadManifest(store.ManifestPath())
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := Manifest{Models: []ManifestEntry{{
		Name:       "invoice",
		Path:       "invoice",
		Descriptor: "model.yaml",
		Title:      "Invoice",
		Version:    "1.0",
	}}}
	if diff := cmp.Diff(want, manifest); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
	names, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"invoice"}, names); diff != "" {
		t.Fatalf("manifest must not be listed as a model:\n%s", diff)
	}
}

func TestStore_ImportWithoutOverwriteLeavesExisting(t *testing.T) {
	store := newStore(t)
	dir := testsupport.WriteModel(t, store.Root(), "invoice", map[string]string{
		"model.yaml": "title: Original\nrows: []\n",
	})
	before := testsupport.ReadTree(t, dir)

	src := testsupport.WriteArchive(t, filepath.Join(t.TempDir(), "invoice.zip"), testsupport.InvoiceModel())
	if _, err := store.Import(src, false); !IsExists(err) {
		t.Fatalf("expected ErrModelExists, got %v", err)
	}
	if diff := cmp.Diff(before, testsupport.ReadTree(t, dir)); diff != "" {
		t.Fatalf("existing model changed (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(store.ManifestPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed import must not write a manifest, got %v", err)
	}
}

func TestStore_ImportWithoutOverwriteKeepsPlainFile(t *testing.T) {
	store := newStore(t)
	notes := filepath.Join(store.Root(), "notes")
	if err := os.WriteFile(notes, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	src := testsupport.WriteArchive(t, filepath.Join(t.TempDir(), "notes.zip"), testsupport.InvoiceModel())
	if _, err := store.Import(src, false); !IsExists(err) {
		t.Fatalf("expected ErrModelExists, got %v", err)
	}
	data, err := os.ReadFile(notes)
	if err != nil {
		t.Fatalf("read notes: %v", err)
	}
	if string(data) != "keep me" {
		t.Fatalf("expected file untouched, got %q", data)
	}
	if _, err := os.Stat(store.ManifestPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed import must not write a manifest, got %v", err)
	}
}

func TestStore_ImportOverwriteReplacesContents(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "invoice", map[string]string{
		"model.yaml": "title: Original\nrows: []\n",
		"stale.txt":  "left over",
	})

	src := testsupport.WriteArchive(t, filepath.Join(t.TempDir(), "invoice.zip"), testsupport.InvoiceModel())
	if _, err := store.Import(src, true); err != nil {
		t.Fatalf("import: %v", err)
	}
	got := testsupport.ReadTree(t, filepath.Join(store.Root(), "invoice"))
	if diff := cmp.Diff(treeOf(t, testsupport.InvoiceModel()), got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ImportCorruptArchiveKeepsExisting(t *testing.T) {
	store := newStore(t)
	dir := testsupport.WriteModel(t, store.Root(), "invoice", testsupport.InvoiceModel())
	src := filepath.Join(t.TempDir(), "invoice.zip")
	if err := os.WriteFile(src, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.Import(src, true); err == nil {
		t.Fatalf("expected error for corrupt archive")
	}
	if _, err := os.Stat(filepath.Join(dir, "model.yaml")); err != nil {
		t.Fatalf("existing model should survive: %v", err)
	}
}

func TestStore_ExportReimportRoundTrip(t *testing.T) {
	store := newStore(t)
	files := testsupport.InvoiceModel()
	files["lists/nested/regions.json"] = `[{"key": "eu", "value": "Europe"}]`
	dir := testsupport.WriteModel(t, store.Root(), "invoice", files)
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := testsupport.ReadTree(t, dir)

	testsupport.WriteTree(t, dir, map[string]string{
		"__pycache__/model.cpython-311.pyc": "cache",
		"helpers.pyc":                       "cache",
		".DS_Store":                         "meta",
	})

	dest := filepath.Join(t.TempDir(), "invoice.zip")
	if err := store.Export("invoice", dest); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := store.Import(dest, true); err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if diff := cmp.Diff(want, testsupport.ReadTree(t, dir)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ExportMissing(t *testing.T) {
	store := newStore(t)
	if err := store.Export("ghost", filepath.Join(t.TempDir(), "ghost.zip")); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStore_DeleteRegeneratesManifest(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "invoice", testsupport.InvoiceModel())
	testsupport.WriteModel(t, store.Root(), "memo", map[string]string{"model.yaml": "rows: []\n"})
	if err := store.Reindex(); err != nil {
		t.Fatalf("reindex: %v", err)
	}

	if err := store.Delete("invoice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Exists("invoice") {
		t.Fatalf("invoice should be gone")
	}
	manifest, err := store.Manifest()
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if diff := cmp.Diff([]string{"memo"}, manifest.Names()); diff != "" {
		t.Fatalf("manifest names mismatch (-want +got):\n%s", diff)
	}

	if err := store.Delete("invoice"); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestStore_ManifestListsBrokenModels(t *testing.T) {
	store := newStore(t)
	testsupport.WriteModel(t, store.Root(), "broken", map[string]string{"model.yaml": "rows: [[\n"})

	manifest, err := store.Manifest()
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	entry, ok := manifest.Lookup("broken")
	if !ok {
		t.Fatalf("expected broken model in manifest")
	}
	if entry.Descriptor != "" || entry.Title != "" {
		t.Fatalf("expected blank metadata, got %+v", entry)
	}
}

// treeOf writes files to a scratch folder and reads them back so expected
// trees carry the same directory entries as extracted ones.
func treeOf(t *testing.T, files map[string]string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, files)
	return testsupport.ReadTree(t, dir)
}
