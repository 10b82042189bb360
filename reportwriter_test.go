package reportwriter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportwriter/pkg/assets"
	"github.com/goliatone/go-reportwriter/pkg/lists"
	"github.com/goliatone/go-reportwriter/pkg/render"
	"github.com/goliatone/go-reportwriter/pkg/testsupport"
	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

func newWriter(t *testing.T, options ...Option) *Writer {
	t.Helper()
	root := t.TempDir()
	testsupport.WriteModel(t, root, "invoice", testsupport.InvoiceModel())
	w, err := New(root, options...)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	return w
}

func validInvoice() map[string]any {
	return map[string]any{
		"customer": "Ada",
		"currency": map[string]any{"key": "USD", "value": "USD"},
		"items": []any{
			map[string]any{"description": "Pens", "amount": "2"},
		},
	}
}

func TestWriter_ListAndLayout(t *testing.T) {
	w := newWriter(t)

	names, err := w.ListModels()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"invoice"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !w.ModelExists("invoice") || w.ModelExists("memo") {
		t.Fatalf("unexpected ModelExists results")
	}

	layout, err := w.Layout("invoice")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var got [][]string
	for _, row := range layout {
		var cells []string
		for _, cell := range row {
			cells = append(cells, cell.FieldName+":"+cell.WidgetType)
		}
		got = append(got, cells)
	}
	want := [][]string{
		{"customer:text_widget", "currency:select_widget"},
		{"items:array_widget"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("layout mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(lists.FromStrings("EUR", "USD"), layout[0][1].WidgetProps["options"]); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	if _, err := w.Layout("memo"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestWriter_ValidateReportsEveryField(t *testing.T) {
	w := newWriter(t)

	result, errs, err := w.Validate("invoice", map[string]any{
		"customer": "  ",
		"currency": map[string]any{"key": "EUR", "value": "EUR"},
		"items": []any{
			map[string]any{"description": "Pens", "amount": "1.5"},
			map[string]any{"description": "", "amount": "lots"},
		},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	keys := make([]string, 0)
	for key := range errs.Flatten() {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if diff := cmp.Diff([]string{"customer", "items.1.amount", "items.1.description"}, keys); diff != "" {
		t.Fatalf("error keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(widgets.Context{"currency": "EUR"}, result); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_RenderWritesDocument(t *testing.T) {
	w := newWriter(t)
	dest := filepath.Join(t.TempDir(), "invoice.txt")

	path, errs, err := w.Render(context.Background(), "invoice", validInvoice(), dest)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !errs.Empty() {
		t.Fatalf("unexpected errors %v", errs)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "Invoice for Ada in USD\n- Pens: 2.00\n"
	if string(data) != want {
		t.Fatalf("output mismatch\nwant: %q\n got: %q", want, string(data))
	}
}

func TestWriter_RenderSkipsInvalidSubmission(t *testing.T) {
	called := false
	w := newWriter(t, WithDocumentRenderer(render.DocumentFunc(func(context.Context, render.Template, map[string]any, string) (string, error) {
		called = true
		return "", nil
	})))

	data := validInvoice()
	delete(data, "customer")
	_, errs, err := w.Render(context.Background(), "invoice", data, filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(widgets.Errors{"customer": widgets.MessageRequired}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if called {
		t.Fatalf("renderer must not run for invalid submissions")
	}
}

func TestWriter_RenderPassesTemplate(t *testing.T) {
	var got render.Template
	w := newWriter(t, WithDocumentRenderer(render.DocumentFunc(func(_ context.Context, tmpl render.Template, data map[string]any, dest string) (string, error) {
		got = tmpl
		return dest, nil
	})))

	if _, _, err := w.Render(context.Background(), "invoice", validInvoice(), "out.txt"); err != nil {
		t.Fatalf("render: %v", err)
	}
	folder := filepath.Join(w.Models().Root(), "invoice")
	want := render.Template{Model: "invoice", Path: filepath.Join(folder, "invoice.tpl"), Dir: folder}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestWriter_InstructionsAndLists(t *testing.T) {
	w := newWriter(t)

	html, err := w.Instructions("invoice")
	if err != nil {
		t.Fatalf("instructions: %v", err)
	}
	want := "<p>Fill in the customer.</p><p>Amounts use a dot as decimal separator.</p>"
	if html != want {
		t.Fatalf("instructions mismatch\nwant: %q\n got: %q", want, html)
	}

	all, err := w.Lists("invoice")
	if err != nil {
		t.Fatalf("lists: %v", err)
	}
	wantLists := []lists.List{{Name: "currencies", Items: lists.FromStrings("EUR", "USD")}}
	if diff := cmp.Diff(wantLists, all); diff != "" {
		t.Fatalf("lists mismatch (-want +got):\n%s", diff)
	}

	missing, err := w.List("invoice", "countries")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected empty list, got %v", missing)
	}
}

func TestWriter_AssetsRequireSession(t *testing.T) {
	w := newWriter(t)
	if _, err := w.SaveAsset(strings.NewReader("x"), "logo.png", "logo", false); !IsNotInitialized(err) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := w.SweepAssets(assets.All()); !IsNotInitialized(err) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if _, ok := w.Asset("logo", "logo.png"); ok {
		t.Fatalf("expected no asset without a session")
	}
}

func TestWriter_UploadFieldUsesSessionAssets(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteModel(t, root, "letter", map[string]string{
		"model.yaml": "rows:\n  - - name: signature\n      type: upload\n      accept: image/png\n",
	})
	temp := filepath.Join(t.TempDir(), "tmp")
	w, err := New(root, WithTempRoot(temp), WithSessionID("s1"))
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	_, errs, err := w.Validate("letter", map[string]any{"signature": "sig.png"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, failed := errs["signature"]; !failed {
		t.Fatalf("expected missing upload to fail, got %v", errs)
	}

	stored, err := w.SaveAsset(strings.NewReader("png"), "sig.png", "signature", false)
	if err != nil {
		t.Fatalf("save asset: %v", err)
	}
	if _, err := w.SaveAsset(strings.NewReader("other"), "sig.png", "signature", false); !errors.Is(err, ErrAssetExists) {
		t.Fatalf("expected ErrAssetExists, got %v", err)
	}

	result, errs, err := w.Validate("letter", map[string]any{"signature": "sig.png"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !errs.Empty() {
		t.Fatalf("unexpected errors %v", errs)
	}
	if diff := cmp.Diff(widgets.Context{"signature": stored}, result); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(filepath.Join(temp, "s1")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected session bucket removed, got %v", err)
	}
}

func TestSaveAndLoadData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "invoice.json")
	if err := SaveData(path, validInvoice()); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "\n    \"customer\": \"Ada\"") {
		t.Fatalf("expected four-space indentation, got:\n%s", raw)
	}
	loaded, err := LoadData(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(validInvoice(), loaded); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
