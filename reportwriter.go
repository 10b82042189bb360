// Package reportwriter turns pluggable report models into rendered
// documents. A Writer is the explicit handle tying together the models root,
// the temp root holding per-session uploads and the current session id; it
// builds each model's form fresh per call, validates submissions in one pass
// and hands the typed context to a document renderer.
package reportwriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-reportwriter/pkg/assets"
	"github.com/goliatone/go-reportwriter/pkg/lists"
	"github.com/goliatone/go-reportwriter/pkg/models"
	"github.com/goliatone/go-reportwriter/pkg/prompt"
	"github.com/goliatone/go-reportwriter/pkg/render"
	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

// Option customises a Writer.
type Option func(*Writer)

// WithTempRoot sets the directory holding per-session asset buckets. It is
// created when missing.
func WithTempRoot(dir string) Option {
	return func(w *Writer) {
		w.tempRoot = strings.TrimSpace(dir)
	}
}

// WithSessionID selects the session whose asset bucket upload fields use.
func WithSessionID(id string) Option {
	return func(w *Writer) {
		w.sessionID = strings.TrimSpace(id)
	}
}

// WithLogger routes logging of the Writer and its stores to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDocumentRenderer replaces the pongo2 document renderer.
func WithDocumentRenderer(renderer render.DocumentRenderer) Option {
	return func(w *Writer) {
		if renderer != nil {
			w.documents = renderer
		}
	}
}

// WithInstructionsRenderer replaces the plain-text instructions renderer.
func WithInstructionsRenderer(renderer render.InstructionsRenderer) Option {
	return func(w *Writer) {
		if renderer != nil {
			w.instructions = renderer
		}
	}
}

// WithWidgetRegistry supplies the widget, converter and validator set forms
// are built from.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(w *Writer) {
		if registry != nil {
			w.registry = registry
		}
	}
}

// Writer is the handle callers hold for one models root and, optionally,
// one session. Methods are synchronous; the Writer does not lock model
// folders, so callers serialise import, export and delete per model name.
type Writer struct {
	tempRoot     string
	sessionID    string
	logger       *slog.Logger
	registry     *widgets.Registry
	documents    render.DocumentRenderer
	instructions render.InstructionsRenderer

	models  *models.Store
	assets  *assets.Store
	session *assets.Session
}

// New opens a Writer over modelsRoot.
func New(modelsRoot string, options ...Option) (*Writer, error) {
	w := &Writer{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		instructions: render.PlainText,
	}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	if w.registry == nil {
		w.registry = widgets.NewRegistry()
	}
	if w.documents == nil {
		pongo, err := render.NewPongo()
		if err != nil {
			return nil, fmt.Errorf("reportwriter: document renderer: %w", err)
		}
		w.documents = pongo
	}

	store, err := models.New(modelsRoot, models.WithLogger(w.logger))
	if err != nil {
		return nil, err
	}
	w.models = store

	if w.tempRoot != "" {
		if err := os.MkdirAll(w.tempRoot, 0o755); err != nil {
			return nil, fmt.Errorf("reportwriter: create temp root: %w", err)
		}
		assetStore, err := assets.New(w.tempRoot, assets.WithLogger(w.logger))
		if err != nil {
			return nil, err
		}
		w.assets = assetStore
		if w.sessionID != "" {
			session, err := assetStore.Session(w.sessionID)
			if err != nil {
				return nil, err
			}
			w.session = session
		}
	}
	return w, nil
}

// Models exposes the underlying model store.
func (w *Writer) Models() *models.Store { return w.models }

// ListModels returns the installed model names.
func (w *Writer) ListModels() ([]string, error) {
	return w.models.List()
}

// ModelExists reports whether name is installed.
func (w *Writer) ModelExists(name string) bool {
	return w.models.Exists(name)
}

// Info returns the metadata of a model.
func (w *Writer) Info(name string) (models.Info, error) {
	return w.models.Info(name)
}

// Form builds a fresh widget tree for the model.
func (w *Writer) Form(name string) (widgets.Form, error) {
	_, form, err := w.prepare(name)
	return form, err
}

// Layout returns the rendering descriptor of the model's form.
func (w *Writer) Layout(name string) ([][]widgets.Layout, error) {
	form, err := w.Form(name)
	if err != nil {
		return nil, err
	}
	return form.Layout()
}

// DefaultData returns the initial value of every field of the model's form.
func (w *Writer) DefaultData(name string) (map[string]any, error) {
	form, err := w.Form(name)
	if err != nil {
		return nil, err
	}
	return form.DefaultData()
}

// SubmissionSchema describes the raw payload the model's form accepts.
func (w *Writer) SubmissionSchema(name string) (*openapi3.Schema, error) {
	form, err := w.Form(name)
	if err != nil {
		return nil, err
	}
	return widgets.SubmissionSchema(form), nil
}

// Validate converts a raw submission. Field problems are reported in Errors;
// err is reserved for failures loading or building the model.
func (w *Writer) Validate(name string, data map[string]any) (widgets.Context, widgets.Errors, error) {
	_, form, err := w.prepare(name)
	if err != nil {
		return nil, nil, err
	}
	result, errs := widgets.NewComposite(form).ConvertData(data)
	if !errs.Empty() {
		w.logger.Debug("submission rejected", "model", name, "fields", len(errs))
	}
	return result, errs, nil
}

// Render validates data and, when every field converted, renders the
// model's template into dest. When the submission has field errors nothing
// is written and the errors are returned.
func (w *Writer) Render(ctx context.Context, name string, data map[string]any, dest string) (string, widgets.Errors, error) {
	if ctx == nil {
		return "", nil, errors.New("reportwriter: context is required")
	}
	model, form, err := w.prepare(name)
	if err != nil {
		return "", nil, err
	}
	result, errs := widgets.NewComposite(form).ConvertData(data)
	if !errs.Empty() {
		w.logger.Debug("submission rejected", "model", name, "fields", len(errs))
		return "", errs, nil
	}
	path, err := w.documents.Render(ctx, render.Template{
		Model: model.Name,
		Path:  model.TemplatePath(),
		Dir:   model.Folder,
	}, result, dest)
	if err != nil {
		return "", nil, fmt.Errorf("reportwriter: render %s: %w", name, err)
	}
	w.logger.Info("document rendered", "model", name, "path", path)
	return path, nil, nil
}

// Fill collects a submission for the model interactively and validates it.
// A nil filler prompts on the terminal.
func (w *Writer) Fill(ctx context.Context, name string, filler *prompt.Filler, initial map[string]any) (widgets.Context, widgets.Errors, error) {
	_, form, err := w.prepare(name)
	if err != nil {
		return nil, nil, err
	}
	if filler == nil {
		filler = prompt.New()
	}
	return filler.Fill(ctx, form, initial)
}

// Instructions returns the model's instructions as sanitised HTML, or an
// empty string when the model ships none.
func (w *Writer) Instructions(name string) (string, error) {
	model, err := w.models.Load(name)
	if err != nil {
		return "", err
	}
	text, ok, err := model.Instructions()
	if err != nil || !ok {
		return "", err
	}
	return render.Instructions(w.instructions, text)
}

// Lists resolves every list shipped with the model.
func (w *Writer) Lists(name string) ([]lists.List, error) {
	provider, err := w.models.Lists(name)
	if err != nil {
		return nil, err
	}
	return provider.All()
}

// List resolves one list of the model.
func (w *Writer) List(name, list string) ([]lists.Item, error) {
	provider, err := w.models.Lists(name)
	if err != nil {
		return nil, err
	}
	return provider.Resolve(list)
}

// Import installs a model archive; see models.Store.Import.
func (w *Writer) Import(src string, overwrite bool) (string, error) {
	return w.models.Import(src, overwrite)
}

// Export writes a model archive; see models.Store.Export.
func (w *Writer) Export(name, dest string) error {
	return w.models.Export(name, dest)
}

// Delete removes a model; see models.Store.Delete.
func (w *Writer) Delete(name string) error {
	return w.models.Delete(name)
}

// Session returns the asset bucket of the configured session.
func (w *Writer) Session() (*assets.Session, error) {
	if w.session == nil {
		return nil, ErrNotInitialized
	}
	return w.session, nil
}

// SaveAsset stores an upload for field in the session bucket.
func (w *Writer) SaveAsset(r io.Reader, filename, field string, overwrite bool) (string, error) {
	session, err := w.Session()
	if err != nil {
		return "", err
	}
	return session.Save(r, filename, field, overwrite)
}

// Asset returns the path of a stored upload.
func (w *Writer) Asset(field, filename string) (string, bool) {
	if w.session == nil {
		return "", false
	}
	return w.session.Get(field, filename)
}

// Assets lists the uploads stored for field.
func (w *Writer) Assets(field string) ([]string, bool, error) {
	session, err := w.Session()
	if err != nil {
		return nil, false, err
	}
	return session.List(field)
}

// SweepAssets removes stale session buckets from the temp root.
func (w *Writer) SweepAssets(cutoff assets.Cutoff) (int, error) {
	if w.assets == nil {
		return 0, ErrNotInitialized
	}
	return w.assets.Sweep(cutoff)
}

// Close discards the session bucket. Writers without a session have nothing
// to release.
func (w *Writer) Close() error {
	if w.session == nil {
		return nil
	}
	return w.session.Remove()
}

func (w *Writer) prepare(name string) (*models.Model, widgets.Form, error) {
	model, err := w.models.Load(name)
	if err != nil {
		return nil, nil, err
	}
	var source widgets.AssetSource
	if w.session != nil {
		source = w.session
	}
	form, err := model.Form(w.registry, source)
	if err != nil {
		return nil, nil, err
	}
	return model, form, nil
}
