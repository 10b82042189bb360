// Package models discovers, loads, imports, exports and deletes model
// packages kept as folders under a models root, and keeps the aggregate
// manifest of installed models current.
//
// A model folder holds a descriptor (model.yaml, model.yml, model.json,
// model.hcl or model.go), the template it names, an optional lists/ folder
// and an optional instructions.md. Models are read from disk on every call
// so edits made out of band are picked up without a restart.
//
// The store does not lock model folders. Callers serialise import, export
// and delete of the same model name.
package models

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-reportwriter/pkg/archive"
	"github.com/goliatone/go-reportwriter/pkg/lists"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger routes store logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithManifestName overrides the manifest file name inside the models root.
func WithManifestName(name string) Option {
	return func(s *Store) {
		if name = strings.TrimSpace(name); name != "" {
			s.manifestName = name
		}
	}
}

// Store manages the model folders under one root directory.
type Store struct {
	root         string
	manifestName string
	logger       *slog.Logger
}

// New opens a store over root, creating the directory when missing.
func New(root string, options ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("models: root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("models: resolve root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("models: create root %s: %w", abs, err)
	}
	s := &Store{
		root:         abs,
		manifestName: DefaultManifestName,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Root returns the absolute models root.
func (s *Store) Root() string { return s.root }

// ManifestPath returns the location of the generated manifest.
func (s *Store) ManifestPath() string {
	return filepath.Join(s.root, s.manifestName)
}

// List returns the installed model names in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("models: read root %s: %w", s.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || hiddenName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether a model folder called name is installed.
func (s *Store) Exists(name string) bool {
	folder, err := s.folder(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(folder)
	return err == nil && info.IsDir()
}

// Load reads the model from disk. Nothing is cached between calls.
func (s *Store) Load(name string) (*Model, error) {
	folder, err := s.folder(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	desc, err := readDescriptor(folder, name)
	if err != nil {
		return nil, err
	}
	return &Model{Name: name, Folder: folder, Descriptor: desc}, nil
}

// Info loads the model and returns its metadata.
func (s *Store) Info(name string) (Info, error) {
	model, err := s.Load(name)
	if err != nil {
		return Info{}, err
	}
	return model.Info()
}

// Lists returns the list provider scoped to the named model.
func (s *Store) Lists(name string) (*lists.Provider, error) {
	if !s.Exists(name) {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	folder, _ := s.folder(name)
	return lists.New(folder), nil
}

// Export writes the model folder into a zip archive at dest. Cache artefacts
// are left out.
func (s *Store) Export(name, dest string) error {
	if !s.Exists(name) {
		return fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}
	folder, _ := s.folder(name)
	if err := archive.WriteDir(folder, dest, skipCacheArtifacts); err != nil {
		return fmt.Errorf("models: export %s: %w", name, err)
	}
	s.logger.Info("model exported", "model", name, "path", dest)
	return nil
}

// Import installs the archive at src as the model named after the archive's
// base filename and returns that name. An existing model is only replaced
// when overwrite is set. A failure during extraction may leave the model
// folder partially written.
func (s *Store) Import(src string, overwrite bool) (string, error) {
	name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	folder, err := s.folder(name)
	if err != nil {
		return "", err
	}
	if !overwrite {
		if _, err := os.Lstat(folder); err == nil {
			return "", fmt.Errorf("%w: %q", ErrModelExists, name)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("models: import %s: %w", name, err)
		}
	}

	reader, err := archive.Open(src)
	if err != nil {
		return "", fmt.Errorf("models: import %s: %w", name, err)
	}
	defer reader.Close()

	if err := os.RemoveAll(folder); err != nil {
		return "", fmt.Errorf("models: import %s: remove existing: %w", name, err)
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("models: import %s: %w", name, err)
	}
	if err := reader.ExtractTo(folder); err != nil {
		return "", fmt.Errorf("models: import %s: %w", name, err)
	}
	s.logger.Info("model imported", "model", name, "path", src, "overwrite", overwrite)

	if err := s.Reindex(); err != nil {
		return name, err
	}
	return name, nil
}

// Delete removes the model folder and regenerates the manifest.
func (s *Store) Delete(name string) error {
	folder, err := s.folder(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(folder); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrModelNotFound, name)
		}
		return fmt.Errorf("models: delete %s: %w", name, err)
	}
	if err := os.RemoveAll(folder); err != nil {
		return fmt.Errorf("models: delete %s: %w", name, err)
	}
	s.logger.Info("model deleted", "model", name)
	return s.Reindex()
}

// Manifest reads the current manifest, regenerating it when absent.
func (s *Store) Manifest() (Manifest, error) {
	manifest, err := ReadManifest(s.ManifestPath())
	if err == nil {
		return manifest, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, err
	}
	if err := s.Reindex(); err != nil {
		return Manifest{}, err
	}
	return ReadManifest(s.ManifestPath())
}

// Reindex rewrites the manifest from the folders currently installed.
// Folders whose descriptor is missing or invalid are still listed so the
// index mirrors the directory tree; their metadata is left blank.
func (s *Store) Reindex() error {
	names, err := s.List()
	if err != nil {
		return err
	}
	manifest := Manifest{Models: make([]ManifestEntry, 0, len(names))}
	for _, name := range names {
		entry := ManifestEntry{Name: name, Path: name}
		model, err := s.Load(name)
		if err != nil {
			s.logger.Warn("model descriptor unreadable", "model", name, "error", err)
		} else {
			entry.Descriptor = model.Descriptor.Source
			entry.Title = model.Descriptor.Title
			entry.Version = model.Descriptor.Version
		}
		manifest.Models = append(manifest.Models, entry)
	}
	if err := writeManifest(s.ManifestPath(), manifest); err != nil {
		return err
	}
	s.logger.Debug("manifest regenerated", "path", s.ManifestPath(), "models", len(names))
	return nil
}

func (s *Store) folder(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed != name || hiddenName(name) ||
		strings.ContainsAny(name, `/\`) || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.root, name), nil
}

func hiddenName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__")
}

var (
	cacheDirs  = map[string]struct{}{"__pycache__": {}, ".cache": {}, ".pytest_cache": {}}
	cacheFiles = map[string]struct{}{".DS_Store": {}, "Thumbs.db": {}}
	cacheExts  = map[string]struct{}{".pyc": {}, ".pyo": {}}
)

// skipCacheArtifacts drops interpreter caches and OS metadata from exports.
func skipCacheArtifacts(_ string, entry fs.DirEntry) bool {
	name := entry.Name()
	if entry.IsDir() {
		_, ok := cacheDirs[name]
		return ok
	}
	if _, ok := cacheFiles[name]; ok {
		return true
	}
	_, ok := cacheExts[filepath.Ext(name)]
	return ok
}
