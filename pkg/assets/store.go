// Package assets stores per-session, per-field temporary files such as
// uploads, laid out as <root>/<session>/widgets/<field>/<filename>, and
// sweeps stale session buckets.
package assets

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
	"time"
)

const widgetsDir = "widgets"

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

// WithClock overrides the time source used to evaluate relative cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the temp root holding every session bucket.
type Store struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// New opens a store rooted at an existing directory.
func New(root string, options ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrNotInitialized
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("assets: temp root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets: temp root %s is not a directory", root)
	}
	s := &Store{
		root:   root,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Root reports the temp root.
func (s *Store) Root() string { return s.root }

// Session returns the handle for one session's bucket. The bucket is created
// lazily on the first save.
func (s *Store) Session(id string) (*Session, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotInitialized
	}
	if err := checkName(id); err != nil {
		return nil, err
	}
	return &Session{store: s, id: id}, nil
}

// Cutoff selects which buckets a sweep removes. The zero value removes every
// bucket.
type Cutoff struct {
	at      time.Time
	age     time.Duration
	isAge   bool
	isAtSet bool
}

// Before selects buckets last modified at or before t.
func Before(t time.Time) Cutoff { return Cutoff{at: t, isAtSet: true} }

// OlderThan selects buckets last modified at or before now minus d.
func OlderThan(d time.Duration) Cutoff { return Cutoff{age: d, isAge: true} }

// All selects every bucket regardless of modification time.
func All() Cutoff { return Cutoff{} }

func (c Cutoff) instant(now time.Time) (time.Time, bool) {
	if c.isAge {
		return now.Add(-c.age), true
	}
	if c.isAtSet {
		return c.at, true
	}
	return time.Time{}, false
}

// Sweep removes every entry of the temp root whose modification time is at
// or before the cutoff and reports how many were removed.
func (s *Store) Sweep(cutoff Cutoff) (int, error) {
	if s == nil {
		return 0, ErrNotInitialized
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("assets: read %s: %w", s.root, err)
	}
	limit, bounded := cutoff.instant(s.now())

	removed := 0
	for _, entry := range entries {
		path := filepath.Join(s.root, entry.Name())
		if bounded {
			info, err := entry.Info()
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				return removed, fmt.Errorf("assets: stat %s: %w", path, err)
			}
			if info.ModTime().After(limit) {
				continue
			}
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("assets: remove %s: %w", path, err)
		}
		removed++
	}
	s.logger.Info("assets: swept temp root", "root", s.root, "removed", removed, "bounded", bounded)
	return removed, nil
}

// Session is one session's view of the store.
type Session struct {
	store *Store
	id    string
}

// ID reports the session id.
func (s *Session) ID() string { return s.id }

// Dir reports the session bucket directory.
func (s *Session) Dir() string {
	return filepath.Join(s.store.root, s.id)
}

func (s *Session) fieldDir(field string) string {
	return filepath.Join(s.Dir(), widgetsDir, field)
}

// Save writes r to the field bucket under filename. Without overwrite an
// existing file is left untouched and ErrAssetExists returned; with
// overwrite the existing file is replaced.
func (s *Session) Save(r io.Reader, filename, field string, overwrite bool) (string, error) {
	if err := checkName(field); err != nil {
		return "", err
	}
	if err := checkName(filename); err != nil {
		return "", err
	}
	target := filepath.Join(s.fieldDir(field), filename)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("assets: create %s: %w", filepath.Dir(target), err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_EXCL
	if overwrite {
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("assets: remove %s: %w", target, err)
		}
	}
	out, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrAssetExists, target)
		}
		return "", fmt.Errorf("assets: create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return "", fmt.Errorf("assets: write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("assets: close %s: %w", target, err)
	}
	s.store.logger.Debug("assets: saved", "session", s.id, "field", field, "file", filename)
	return target, nil
}

// SaveFile copies the file at src into the field bucket.
func (s *Session) SaveFile(src, filename, field string, overwrite bool) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("assets: open %s: %w", src, err)
	}
	defer in.Close()
	return s.Save(in, filename, field, overwrite)
}

// Get returns the path of a stored asset when it exists.
func (s *Session) Get(field, filename string) (string, bool) {
	if checkName(field) != nil || checkName(filename) != nil {
		return "", false
	}
	path := filepath.Join(s.fieldDir(field), filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// List returns the paths stored for field in name order. The boolean is
// false when the field bucket does not exist.
func (s *Session) List(field string) ([]string, bool, error) {
	if err := checkName(field); err != nil {
		return nil, false, err
	}
	dir := s.fieldDir(field)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("assets: read %s: %w", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(out)
	return out, true, nil
}

// Remove deletes the whole session bucket.
func (s *Session) Remove() error {
	if err := os.RemoveAll(s.Dir()); err != nil {
		return fmt.Errorf("assets: remove %s: %w", s.Dir(), err)
	}
	return nil
}

func checkName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || filepath.Base(trimmed) != trimmed {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
