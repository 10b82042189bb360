// Package archive reads and writes the portable zip archives model packages
// travel in. Entry names are relative to the archived folder root and use
// forward slashes.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ErrUnsafePath is returned for entries that would be written outside the
// extraction directory.
var ErrUnsafePath = errors.New("archive: entry escapes destination")

// SkipFunc reports whether a folder entry should be left out of an archive.
// rel is slash-separated and relative to the archived root. Returning true
// for a directory skips its whole subtree.
type SkipFunc func(rel string, entry fs.DirEntry) bool

// WriteDir archives every file and directory under dir into a zip at dest.
func WriteDir(dir, dest string, skip SkipFunc) (err error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("archive: resolve %s: %w", dest, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", dest, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("archive: close %s: %w", dest, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	walkErr := filepath.WalkDir(dir, func(current string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if current == dir {
			return nil
		}
		if abs, err := filepath.Abs(current); err == nil && abs == absDest {
			return nil
		}
		rel, err := filepath.Rel(dir, current)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if skip != nil && skip(rel, entry) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return addEntry(zw, current, rel, entry)
	})
	if walkErr != nil {
		zw.Close()
		return fmt.Errorf("archive: walk %s: %w", dir, walkErr)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finish %s: %w", dest, err)
	}
	return nil
}

func addEntry(zw *zip.Writer, current, rel string, entry fs.DirEntry) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = rel
	if entry.IsDir() {
		header.Name += "/"
		header.Method = zip.Store
		_, err := zw.CreateHeader(header)
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	f, err := os.Open(current)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Reader is an opened archive ready for extraction.
type Reader struct {
	rc   *zip.ReadCloser
	path string
}

// Open reads the central directory of the archive at path. Opening first
// lets callers reject a corrupt archive before touching existing files.
func Open(path string) (*Reader, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	return &Reader{rc: rc, path: path}, nil
}

// Close releases the archive.
func (r *Reader) Close() error {
	if r == nil || r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// Names lists entry names in archive order.
func (r *Reader) Names() []string {
	out := make([]string, 0, len(r.rc.File))
	for _, f := range r.rc.File {
		out = append(out, f.Name)
	}
	return out
}

// ExtractTo writes every entry beneath dest, creating it when missing.
func (r *Reader) ExtractTo(dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("archive: create %s: %w", dest, err)
	}
	for _, f := range r.rc.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("archive: create %s: %w", target, err)
			}
			continue
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("archive: extract %s from %s: %w", f.Name, r.path, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Extract opens the archive at src and extracts it beneath dest.
func Extract(src, dest string) error {
	r, err := Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.ExtractTo(dest)
}

func safeJoin(dest, name string) (string, error) {
	rel := filepath.FromSlash(path.Clean(strings.ReplaceAll(name, "\\", "/")))
	if rel == "." {
		return dest, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(dest, rel), nil
}
