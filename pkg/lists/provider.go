package lists

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Folder is the directory inside a model package holding list files.
const Folder = "lists"

// ErrInvalidName is returned when a list name would escape the lists folder.
var ErrInvalidName = errors.New("lists: invalid list name")

// Item is a single selectable option.
type Item struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// List pairs a list name with its resolved items.
type List struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Provider resolves named option sets stored under a model's lists folder.
// Files are read on every call so edits made out-of-band are picked up.
type Provider struct {
	dir string
}

// New returns a provider rooted at <modelFolder>/lists.
func New(modelFolder string) *Provider {
	return &Provider{dir: filepath.Join(modelFolder, Folder)}
}

// Dir reports the folder the provider reads from.
func (p *Provider) Dir() string {
	if p == nil {
		return ""
	}
	return p.dir
}

// Resolve returns the items for name. <name>.txt wins over <name>.json; when
// neither exists the result is an empty list and no error.
func (p *Provider) Resolve(name string) ([]Item, error) {
	if p == nil {
		return []Item{}, nil
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	txt := filepath.Join(p.dir, clean+".txt")
	data, err := os.ReadFile(txt)
	switch {
	case err == nil:
		return parseText(data), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("lists: read %s: %w", txt, err)
	}

	jsonPath := filepath.Join(p.dir, clean+".json")
	data, err = os.ReadFile(jsonPath)
	switch {
	case err == nil:
		return parseJSON(data, jsonPath)
	case errors.Is(err, fs.ErrNotExist):
		return []Item{}, nil
	default:
		return nil, fmt.Errorf("lists: read %s: %w", jsonPath, err)
	}
}

// All resolves every list file in the folder, sorted by name. Sub-folders are
// skipped and a name present as both .txt and .json is reported once.
func (p *Provider) All() ([]List, error) {
	if p == nil {
		return nil, nil
	}
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("lists: read dir %s: %w", p.dir, err)
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".json" {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ext)
		if _, ok := seen[stem]; ok {
			continue
		}
		seen[stem] = struct{}{}
		names = append(names, stem)
	}
	sort.Strings(names)

	out := make([]List, 0, len(names))
	for _, name := range names {
		items, err := p.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, List{Name: name, Items: items})
	}
	return out, nil
}

// Names reports the list names available without reading their contents.
func (p *Provider) Names() ([]string, error) {
	all, err := p.All()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = l.Name
	}
	return names, nil
}

// FromStrings turns plain values into items using each value as its own key.
func FromStrings(values ...string) []Item {
	out := make([]Item, len(values))
	for i, v := range values {
		out[i] = Item{Key: v, Value: v}
	}
	return out
}

func parseText(data []byte) []Item {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []Item{}
	}
	return FromStrings(strings.Split(text, "\n")...)
}

func parseJSON(data []byte, source string) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("lists: parse %s: %w", source, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || filepath.Base(trimmed) != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return trimmed, nil
}
