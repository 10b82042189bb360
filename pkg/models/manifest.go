package models

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultManifestName is the file, relative to the models root, that indexes
// every installed model.
const DefaultManifestName = "manifest.yaml"

const manifestHeader = "# Code generated by reportwriter. DO NOT EDIT.\n"

// Manifest is the aggregate index of installed models.
type Manifest struct {
	Models []ManifestEntry `yaml:"models" json:"models"`
}

// ManifestEntry exposes one model directory.
type ManifestEntry struct {
	Name       string `yaml:"name" json:"name"`
	Path       string `yaml:"path" json:"path"`
	Descriptor string `yaml:"descriptor,omitempty" json:"descriptor,omitempty"`
	Title      string `yaml:"title,omitempty" json:"title,omitempty"`
	Version    string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Names returns the model names in manifest order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Models))
	for _, entry := range m.Models {
		names = append(names, entry.Name)
	}
	return names
}

// Lookup returns the entry for name.
func (m Manifest) Lookup(name string) (ManifestEntry, bool) {
	for _, entry := range m.Models {
		if entry.Name == name {
			return entry, true
		}
	}
	return ManifestEntry{}, false
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("models: parse manifest %s: %w", path, err)
	}
	return manifest, nil
}

// writeManifest replaces path with the encoded manifest through a temporary
// file in the same directory so readers never observe a partial index.
func writeManifest(path string, manifest Manifest) error {
	var buf bytes.Buffer
	buf.WriteString(manifestHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("models: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("models: encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return fmt.Errorf("models: write manifest: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("models: write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("models: write manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("models: write manifest: %w", err)
	}
	return nil
}
