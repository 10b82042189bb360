package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

// DefaultTemplate is the template file used when a descriptor names none.
const DefaultTemplate = "template.tpl"

// Descriptor is the declarative definition of a model: its metadata, the
// template handed to the document renderer and the widget grid.
type Descriptor struct {
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Title       string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string             `json:"version,omitempty" yaml:"version,omitempty"`
	Author      string             `json:"author,omitempty" yaml:"author,omitempty"`
	Template    string             `json:"template,omitempty" yaml:"template,omitempty"`
	Rows        [][]widgets.Config `json:"rows" yaml:"rows"`

	// Source is the descriptor file the definition was read from.
	Source string `json:"-" yaml:"-"`
}

// descriptorLoader parses one descriptor format.
type descriptorLoader func(path string) (Descriptor, error)

// descriptorFiles lists the accepted descriptor names in lookup order.
var descriptorFiles = []struct {
	name string
	load descriptorLoader
}{
	{name: "model.yaml", load: loadYAMLDescriptor},
	{name: "model.yml", load: loadYAMLDescriptor},
	{name: "model.json", load: loadYAMLDescriptor},
	{name: "model.hcl", load: loadHCLDescriptor},
	{name: "model.go", load: loadScriptDescriptor},
}

// findDescriptor returns the first descriptor file present in folder.
func findDescriptor(folder string) (string, descriptorLoader, bool) {
	for _, candidate := range descriptorFiles {
		path := filepath.Join(folder, candidate.name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return candidate.name, candidate.load, true
		}
	}
	return "", nil, false
}

// readDescriptor loads and normalises the descriptor of the model in folder.
func readDescriptor(folder, modelName string) (Descriptor, error) {
	file, load, ok := findDescriptor(folder)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q has no descriptor", ErrModelNotFound, modelName)
	}
	path := filepath.Join(folder, file)
	desc, err := load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, fmt.Errorf("%w: %q", ErrModelNotFound, modelName)
		}
		return Descriptor{}, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, path, err)
	}
	desc.Source = file
	return desc.normalized(modelName), nil
}

func (d Descriptor) normalized(modelName string) Descriptor {
	out := d
	out.Name = strings.TrimSpace(d.Name)
	if out.Name == "" {
		out.Name = modelName
	}
	out.Title = strings.TrimSpace(d.Title)
	if out.Title == "" {
		out.Title = widgets.DefaultLabel(out.Name)
	}
	out.Description = strings.TrimSpace(d.Description)
	out.Version = strings.TrimSpace(d.Version)
	out.Author = strings.TrimSpace(d.Author)
	out.Template = strings.TrimSpace(d.Template)
	if out.Template == "" {
		out.Template = DefaultTemplate
	}
	return out
}

// loadYAMLDescriptor parses JSON or YAML, trying JSON first the way UI
// schema files are read.
func loadYAMLDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}
	return parseDescriptorBytes(data, path)
}

func parseDescriptorBytes(data []byte, source string) (Descriptor, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Descriptor{}, fmt.Errorf("file %s is empty", source)
	}
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err == nil {
		return desc, nil
	}
	desc = Descriptor{}
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("parse %s: %w", source, err)
	}
	return desc, nil
}
