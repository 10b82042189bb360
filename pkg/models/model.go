package models

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-reportwriter/pkg/lists"
	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

// InstructionsFile is the optional operator-facing help text of a model.
const InstructionsFile = "instructions.md"

// Model is a loaded model package. It is a snapshot of the folder at load
// time; callers load again to observe later edits.
type Model struct {
	Name       string
	Folder     string
	Descriptor Descriptor
}

// Lists returns the provider for the model's lists folder.
func (m *Model) Lists() *lists.Provider {
	return lists.New(m.Folder)
}

// Form builds a fresh widget tree for one request. A nil registry selects
// the built-in widget set.
func (m *Model) Form(reg *widgets.Registry, assets widgets.AssetSource) (widgets.Form, error) {
	if reg == nil {
		reg = widgets.NewRegistry()
	}
	form, err := reg.BuildForm(m.Descriptor.Rows, widgets.Env{
		Lists:    m.Lists(),
		Assets:   assets,
		Registry: reg,
	})
	if err != nil {
		return nil, fmt.Errorf("models: %s: %w", m.Name, err)
	}
	return form, nil
}

// TemplatePath is the absolute path of the template handed to the document
// renderer.
func (m *Model) TemplatePath() string {
	return filepath.Join(m.Folder, filepath.FromSlash(m.Descriptor.Template))
}

// Instructions returns the raw instructions text and whether the model
// ships one.
func (m *Model) Instructions() (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(m.Folder, InstructionsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("models: read instructions for %s: %w", m.Name, err)
	}
	return string(data), true, nil
}

// Info is the metadata reported for a model.
type Info struct {
	Name            string   `json:"name" yaml:"name"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	Version         string   `json:"version,omitempty" yaml:"version,omitempty"`
	Author          string   `json:"author,omitempty" yaml:"author,omitempty"`
	Template        string   `json:"template" yaml:"template"`
	Descriptor      string   `json:"descriptor" yaml:"descriptor"`
	HasInstructions bool     `json:"has_instructions" yaml:"has_instructions"`
	Lists           []string `json:"lists" yaml:"lists"`
}

// Info summarises the model.
func (m *Model) Info() (Info, error) {
	names, err := m.Lists().Names()
	if err != nil {
		return Info{}, err
	}
	_, hasInstructions, err := m.Instructions()
	if err != nil {
		return Info{}, err
	}
	return Info{
		Name:            m.Name,
		Title:           m.Descriptor.Title,
		Description:     m.Descriptor.Description,
		Version:         m.Descriptor.Version,
		Author:          m.Descriptor.Author,
		Template:        m.Descriptor.Template,
		Descriptor:      m.Descriptor.Source,
		HasInstructions: hasInstructions,
		Lists:           names,
	}, nil
}
