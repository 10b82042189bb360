package models

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

// hclDescriptorFile is the top-level structure of model.hcl:
//
//	name     = "invoice"
//	template = "invoice.tpl"
//
//	row {
//	  widget "customer" {
//	    type     = "text"
//	    required = true
//	    validator "min_length" {
//	      value = 3
//	    }
//	  }
//	}
type hclDescriptorFile struct {
	Name        string    `hcl:"name,optional"`
	Title       string    `hcl:"title,optional"`
	Description string    `hcl:"description,optional"`
	Version     string    `hcl:"version,optional"`
	Author      string    `hcl:"author,optional"`
	Template    string    `hcl:"template,optional"`
	Rows        []*hclRow `hcl:"row,block"`
}

type hclRow struct {
	Widgets []*hclWidget `hcl:"widget,block"`
}

type hclWidget struct {
	Name        string          `hcl:"name,label"`
	Type        string          `hcl:"type"`
	Label       string          `hcl:"label,optional"`
	Col         int             `hcl:"col,optional"`
	Default     *cty.Value      `hcl:"default,optional"`
	Placeholder string          `hcl:"placeholder,optional"`
	Lines       int             `hcl:"lines,optional"`
	Required    bool            `hcl:"required,optional"`
	Options     *cty.Value      `hcl:"options,optional"`
	Converter   string          `hcl:"converter,optional"`
	Accept      string          `hcl:"accept,optional"`
	Multiple    bool            `hcl:"multiple,optional"`
	Validators  []*hclValidator `hcl:"validator,block"`
	Rows        []*hclRow       `hcl:"row,block"`
}

type hclValidator struct {
	Type    string     `hcl:"type,label"`
	Value   *cty.Value `hcl:"value,optional"`
	Message string     `hcl:"message,optional"`
}

func loadHCLDescriptor(path string) (Descriptor, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Descriptor{}, fmt.Errorf("parse %s: %w", path, diags)
	}
	var parsed hclDescriptorFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return Descriptor{}, fmt.Errorf("decode %s: %w", path, diags)
	}

	rows, err := convertHCLRows(parsed.Rows)
	if err != nil {
		return Descriptor{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return Descriptor{
		Name:        parsed.Name,
		Title:       parsed.Title,
		Description: parsed.Description,
		Version:     parsed.Version,
		Author:      parsed.Author,
		Template:    parsed.Template,
		Rows:        rows,
	}, nil
}

func convertHCLRows(rows []*hclRow) ([][]widgets.Config, error) {
	out := make([][]widgets.Config, 0, len(rows))
	for _, row := range rows {
		configs := make([]widgets.Config, 0, len(row.Widgets))
		for _, w := range row.Widgets {
			cfg, err := convertHCLWidget(w)
			if err != nil {
				return nil, err
			}
			configs = append(configs, cfg)
		}
		out = append(out, configs)
	}
	return out, nil
}

func convertHCLWidget(w *hclWidget) (widgets.Config, error) {
	cfg := widgets.Config{
		Name:        w.Name,
		Type:        w.Type,
		Label:       w.Label,
		Col:         w.Col,
		Placeholder: w.Placeholder,
		Rows:        w.Lines,
		Required:    w.Required,
		Converter:   w.Converter,
		Accept:      w.Accept,
		Multiple:    w.Multiple,
	}
	var err error
	if cfg.Default, err = ctyToGo(w.Default); err != nil {
		return widgets.Config{}, fmt.Errorf("widget %q default: %w", w.Name, err)
	}
	if cfg.Options, err = ctyToGo(w.Options); err != nil {
		return widgets.Config{}, fmt.Errorf("widget %q options: %w", w.Name, err)
	}
	for _, v := range w.Validators {
		param, err := ctyToGo(v.Value)
		if err != nil {
			return widgets.Config{}, fmt.Errorf("widget %q validator %q: %w", w.Name, v.Type, err)
		}
		cfg.Validators = append(cfg.Validators, widgets.ValidatorConfig{
			Type:    v.Type,
			Value:   param,
			Message: v.Message,
		})
	}
	if len(w.Rows) > 0 {
		nested, err := convertHCLRows(w.Rows)
		if err != nil {
			return widgets.Config{}, err
		}
		cfg.Widgets = nested
	}
	return cfg, nil
}

// ctyToGo maps a cty value onto the plain Go shapes YAML and JSON produce,
// so every descriptor format feeds widgets the same types.
func ctyToGo(val *cty.Value) (any, error) {
	if val == nil || val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value must be known")
	}
	raw, err := ctyjson.Marshal(*val, val.Type())
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
