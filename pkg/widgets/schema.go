package widgets

import "github.com/getkin/kin-openapi/openapi3"

// schemaDescriber is implemented by variants that can describe the raw
// payload they accept.
type schemaDescriber interface {
	submissionSchema() *openapi3.Schema
}

// SubmissionSchema describes the raw payload a form accepts as an OpenAPI
// object schema, so API clients can be generated against a model.
func SubmissionSchema(form Form) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	form.Each(func(w Widget) {
		prop := openapi3.NewSchema()
		if d, ok := w.(schemaDescriber); ok {
			prop = d.submissionSchema()
		}
		root.WithProperty(w.Name(), prop)
		if r, ok := w.(interface{ isRequired() bool }); ok && r.isRequired() {
			root.Required = append(root.Required, w.Name())
		}
	})
	return root
}

func (b base) isRequired() bool { return b.required }

func (w *Text) submissionSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithDefault(w.defaultValue)
}

func (w *TextArea) submissionSchema() *openapi3.Schema {
	return openapi3.NewStringSchema().WithDefault(w.defaultValue)
}

func (w *CheckBox) submissionSchema() *openapi3.Schema {
	return openapi3.NewBoolSchema().WithDefault(w.defaultValue)
}

func (w *Select) submissionSchema() *openapi3.Schema {
	item := openapi3.NewObjectSchema().
		WithProperty("key", openapi3.NewStringSchema()).
		WithProperty("value", openapi3.NewStringSchema())
	item.Required = []string{"value"}
	return item
}

func (w *Array) submissionSchema() *openapi3.Schema {
	return openapi3.NewArraySchema().WithItems(SubmissionSchema(w.form))
}

func (w *Upload) submissionSchema() *openapi3.Schema {
	if w.multiple {
		return openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	}
	return openapi3.NewStringSchema()
}
