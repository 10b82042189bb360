package widgets

import "errors"

// Form is the ordered grid of widgets owned by a model: rows of widgets
// sharing a layout slot.
type Form [][]Widget

// Each calls fn for every widget in row-major order.
func (f Form) Each(fn func(Widget)) {
	for _, row := range f {
		for _, w := range row {
			fn(w)
		}
	}
}

// Layout returns the nested layout descriptor for form clients.
func (f Form) Layout() ([][]Layout, error) {
	out := make([][]Layout, 0, len(f))
	for _, row := range f {
		layouts := make([]Layout, 0, len(row))
		for _, w := range row {
			l, err := w.Layout()
			if err != nil {
				return nil, err
			}
			layouts = append(layouts, l)
		}
		out = append(out, layouts)
	}
	return out, nil
}

// DefaultData maps every widget name to its default value.
func (f Form) DefaultData() (map[string]any, error) {
	out := make(map[string]any)
	var errs []error
	f.Each(func(w Widget) {
		value, err := w.DefaultData()
		if err != nil {
			errs = append(errs, err)
			return
		}
		out[w.Name()] = value
	})
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Lookup finds a widget by name.
func (f Form) Lookup(name string) (Widget, bool) {
	var found Widget
	f.Each(func(w Widget) {
		if found == nil && w.Name() == name {
			found = w
		}
	})
	return found, found != nil
}

// Composite runs one validation pass over a whole form.
type Composite struct {
	form Form
}

// NewComposite wraps form for a single ConvertData call.
func NewComposite(form Form) *Composite {
	return &Composite{form: form}
}

// ConvertData converts every widget's raw value. All widgets are attempted
// regardless of earlier failures; a field lands in exactly one of the
// returned Context or Errors. An empty Errors means the submission is valid.
func (c *Composite) ConvertData(raw map[string]any) (Context, Errors) {
	ctx := make(Context)
	errs := make(Errors)
	c.form.Each(func(w Widget) {
		value, err := w.ConvertData(raw[w.Name()])
		if err != nil {
			errs[w.Name()] = errorEntry(err)
			return
		}
		ctx[w.Name()] = value
	})
	return ctx, errs
}

func errorEntry(err error) any {
	var itemErr *ItemErrors
	if errors.As(err, &itemErr) {
		return itemErr.Items
	}
	return err.Error()
}
