// Package prompt fills a model form interactively on a terminal. Every field
// is prompted once, the answers go through the same Composite pipeline as
// any other submission and failing fields are asked again.
package prompt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-reportwriter/pkg/lists"
	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

// DefaultMaxAttempts bounds how many validation rounds Fill runs.
const DefaultMaxAttempts = 3

// Option configures a Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithMaxAttempts sets the number of validation rounds before Fill gives up
// and returns the remaining errors.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// Filler collects a submission for a form through a PromptDriver.
type Filler struct {
	driver      PromptDriver
	maxAttempts int
}

// New builds a Filler. Without WithPromptDriver it prompts on the terminal.
func New(options ...Option) *Filler {
	f := &Filler{maxAttempts: DefaultMaxAttempts}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(Terminal{})
	}
	return f
}

// Fill prompts for every widget of form, seeding answers from initial and
// then from the widgets' defaults. It returns the converted context and the
// errors left after the last attempt; err is only set for prompt failures.
func (f *Filler) Fill(ctx context.Context, form widgets.Form, initial map[string]any) (widgets.Context, widgets.Errors, error) {
	defaults, err := form.DefaultData()
	if err != nil {
		return nil, nil, err
	}

	var order []widgets.Widget
	form.Each(func(w widgets.Widget) { order = append(order, w) })

	raw := make(map[string]any, len(order))
	for _, w := range order {
		current := defaults[w.Name()]
		if v, ok := initial[w.Name()]; ok {
			current = v
		}
		value, err := f.ask(ctx, w, current)
		if err != nil {
			return nil, nil, err
		}
		raw[w.Name()] = value
	}

	composite := widgets.NewComposite(form)
	for attempt := 1; ; attempt++ {
		result, errs := composite.ConvertData(raw)
		if errs.Empty() || attempt >= f.maxAttempts {
			return result, errs, nil
		}
		if err := f.report(ctx, errs); err != nil {
			return nil, nil, err
		}
		for _, w := range order {
			if _, failed := errs[w.Name()]; !failed {
				continue
			}
			value, err := f.ask(ctx, w, raw[w.Name()])
			if err != nil {
				return nil, nil, err
			}
			raw[w.Name()] = value
		}
	}
}

func (f *Filler) report(ctx context.Context, errs widgets.Errors) error {
	flat := errs.Flatten()
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys)+1)
	lines = append(lines, "Please correct the following fields:")
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("  %s: %s", key, flat[key]))
	}
	return f.driver.Info(ctx, strings.Join(lines, "\n"))
}

func (f *Filler) ask(ctx context.Context, w widgets.Widget, current any) (any, error) {
	layout, err := w.Layout()
	if err != nil {
		return nil, err
	}
	message := layout.Label
	help, _ := layout.WidgetProps["placeholder"].(string)

	switch typed := w.(type) {
	case *widgets.CheckBox:
		checked, err := f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: truthy(current)})
		if err != nil {
			return nil, err
		}
		return checked, nil
	case *widgets.TextArea:
		answer, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: text(current), Help: help})
		if err != nil {
			return nil, err
		}
		return answer, nil
	case *widgets.Select:
		return f.askSelect(ctx, typed, message, current)
	case *widgets.Array:
		return f.askArray(ctx, typed, message)
	case *widgets.Upload:
		return f.askUpload(ctx, layout, message, current)
	default:
		answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: text(current), Help: help})
		if err != nil {
			return nil, err
		}
		return answer, nil
	}
}

func (f *Filler) askSelect(ctx context.Context, w *widgets.Select, message string, current any) (any, error) {
	options, err := w.Options()
	if err != nil {
		return nil, err
	}
	currentKey := selectedKey(current)
	labels := make([]string, len(options))
	defaultIndex := 0
	for i, item := range options {
		labels[i] = item.Value
		if item.Key == currentKey {
			defaultIndex = i
		}
	}
	idx, err := f.driver.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: defaultIndex})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(options) {
		return nil, fmt.Errorf("prompt: %s: selection out of range", w.Name())
	}
	return options[idx], nil
}

func (f *Filler) askArray(ctx context.Context, w *widgets.Array, message string) (any, error) {
	nested := w.Form()
	defaults, err := nested.DefaultData()
	if err != nil {
		return nil, err
	}
	items := []any{}
	for {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add item %d to %s?", len(items)+1, message),
		})
		if err != nil {
			return nil, err
		}
		if !more {
			return items, nil
		}
		item := make(map[string]any)
		var askErr error
		nested.Each(func(child widgets.Widget) {
			if askErr != nil {
				return
			}
			item[child.Name()], askErr = f.ask(ctx, child, defaults[child.Name()])
		})
		if askErr != nil {
			return nil, askErr
		}
		items = append(items, item)
	}
}

func (f *Filler) askUpload(ctx context.Context, layout widgets.Layout, message string, current any) (any, error) {
	multiple, _ := layout.WidgetProps["multiple"].(bool)
	help := "File name stored for this session"
	if accept, _ := layout.WidgetProps["accept"].(string); accept != "" {
		help += " (" + accept + ")"
	}
	if multiple {
		message += " (comma separated)"
	}
	answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: text(current), Help: help})
	if err != nil {
		return nil, err
	}
	if !multiple {
		return strings.TrimSpace(answer), nil
	}
	names := []string{}
	for _, part := range strings.Split(answer, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names, nil
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes":
			return true
		}
	}
	return false
}

func selectedKey(value any) string {
	switch v := value.(type) {
	case lists.Item:
		return v.Key
	case map[string]any:
		key, _ := v["key"].(string)
		return key
	case string:
		return v
	}
	return ""
}
