package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	selects      []SelectConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selects = append(s.selects, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func buildForm(t *testing.T, rows [][]widgets.Config) widgets.Form {
	t.Helper()
	form, err := widgets.NewRegistry().BuildForm(rows, widgets.Env{})
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	return form
}

func TestFiller_FillsAndRepromptsFailingFields(t *testing.T) {
	form := buildForm(t, [][]widgets.Config{
		{
			{Name: "customer", Type: "text", Required: true},
			{Name: "currency", Type: "select", Options: []any{"EUR", "USD"}, Default: "USD"},
		},
		{
			{Name: "urgent", Type: "checkbox"},
			{Name: "notes", Type: "text_area"},
		},
		{
			{Name: "items", Type: "array", Widgets: [][]widgets.Config{
				{{Name: "description", Type: "text", Required: true}},
			}},
		},
	})

	driver := &stubDriver{
		inputs:    []string{"", "Pens", "Ada"},
		selectIdx: []int{1},
		confirm:   []bool{true, true, false},
		textAreas: []string{"Deliver before noon"},
	}
	filler := New(WithPromptDriver(driver))

	result, errs, err := filler.Fill(context.Background(), form, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !errs.Empty() {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := widgets.Context{
		"customer": "Ada",
		"currency": "USD",
		"urgent":   true,
		"notes":    "Deliver before noon",
		"items":    []widgets.Context{{"description": "Pens"}},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}

	if len(driver.selects) != 1 || driver.selects[0].DefaultIndex != 1 {
		t.Fatalf("expected select to default to USD, got %+v", driver.selects)
	}
	if diff := cmp.Diff([]string{"EUR", "USD"}, driver.selects[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 1 || !strings.Contains(driver.infoMessages[0], "customer: "+widgets.MessageRequired) {
		t.Fatalf("expected one correction message, got %q", driver.infoMessages)
	}
}

func TestFiller_StopsAfterMaxAttempts(t *testing.T) {
	form := buildForm(t, [][]widgets.Config{
		{{Name: "customer", Type: "text", Required: true}},
	})
	driver := &stubDriver{inputs: []string{"", ""}}
	filler := New(WithPromptDriver(driver), WithMaxAttempts(2))

	result, errs, err := filler.Fill(context.Background(), form, nil)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(widgets.Errors{"customer": widgets.MessageRequired}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if len(result) != 0 {
		t.Fatalf("expected empty context, got %v", result)
	}
	if driver.inputPos != 2 {
		t.Fatalf("expected two prompts, got %d", driver.inputPos)
	}
}

func TestFiller_PropagatesAbort(t *testing.T) {
	form := buildForm(t, [][]widgets.Config{
		{{Name: "urgent", Type: "checkbox"}},
	})
	aborting := &abortDriver{}
	_, _, err := New(WithPromptDriver(aborting)).Fill(context.Background(), form, nil)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestFiller_UploadNames(t *testing.T) {
	form := buildForm(t, [][]widgets.Config{
		{{Name: "photos", Type: "upload", Multiple: true}},
	})
	layout, err := form[0][0].Layout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	driver := &stubDriver{inputs: []string{" a.png, ,b.png "}}
	got, err := New(WithPromptDriver(driver)).askUpload(context.Background(), layout, "Photos", nil)
	if err != nil {
		t.Fatalf("ask upload: %v", err)
	}
	if diff := cmp.Diff([]string{"a.png", "b.png"}, got); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

type abortDriver struct{ stubDriver }

func (a *abortDriver) Confirm(context.Context, ConfirmConfig) (bool, error) {
	return false, ErrAborted
}
