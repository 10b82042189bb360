package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a one-line answer for text and upload fields.
type InputConfig struct {
	Message string
	Default string
	Help    string
}

// ConfirmConfig describes a yes/no question: checkboxes and the "add
// another item" loop of array fields.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig lists the option labels of a select field. DefaultIndex is
// ignored when out of range.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
}

// TextAreaConfig describes a multi-line answer for text area fields.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// PromptDriver is everything the Filler needs from a terminal.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

// Terminal names the streams a survey driver talks to. Unset streams fall
// back to the process stdin, stdout and stderr.
type Terminal struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err io.Writer
}

type surveyDriver struct {
	stdio survey.AskOpt
	notes io.Writer
}

// NewSurveyDriver returns a PromptDriver backed by survey. Questions are
// drawn on term.Out; validation notices from Info go to term.Err.
func NewSurveyDriver(term Terminal) PromptDriver {
	if term.In == nil {
		term.In = os.Stdin
	}
	if term.Out == nil {
		term.Out = os.Stdout
	}
	if term.Err == nil {
		term.Err = os.Stderr
	}
	return &surveyDriver{
		stdio: survey.WithStdio(term.In, term.Out, term.Err),
		notes: term.Err,
	}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Input{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &answer)
	return answer, err
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	var answer bool
	err := d.ask(ctx, &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &answer)
	return answer, err
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if len(cfg.Options) == 0 {
		return -1, fmt.Errorf("prompt: %q has no options", cfg.Message)
	}
	question := &survey.Select{Message: cfg.Message, Options: cfg.Options, Help: cfg.Help}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		question.Default = cfg.Options[cfg.DefaultIndex]
	}
	// survey writes the chosen index when the response is an int.
	var picked int
	if err := d.ask(ctx, question, &picked); err != nil {
		return -1, err
	}
	return picked, nil
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	var answer string
	err := d.ask(ctx, &survey.Multiline{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}, &answer)
	return answer, err
}

// Info prints a notice between questions.
func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.notes, msg)
	return err
}

func (d *surveyDriver) ask(ctx context.Context, question survey.Prompt, answer any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(question, answer, d.stdio)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
