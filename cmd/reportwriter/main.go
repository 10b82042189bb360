package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goliatone/go-reportwriter"
	"github.com/goliatone/go-reportwriter/pkg/assets"
	"github.com/goliatone/go-reportwriter/pkg/prompt"
	"github.com/goliatone/go-reportwriter/pkg/widgets"
)

const usage = `Usage: reportwriter [flags] <command> [args]

Commands:
  list                          list installed models
  info <model>                  print model metadata
  layout <model>                print the form layout as JSON
  schema <model>                print the submission JSON schema
  lists <model>                 print every list of the model
  import <archive.zip>          install a model archive (-overwrite to replace)
  export <model> <archive.zip>  write a model archive
  delete <model>                remove a model
  render <model> <data.json> <output>
                                validate data and render the document
  fill <model> <data.json>      prompt for every field and save the answers
  sweep                         remove session buckets older than -older

Flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

type config struct {
	models    string
	temp      string
	session   string
	overwrite bool
	older     time.Duration
	verbose   bool
}

func run(ctx context.Context, out, errOut io.Writer, args []string) error {
	cfg := config{}
	fs := flag.NewFlagSet("reportwriter", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&cfg.models, "models", envOr("REPORTWRITER_MODELS", "models"), "models root directory")
	fs.StringVar(&cfg.temp, "temp", os.Getenv("REPORTWRITER_TEMP"), "temp root for session uploads")
	fs.StringVar(&cfg.session, "session", "", "session id for upload fields")
	fs.BoolVar(&cfg.overwrite, "overwrite", false, "replace an existing model on import")
	fs.DurationVar(&cfg.older, "older", 24*time.Hour, "sweep buckets not modified within this duration (0 removes all)")
	fs.BoolVar(&cfg.verbose, "verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	options := []reportwriter.Option{reportwriter.WithLogger(logger)}
	if cfg.temp != "" {
		options = append(options, reportwriter.WithTempRoot(cfg.temp), reportwriter.WithSessionID(cfg.session))
	}
	writer, err := reportwriter.New(cfg.models, options...)
	if err != nil {
		return err
	}

	command, params := rest[0], rest[1:]
	need := func(n int) error {
		if len(params) != n {
			fs.Usage()
			return errUsage
		}
		return nil
	}

	switch command {
	case "list":
		names, err := writer.ListModels()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	case "info":
		if err := need(1); err != nil {
			return err
		}
		info, err := writer.Info(params[0])
		if err != nil {
			return err
		}
		return writeJSON(out, info)
	case "layout":
		if err := need(1); err != nil {
			return err
		}
		layout, err := writer.Layout(params[0])
		if err != nil {
			return err
		}
		return writeJSON(out, layout)
	case "schema":
		if err := need(1); err != nil {
			return err
		}
		schema, err := writer.SubmissionSchema(params[0])
		if err != nil {
			return err
		}
		return writeJSON(out, schema)
	case "lists":
		if err := need(1); err != nil {
			return err
		}
		all, err := writer.Lists(params[0])
		if err != nil {
			return err
		}
		return writeJSON(out, all)
	case "import":
		if err := need(1); err != nil {
			return err
		}
		name, err := writer.Import(params[0], cfg.overwrite)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %s\n", name)
		return nil
	case "export":
		if err := need(2); err != nil {
			return err
		}
		if err := writer.Export(params[0], params[1]); err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %s to %s\n", params[0], params[1])
		return nil
	case "delete":
		if err := need(1); err != nil {
			return err
		}
		if err := writer.Delete(params[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", params[0])
		return nil
	case "render":
		if err := need(3); err != nil {
			return err
		}
		data, err := reportwriter.LoadData(params[1])
		if err != nil {
			return err
		}
		path, errs, err := writer.Render(ctx, params[0], data, params[2])
		if err != nil {
			return err
		}
		if !errs.Empty() {
			printErrors(errOut, errs)
			return fmt.Errorf("reportwriter: %s: submission has %d invalid fields", params[0], len(errs))
		}
		fmt.Fprintf(out, "rendered %s\n", path)
		return nil
	case "fill":
		if err := need(2); err != nil {
			return err
		}
		initial := map[string]any{}
		if _, statErr := os.Stat(params[1]); statErr == nil {
			if initial, err = reportwriter.LoadData(params[1]); err != nil {
				return err
			}
		}
		filler := prompt.New(prompt.WithPromptDriver(prompt.NewSurveyDriver(prompt.Terminal{Err: errOut})))
		result, errs, err := writer.Fill(ctx, params[0], filler, initial)
		if err != nil {
			return err
		}
		if !errs.Empty() {
			printErrors(errOut, errs)
			return fmt.Errorf("reportwriter: %s: giving up after repeated invalid answers", params[0])
		}
		if err := reportwriter.SaveData(params[1], result); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", params[1])
		return nil
	case "sweep":
		if cfg.temp == "" {
			return reportwriter.ErrNotInitialized
		}
		cutoff := assets.All()
		if cfg.older > 0 {
			cutoff = assets.OlderThan(cfg.older)
		}
		removed, err := writer.SweepAssets(cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d session buckets from %s\n", removed, filepath.Clean(cfg.temp))
		return nil
	default:
		fmt.Fprintf(errOut, "unknown command %q\n", command)
		fs.Usage()
		return errUsage
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func printErrors(out io.Writer, errs widgets.Errors) {
	flat := errs.Flatten()
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "%s: %s\n", key, flat[key])
	}
}
