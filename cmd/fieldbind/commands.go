package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/multierr"

	"fieldbind/internal/binding"
	"fieldbind/internal/ctxlog"
	"fieldbind/internal/diagnostic"
	"fieldbind/internal/layout"
	"fieldbind/internal/resource"
	"fieldbind/internal/resource/boltstore"
	"fieldbind/internal/resource/feed"
	"fieldbind/widgets"
)

func newFactory() *layout.Factory {
	f := layout.NewFactory()
	widgets.Register(f)

	return f
}

// runCheck validates every layout and builds it into a throwaway engine so
// binding failures are reported too.
func runCheck(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	opts, paths, err := parseCheck(args, stderr)
	if err != nil {
		return err
	}

	logger, err := opts.logger(stderr)
	if err != nil {
		return err
	}

	ctx = ctxlog.WithLogger(ctx, logger)

	docs, loadErr := layout.LoadFiles(paths...)
	factory := newFactory()
	failed := loadErr != nil

	if loadErr != nil {
		fmt.Fprintln(stdout, loadErr)
	}

	for _, doc := range docs {
		if diags := layout.Validate(doc, factory); !diags.IsValid() {
			printDiagnostics(stdout, doc.Source, *diags)
			failed = true

			continue
		}

		cfg := doc.Config()
		cfg.StrictBindings = false

		e := binding.NewEngine(cfg, binding.WithLogger(ctxlog.Discard()))
		_, buildErr := layout.Build(ctx, e, factory, doc)

		diags := e.Diagnostics()
		printDiagnostics(stdout, doc.Source, diags)

		switch {
		case buildErr == nil:
			fmt.Fprintf(stdout, "%s: ok\n", doc.Source)
		case diags.IsValid():
			fmt.Fprintf(stdout, "%s: error: %v\n", doc.Source, buildErr)
			failed = true
		default:
			failed = true
		}
	}

	if failed {
		return &ExitError{Code: 1}
	}

	return nil
}

func printDiagnostics(w io.Writer, source string, diags diagnostic.Diagnostics) {
	for _, bucket := range [][]diagnostic.Diagnostic{diags.Errors, diags.Warnings} {
		for _, d := range bucket {
			fmt.Fprintf(w, "%s: %s: %s\n", source, d.Severity, d)
		}
	}
}

// runRun mounts one layout, applies the requested changes and prints the
// resulting field values.
func runRun(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	opts, path, err := parseRun(args, stderr)
	if err != nil {
		return err
	}

	logger, err := opts.logger(stderr)
	if err != nil {
		return err
	}

	ctx = ctxlog.WithLogger(ctx, logger)

	writes := make([]write, 0, len(opts.sets))
	for _, s := range opts.sets {
		w, err := parseWrite(s)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}

		writes = append(writes, w)
	}

	transitions := make([]transition, 0, len(opts.states))
	for _, s := range opts.states {
		t, err := parseTransition(s)
		if err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}

		transitions = append(transitions, t)
	}

	doc, err := layout.LoadFile(path)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}

	tables := resource.NewTables()
	e := binding.NewEngine(doc.Config(), binding.WithLogger(logger), binding.WithResources(tables))

	tree, err := layout.Mount(ctx, e, newFactory(), doc)
	if tree == nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}

	if err != nil {
		logger.Warn("Layout mounted with errors.", "source", doc.Source, "error", err)
	}

	if opts.resources != "" {
		if err := loadResources(opts.resources, tables); err != nil {
			return err
		}
	}

	if opts.feedURL != "" {
		if err := pullFeed(ctx, logger, opts, tables); err != nil {
			return err
		}
	}

	var errs error

	for _, w := range writes {
		c, ok := tree.Find(w.id)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("-set: no component with id %q", w.id))
			continue
		}

		if err := e.Set(c, w.path, w.value); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("-set %s.%s: %w", w.id, w.path, err))
		}
	}

	for _, t := range transitions {
		c, ok := tree.Find(t.id)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("-state: no component with id %q", t.id))
			continue
		}

		if err := e.States(c).OnStateChanged(t.state); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("-state %s=%s: %w", t.id, t.state, err))
		}
	}

	if err := e.Flush(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}

	snap := e.Snapshot()
	if opts.dump {
		spew.Fdump(stdout, snap)
	} else {
		printSnapshot(stdout, snap)
	}

	if opts.saveResources {
		if err := saveResources(opts.resources, tables); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		return &ExitError{Code: 1, Message: errs.Error()}
	}

	return nil
}

func printSnapshot(w io.Writer, snap binding.Snapshot) {
	for _, c := range snap.Components {
		if c.State != binding.DefaultState {
			fmt.Fprintf(w, "%s [%s]\n", c.Name, c.State)
		} else {
			fmt.Fprintln(w, c.Name)
		}

		for _, l := range c.Locations {
			value := l.Value
			if !l.Valid {
				value = "<invalid>"
			}

			fmt.Fprintf(w, "  %s = %s\n", l.Path, value)
		}
	}
}

func loadResources(path string, tables *resource.Tables) error {
	store, err := boltstore.Open(path)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	defer store.Close()

	if err := store.LoadInto(tables); err != nil {
		return &ExitError{Code: 1, Message: fmt.Sprintf("loading resources from %s: %v", path, err)}
	}

	return nil
}

func saveResources(path string, tables *resource.Tables) error {
	store, err := boltstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, name := range tables.Names() {
		if err := store.Save(tables, name); err != nil {
			return fmt.Errorf("saving resource table %s: %w", name, err)
		}
	}

	return nil
}

// pullFeed collects updates from the resource feed for opts.feedWait and
// applies them.
func pullFeed(ctx context.Context, logger *slog.Logger, opts *runOptions, tables *resource.Tables) error {
	f, err := feed.Dial(ctx, opts.feedURL, opts.feedNamespace)
	if err != nil {
		return &ExitError{Code: 1, Message: err.Error()}
	}
	defer f.Close()

	select {
	case <-time.After(opts.feedWait):
	case <-ctx.Done():
	}

	n := f.Apply(tables)
	logger.Info("Applied resource feed updates.", "updates", n)

	return nil
}
