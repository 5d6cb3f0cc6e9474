package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// logFlags are shared by every command.
type logFlags struct {
	level  string
	format string
}

func (l *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&l.level, "log-level", "warn", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	fs.StringVar(&l.format, "log-format", "auto", "Log format: 'text', 'json' or 'auto' (text on a terminal).")
}

// logger builds the command logger writing to w.
func (l *logFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level

	switch strings.ToLower(l.level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "auto":
		if isTerminal(w) {
			return slog.New(slog.NewTextHandler(w, opts)), nil
		}

		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text', 'json' or 'auto'"}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// write is a parsed -set argument: ID.Path=Value.
type write struct {
	id, path, value string
}

func parseWrite(s string) (write, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return write{}, fmt.Errorf("-set %q: want ID.Path=Value", s)
	}

	id, path, ok := strings.Cut(strings.TrimSpace(target), ".")
	if !ok || id == "" || path == "" {
		return write{}, fmt.Errorf("-set %q: want ID.Path=Value", s)
	}

	return write{id: id, path: path, value: value}, nil
}

// transition is a parsed -state argument: ID=State.
type transition struct {
	id, state string
}

func parseTransition(s string) (transition, error) {
	id, state, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(state) == "" {
		return transition{}, fmt.Errorf("-state %q: want ID=State", s)
	}

	return transition{id: strings.TrimSpace(id), state: strings.TrimSpace(state)}, nil
}

// runOptions are the flags of the run command.
type runOptions struct {
	logFlags

	sets   listFlag
	states listFlag

	resources     string
	saveResources bool

	feedURL       string
	feedNamespace string
	feedWait      time.Duration

	dump bool
}

func parseRun(args []string, output io.Writer) (*runOptions, string, error) {
	fs := flag.NewFlagSet("fieldbind run", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &runOptions{}
	opts.register(fs)

	fs.Var(&opts.sets, "set", "Write a field after initialization: ID.Path=Value. Repeatable.")
	fs.Var(&opts.states, "state", "Switch a component state: ID=State. Repeatable.")
	fs.StringVar(&opts.resources, "resources", "", "bbolt file to load resource tables from.")
	fs.BoolVar(&opts.saveResources, "save-resources", false, "Write the resource tables back to the -resources file.")
	fs.StringVar(&opts.feedURL, "feed", "", "socket.io URL streaming resource updates.")
	fs.StringVar(&opts.feedNamespace, "feed-namespace", "/", "socket.io namespace of the resource feed.")
	fs.DurationVar(&opts.feedWait, "feed-wait", 2*time.Second, "How long to collect feed updates before applying them.")
	fs.BoolVar(&opts.dump, "dump", false, "Dump the engine snapshot instead of the field listing.")

	fs.Usage = func() {
		fmt.Fprint(output, "Usage:\n  fieldbind run [options] LAYOUT\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, "", &ExitError{Code: 0}
		}

		return nil, "", &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return nil, "", &ExitError{Code: 2, Message: "run takes exactly one layout file"}
	}

	if opts.saveResources && opts.resources == "" {
		return nil, "", &ExitError{Code: 2, Message: "-save-resources needs -resources"}
	}

	return opts, fs.Arg(0), nil
}

func parseCheck(args []string, output io.Writer) (*logFlags, []string, error) {
	fs := flag.NewFlagSet("fieldbind check", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := &logFlags{}
	opts.register(fs)

	fs.Usage = func() {
		fmt.Fprint(output, "Usage:\n  fieldbind check [options] LAYOUT...\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, &ExitError{Code: 0}
		}

		return nil, nil, &ExitError{Code: 2, Message: err.Error()}
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, &ExitError{Code: 2, Message: "check needs at least one layout file"}
	}

	return opts, fs.Args(), nil
}
