// Package main provides the fieldbind command.
//
// fieldbind loads layout documents, builds their component trees with the
// widgets package and reports what the binding engine made of them:
//
//	fieldbind check LAYOUT...
//	fieldbind run [options] LAYOUT
//
// check validates layouts and creates their bindings without applying
// anything; run also initializes the tree, applies -set writes and -state
// transitions, optionally pulls resource tables from a bbolt file or a
// socket.io feed, flushes change handlers and prints every bound field.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}

			os.Exit(exitErr.Code)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches to a command. It is main without the process exit.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return nil
	}

	switch args[0] {
	case "check":
		return runCheck(ctx, stdout, stderr, args[1:])
	case "run":
		return runRun(ctx, stdout, stderr, args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q\n%s", args[0], usage)}
	}
}

const usage = `fieldbind - reactive field bindings over layout documents

Usage:
  fieldbind check [options] LAYOUT...
  fieldbind run [options] LAYOUT

Layouts are .yaml, .yml or .hcl files. Run "fieldbind COMMAND -h" for the
options of a command.
`
