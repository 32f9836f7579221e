package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackopsrepl/rdedupe/internal/rdedupe"
	"github.com/blackopsrepl/rdedupe/internal/report"
	"github.com/blackopsrepl/rdedupe/internal/telemetry"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func logic(cmd *cobra.Command, version string, opts options) (err error) {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	enableProgress := opts.Output == "table" &&
		!opts.Debug &&
		!opts.NoProgress &&
		isTerminal(stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts.Logger = newLogger(stderr, opts.Debug)

	if opts.Trace {
		shutdown, setupErr := telemetry.Setup(stderr, version)
		if setupErr != nil {
			return setupErr
		}

		defer func() {
			err = errors.Join(err, shutdown(context.Background()))
		}()
	}

	// Simple progress callback that prints directly to stderr
	var progressHook rdedupe.ProgressFunc

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(p rdedupe.Progress) {
			msg := fmt.Sprintf("Hashing… %d/%d files (%s)", p.Done, p.Total, p.Elapsed.Round(roundTo))
			if p.Failed > 0 {
				msg += fmt.Sprintf(", %d failed", p.Failed)
			}

			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	result, err := rdedupe.Run(ctx, opts.Options, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	switch opts.Output {
	case "json":
		err = PrintJSON(result, opts.Pattern, stdout)
	case "list":
		err = PrintList(result, stdout)
	default:
		err = PrintTable(result, opts.Pattern, stdout)
	}

	if err != nil {
		return err
	}

	return report.Write(opts.Report, result.Report)
}
