package internal

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/davidmdm/ansi"
)

type contextKey int

const (
	stdoutKey contextKey = iota
	stderrKey
	debugKey
)

// WithStdout overrides the writer commands print their results to.
func WithStdout(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey, w)
}

func Stdout(ctx context.Context) io.Writer {
	return writer(ctx, stdoutKey, os.Stdout)
}

// WithStderr overrides the writer used for prompts and progress.
func WithStderr(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stderrKey, w)
}

func Stderr(ctx context.Context) io.Writer {
	return writer(ctx, stderrKey, os.Stderr)
}

func writer(ctx context.Context, key contextKey, fallback io.Writer) io.Writer {
	if w, ok := ctx.Value(key).(io.Writer); ok {
		return w
	}
	return fallback
}

// WithDebugFlag binds debug output to a flag that may not be parsed yet.
func WithDebugFlag(ctx context.Context, debug *bool) context.Context {
	return context.WithValue(ctx, debugKey, debug)
}

// Debug prints to the stderr of the context when the debug flag is set, and nowhere otherwise.
func Debug(ctx context.Context) ansi.Terminal {
	if debug, _ := ctx.Value(debugKey).(*bool); debug != nil && *debug {
		return ansi.Terminal{Writer: Stderr(ctx)}
	}
	return ansi.Terminal{Writer: io.Discard}
}

// DebugTimer reports how long a step took. Call the returned func when the step ends.
func DebugTimer(ctx context.Context, step string) func() {
	start := time.Now()
	Debug(ctx).Printf("start: %s\n", step)
	return func() {
		Debug(ctx).Printf("done:  %s: %s\n", step, time.Since(start).Round(time.Millisecond))
	}
}
