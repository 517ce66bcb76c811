// Package logging builds the slog loggers used for diagnostic output.
// User-facing results go through internal/output; logs go to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Options configures a logger.
type Options struct {
	Level    slog.Level
	Terminal bool // use the colored tint handler
}

// New returns a logger writing to w. Terminal output uses tint; anything
// else gets a plain text handler without timestamps.
func New(w io.Writer, opts Options) *slog.Logger {
	if opts.Terminal {
		return slog.New(newTerminalHandler(w, opts.Level))
	}
	return slog.New(newTextHandler(w, opts.Level))
}

// Default returns a stderr logger at level, colored when stderr is a terminal.
func Default(level slog.Level) *slog.Logger {
	fd := os.Stderr.Fd()
	return New(os.Stderr, Options{
		Level:    level,
		Terminal: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	})
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// ParseLevel maps a level name to a slog level. Unknown names yield
// LevelInfo and false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "err", "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func newTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if len(groups) == 0 {
					return slog.Attr{}
				}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(a.Key, strings.ToLower(lvl.String()))
				}
			}
			return a
		},
	})
}

func newTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		NoColor:   runtime.GOOS == "windows",
		AddSource: level <= slog.LevelDebug,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	})
}
