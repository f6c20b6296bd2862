// Package logging builds the zerolog loggers used by the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to w at the given level ("debug", "info",
// ...). Format is FormatConsole, FormatJSON or FormatAuto, which picks
// console output when w is a terminal.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	log, _, err := Setup(w, level, format, "")
	return log, err
}

// Setup is New plus an optional rotated log file that always receives
// JSON. The returned closer releases the file and is never nil.
func Setup(w io.Writer, level, format, file string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out, err := formatWriter(w, format)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var closer io.Closer = nopCloser{}
	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotated)
		closer = rotated
	}

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "restrain").
		Logger(), closer, nil
}

func formatWriter(w io.Writer, format string) (io.Writer, error) {
	switch format {
	case FormatAuto:
		if IsTerminal(w) {
			return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}, nil
		}
		return w, nil
	case FormatConsole, "":
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !IsTerminal(w)}, nil
	case FormatJSON:
		return w, nil
	}
	return nil, fmt.Errorf("invalid log format %q (want %s, %s or %s)", format, FormatAuto, FormatConsole, FormatJSON)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
