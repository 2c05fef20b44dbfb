package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs the default slog logger. A file of "-" means stderr; any
// other path is written through a rotating file.
func Setup(file string, debug bool) io.Closer {
	var writer io.Writer
	var closer io.Closer = nopCloser{}

	if file == "-" || file == "" {
		writer = os.Stderr
	} else {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     28,
		}
		writer = rotating
		closer = rotating
	}

	slog.SetDefault(New(writer, debug))

	return closer
}

func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
