package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Options controls how a build logger is constructed.
type Options struct {
	Name    string
	Level   string // explicit level, wins over the environment
	Verbose bool   // shorthand for debug when Level is empty
	Output  io.Writer
}

// NewLogger creates the hclog logger used for one condapp invocation. It
// also reports where the level came from and returns a closer for the
// CONDAPP_LOG_PATH file, which the caller closes once logging is done.
func NewLogger(opts Options) (hclog.Logger, string, io.Closer) {
	level, source := ResolveLevel(opts.Level, opts.Verbose)

	// "json" or "json:<level>" switches the output format
	jsonFormat := os.Getenv("CONDAPP_JSON_LOG") == "1"
	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		if _, lvl, ok := strings.Cut(level, ":"); ok {
			level = lvl
		} else {
			level = "info"
		}
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	var openErr error
	logPath := os.Getenv("CONDAPP_LOG_PATH")
	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			output, closer = file, file
		} else {
			openErr = err
		}
	}

	if !jsonFormat {
		output = NewPrefixWriter("🍏 ", output)
	}

	name := opts.Name
	if name == "" {
		name = "condapp"
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
	if openErr != nil {
		logger.Warn("⚠️ Cannot open log file, logging to stderr", "path", logPath, "error", openErr)
	}
	return logger, source, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ResolveLevel picks the log level and reports where it came from.
// Priority: explicit level, verbose flag, CONDAPP_LOG_LEVEL, "info".
func ResolveLevel(explicit string, verbose bool) (string, string) {
	switch {
	case explicit != "":
		return explicit, "CLI --log-level"
	case verbose:
		return "debug", "CLI --verbose"
	}
	if env := os.Getenv("CONDAPP_LOG_LEVEL"); env != "" {
		return env, "CONDAPP_LOG_LEVEL"
	}
	return "info", "default"
}

// Discard returns a logger that drops everything, for library callers and tests.
func Discard() hclog.Logger {
	return hclog.NewNullLogger()
}
