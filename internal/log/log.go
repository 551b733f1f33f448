// Package log provides structured logging for the stamp tools.
//
// Console output goes to stderr so stdout carries only command results.
// Color is used when stderr is a terminal.
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers.
var (
	Wallet    zerolog.Logger
	Ledger    zerolog.Logger
	Poller    zerolog.Logger
	Stamp     zerolog.Logger
	Upload    zerolog.Logger
	Archive   zerolog.Logger
	RPC       zerolog.Logger
	Node      zerolog.Logger
	Responder zerolog.Logger
	Storage   zerolog.Logger
)

const timeFormat = "15:04:05"

func init() {
	Logger = NewConsoleLogger(os.Stderr, "info")
	initComponentLoggers()
}

// Init configures the global logger and rebuilds the component loggers.
// When file is non-empty, records are also appended to it as JSON.
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = consoleWriter(os.Stderr)
	}

	w := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		w = zerolog.MultiLevelWriter(console, f)
	}

	Logger = newLogger(w, level)
	initComponentLoggers()
	return nil
}

// NewConsoleLogger creates a human-readable logger writing to w.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: timeFormat,
		NoColor:    !isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ValidLevel reports whether level is one Init understands.
func ValidLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// Discard silences all loggers. Tests call it to keep output clean.
func Discard() {
	Logger = zerolog.Nop()
	initComponentLoggers()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func initComponentLoggers() {
	Wallet = WithComponent("wallet")
	Ledger = WithComponent("ledger")
	Poller = WithComponent("poller")
	Stamp = WithComponent("stamp")
	Upload = WithComponent("upload")
	Archive = WithComponent("archive")
	RPC = WithComponent("rpc")
	Node = WithComponent("node")
	Responder = WithComponent("responder")
	Storage = WithComponent("storage")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithRun returns a logger tagged with a run id, used to correlate the
// two legs of one stamp run.
func WithRun(base zerolog.Logger, runID string) zerolog.Logger {
	return base.With().Str("run", runID).Logger()
}
