package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

// Logger provides colored console logging with redaction support.
// It also implements Reporter and renders the sync transcript.
type Logger struct {
	out     io.Writer
	debug   bool
	noColor bool

	// open is set while a progress line is waiting for its outcome.
	open bool
}

// New creates a new logger instance writing to stderr
func New(debug, noColor bool) *Logger {
	return NewWithWriter(os.Stderr, debug, noColor)
}

// NewWithWriter creates a logger writing to w. Color is also disabled when
// w is not a terminal or NO_COLOR is set.
func NewWithWriter(w io.Writer, debug, noColor bool) *Logger {
	if !noColor {
		noColor = !isTerminal(w) || os.Getenv("NO_COLOR") != ""
	}
	return &Logger{
		out:     w,
		debug:   debug,
		noColor: noColor,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("✓", colorGreen, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("⚠", colorYellow, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("✗", colorRed, fmt.Sprintf(format, args...))
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.line("[DEBUG]", colorCyan, fmt.Sprintf(format, args...))
}

func (l *Logger) line(marker, color, msg string) {
	l.closeOpen()
	fmt.Fprintf(l.out, "%s %s\n", l.paint(color, marker), msg)
}

// closeOpen terminates a dangling progress line before unrelated output.
func (l *Logger) closeOpen() {
	if l.open {
		fmt.Fprintln(l.out)
		l.open = false
	}
}

func (l *Logger) paint(codes, s string) string {
	if l.noColor || s == "" {
		return s
	}
	return codes + s + colorReset
}

// Secret represents a value that should be redacted in logs
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}
