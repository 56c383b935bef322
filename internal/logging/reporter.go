package logging

import (
	"fmt"
	"io"
	"strconv"
)

// Step identifies one reported unit of work: either a whole work item or a
// single placeholder lookup inside a template.
type Step struct {
	Item        string // work item name
	Type        string // work item type
	Source      string // template path, empty for file items
	Destination string

	// Lookup fields, set only for placeholder resolutions.
	Line    int
	Account string
	Vault   string
	Secret  string // 1Password item the lookup targets
	Field   string
}

// IsLookup reports whether the step is a placeholder resolution.
func (s Step) IsLookup() bool {
	return s.Field != ""
}

// groups reports whether lookups will be reported underneath this step.
func (s Step) groups() bool {
	return !s.IsLookup() && s.Source != ""
}

// Reporter receives progress and outcomes as they happen.
type Reporter interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})

	Progress(step Step)
	Success(step Step)
	Failure(step Step, err error)
}

var _ Reporter = (*Logger)(nil)

// Progress prints the start of a step. Item and lookup lines stay open until
// the outcome arrives; template headers are terminated immediately.
func (l *Logger) Progress(step Step) {
	l.closeOpen()

	switch {
	case step.IsLookup():
		fmt.Fprintf(l.out, "\tLine: %s -> Account: %s, Vault: %s, Item: %s, Field: %s ... ",
			l.paint(colorBold, strconv.Itoa(step.Line)),
			l.paint(colorBold, orDash(step.Account)),
			l.paint(colorBold, orDash(step.Vault)),
			l.paint(colorBold, step.Secret),
			l.paint(colorBold, step.Field))
		l.open = true
	case step.groups():
		fmt.Fprintf(l.out, "%s (%s) ...\n",
			l.paint(colorBold+colorBlue, "Processing "+step.Item),
			l.paint(colorBlue, step.Source))
	default:
		fmt.Fprintf(l.out, "Processing %s ... ", l.paint(colorBlue, step.Item))
		l.open = true
	}
}

// Success prints a positive outcome for step.
func (l *Logger) Success(step Step) {
	if l.open {
		fmt.Fprintln(l.out, l.paint(colorGreen, "Done"))
		l.open = false
		return
	}
	l.line("✓", colorGreen, fmt.Sprintf("%s written to %s", step.Item, step.Destination))
}

// Failure prints a negative outcome for step with the cause.
func (l *Logger) Failure(step Step, err error) {
	msg := "failed"
	if err != nil {
		msg = err.Error()
	}
	if l.open {
		fmt.Fprintf(l.out, "- %s: %s\n", l.paint(colorRed, "Error"), msg)
		l.open = false
		return
	}
	l.line("✗", colorRed, fmt.Sprintf("%s: %s", step.Item, msg))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Reporter formats accepted by NewReporter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewReporter builds the run transcript reporter for format on w. The
// transcript is the program's output, so callers pass stdout and keep the
// diagnostic Logger on stderr.
func NewReporter(format string, w io.Writer, debug, noColor bool) (Reporter, error) {
	switch format {
	case FormatText:
		return NewWithWriter(w, debug, noColor), nil
	case FormatJSON:
		return NewZapReporter(w, debug), nil
	}
	return nil, fmt.Errorf("invalid log format %q: must be %s or %s", format, FormatText, FormatJSON)
}
