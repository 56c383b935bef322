package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
// Any ConfigError returned while loading the rc file aborts the run.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// IsConfigError reports whether err or anything it wraps is a ConfigError.
func IsConfigError(err error) bool {
	var ce ConfigError
	return errors.As(err, &ce)
}

// CommandError represents a failed invocation of the secrets backend CLI.
// Stderr carries the backend's own message verbatim.
type CommandError struct {
	Command    string
	ExitCode   int
	Stderr     string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// LookupError is a failed field resolution for one (account, vault, item, field) tuple.
type LookupError struct {
	Item  string
	Field string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("lookup of item '%s' failed: %v", e.Item, e.Err)
	}
	return fmt.Sprintf("lookup of field '%s' in item '%s' failed: %v", e.Field, e.Item, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// DocumentError is a failed raw document fetch.
type DocumentError struct {
	Item string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document '%s' could not be fetched: %v", e.Item, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// WriteError is a failed write of a destination file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write '%s': %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// TemplateReadError is an unreadable template source.
type TemplateReadError struct {
	Path string
	Err  error
}

func (e *TemplateReadError) Error() string {
	return fmt.Sprintf("failed to read template '%s': %v", e.Path, e.Err)
}

func (e *TemplateReadError) Unwrap() error { return e.Err }

// ErrFieldNotFound is wrapped by lookups whose item has no field with the requested label.
var ErrFieldNotFound = errors.New("field not found")

// ErrMissingItem is returned when a lookup has no item name or UUID to query.
var ErrMissingItem = errors.New("item name or UUID is missing")

// BackendSuggestion returns a hint for common 1Password CLI failures, or "".
func BackendSuggestion(stderr string) string {
	s := strings.ToLower(stderr)

	switch {
	case strings.Contains(s, "not currently signed in"), strings.Contains(s, "not signed in"):
		return "Run 'op signin' to authenticate with 1Password"
	case strings.Contains(s, "session expired"):
		return "Your 1Password session has expired. Run 'op signin' again"
	case strings.Contains(s, "executable file not found"), strings.Contains(s, "command not found"):
		return "Install 1Password CLI: https://developer.1password.com/docs/cli/get-started/"
	case strings.Contains(s, "isn't an item"), strings.Contains(s, "not found"):
		return "Verify the item exists. Use 'op item list' to see available items"
	case strings.Contains(s, "more than one account"):
		return "Set 'account' on the item to pick one of your signed-in accounts"
	}

	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	if IsConfigError(err) {
		return err
	}
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return err
	}

	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}
	errStr := rootErr.Error()

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
