package errors_test

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/opsync/internal/errors"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "op exited with status 1",
		Suggestion: "Run 'op signin'",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "op exited with status 1")
	assert.Contains(t, errMsg, "Run 'op signin'")
}

func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "items[2].source",
		Value:      "",
		Message:    "template items require a source",
		Suggestion: "Point 'source' at the template file",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "items[2].source")
	assert.Contains(t, errMsg, "template items require a source")
	assert.Contains(t, errMsg, "Point 'source' at the template file")
}

func TestIsConfigError(t *testing.T) {
	t.Parallel()

	base := errors.ConfigError{Message: "configuration file not found"}
	assert.True(t, errors.IsConfigError(base))
	assert.True(t, errors.IsConfigError(fmt.Errorf("load: %w", base)))
	assert.False(t, errors.IsConfigError(stderrors.New("plain")))
	assert.False(t, errors.IsConfigError(nil))
}

func TestCommandErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.CommandError{
		Command:    "op item get db",
		ExitCode:   1,
		Stderr:     `[ERROR] "db" isn't an item`,
		Suggestion: "Verify the item exists",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "op item get db")
	assert.Contains(t, errMsg, "exit code: 1")
	assert.Contains(t, errMsg, `"db" isn't an item`)
	assert.Contains(t, errMsg, "Verify the item exists")
}

func TestDomainErrorsUnwrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("boom")

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"lookup with field", &errors.LookupError{Item: "db", Field: "host", Err: cause}, "field 'host' in item 'db'"},
		{"lookup without field", &errors.LookupError{Item: "db", Err: cause}, "item 'db'"},
		{"document", &errors.DocumentError{Item: "tls-cert", Err: cause}, "document 'tls-cert'"},
		{"write", &errors.WriteError{Path: "out/.env", Err: cause}, "out/.env"},
		{"template read", &errors.TemplateReadError{Path: "tpl/.env.tpl", Err: cause}, "tpl/.env.tpl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestBackendSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stderr string
		want   string
	}{
		{"[ERROR] You are not currently signed in.", "op signin"},
		{"[ERROR] session expired, sign in to create a new session", "expired"},
		{`[ERROR] "db" isn't an item. Specify the item with its UUID`, "op item list"},
		{`exec: "op": executable file not found in $PATH`, "Install 1Password CLI"},
		{"[ERROR] multiple accounts found: more than one account is signed in", "account"},
		{"something unexpected", ""},
	}

	for _, tt := range tests {
		got := errors.BackendSuggestion(tt.stderr)
		if tt.want == "" {
			assert.Empty(t, got, tt.stderr)
			continue
		}
		assert.Contains(t, got, tt.want, tt.stderr)
	}
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	cfgErr := errors.ConfigError{Message: "bad"}
	assert.Equal(t, cfgErr, errors.SimplifyError(cfgErr))

	notFound := &errors.WriteError{Path: "/nope/out", Err: fs.ErrNotExist}
	simplified := errors.SimplifyError(fmt.Errorf("wrap: %w", &errors.WriteError{Path: "/nope/out", Err: stderrors.New("open /nope/out: no such file or directory")}))
	var ue errors.UserError
	assert.ErrorAs(t, simplified, &ue)
	assert.Equal(t, "File or directory not found", ue.Message)

	// fs.ErrNotExist renders as "file does not exist" and is left alone.
	assert.Equal(t, notFound, errors.SimplifyError(notFound))
}
