package logging

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretRedaction(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "secret is redacted", input: "my-secret-password"},
		{name: "empty secret is still redacted", input: ""},
		{name: "complex secret is redacted", input: "password123!@#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "[REDACTED]", Secret(tt.input).String())
			assert.Equal(t, "[REDACTED]", Secret(tt.input).GoString())
			assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", Secret(tt.input)))
		})
	}
}

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Info("info %s", "message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.Debug("hidden debug message")

	out := buf.String()
	assert.Contains(t, out, "✓ info message\n")
	assert.Contains(t, out, "⚠ warn message\n")
	assert.Contains(t, out, "✗ error message\n")
	assert.NotContains(t, out, "hidden debug message")
}

func TestLoggerDebugRedactsSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, true, true)

	logger.Debug("resolved value %s", Secret("s3cr3t-value"))

	assert.Contains(t, buf.String(), "[DEBUG] resolved value [REDACTED]")
	assert.NotContains(t, buf.String(), "s3cr3t-value")
}

func TestLoggerColorDisabledForNonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, false)
	logger.Info("plain")

	assert.Equal(t, "✓ plain\n", buf.String())
}

func TestLoggerReporterTranscript(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	file := Step{Item: "tls-cert", Type: "file", Destination: "certs/tls.pem"}
	logger.Progress(file)
	logger.Success(file)

	tpl := Step{Item: "db-env", Type: "template", Source: "db.env.tpl", Destination: ".env"}
	logger.Progress(tpl)

	host := tpl
	host.Line, host.Vault, host.Secret, host.Field = 1, "Infra", "db", "host"
	logger.Progress(host)
	logger.Success(host)

	user := tpl
	user.Line, user.Account, user.Vault, user.Secret, user.Field = 2, "acme", "Infra", "creds", "user"
	logger.Progress(user)
	logger.Failure(user, errors.New("field 'user' not found"))

	logger.Failure(tpl, errors.New("1 of 2 placeholders failed"))

	want := "Processing tls-cert ... Done\n" +
		"Processing db-env (db.env.tpl) ...\n" +
		"\tLine: 1 -> Account: -, Vault: Infra, Item: db, Field: host ... Done\n" +
		"\tLine: 2 -> Account: acme, Vault: Infra, Item: creds, Field: user ... - Error: field 'user' not found\n" +
		"✗ db-env: 1 of 2 placeholders failed\n"
	assert.Equal(t, want, buf.String())
}

func TestLoggerClosesOpenLineBeforeMessages(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	logger.Progress(Step{Item: "doc", Type: "file"})
	logger.Warn("interrupted")

	assert.Equal(t, "Processing doc ... \n⚠ interrupted\n", buf.String())
}

func TestLoggerTemplateSuccessSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, false, true)

	tpl := Step{Item: "app", Type: "template", Source: "app.tpl", Destination: "app.conf"}
	logger.Progress(tpl)
	logger.Success(tpl)

	assert.Equal(t, "Processing app (app.tpl) ...\n✓ app written to app.conf\n", buf.String())
}
