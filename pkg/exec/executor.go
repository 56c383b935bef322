// Package exec provides abstractions for command execution.
// The 1Password client runs every lookup through a CommandExecutor so the
// `op` binary can be replaced by canned responses in tests.
package exec

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// CommandExecutor defines an interface for executing external commands.
type CommandExecutor interface {
	// Execute runs a command with the given context and arguments.
	// Returns stdout, stderr, and any error that occurred.
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor executes actual commands using os/exec.
type RealCommandExecutor struct {
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// Execute runs an actual command. Stdout is returned untouched so binary
// document contents survive the round trip.
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultExecutor returns the standard production executor.
func DefaultExecutor() CommandExecutor {
	return &RealCommandExecutor{}
}

// WithEnv returns a production executor that adds env to every invocation.
func WithEnv(env ...string) CommandExecutor {
	return &RealCommandExecutor{Env: env}
}
