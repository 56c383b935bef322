package commands

import (
	"strings"

	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/logging"
	"github.com/systmms/opsync/internal/onepassword"
	"github.com/systmms/opsync/pkg/exec"
)

// newClient returns a 1Password client for the loaded definition. An injected
// executor wins; otherwise the keyring token, if configured, is exported to
// every `op` invocation.
func newClient(cfg *config.Config) (*onepassword.Client, error) {
	if cfg.Executor != nil {
		return onepassword.New(cfg.Executor), nil
	}

	env, err := cfg.Definition.CommandEnv()
	if err != nil {
		return nil, err
	}
	for _, kv := range env {
		name, value, _ := strings.Cut(kv, "=")
		cfg.Logger.Debug("Exporting %s=%s to op", name, logging.Secret(value))
	}

	return onepassword.New(exec.WithEnv(env...)), nil
}

// reporter returns the configured run reporter, defaulting to the terminal logger.
func reporter(cfg *config.Config) logging.Reporter {
	if cfg.Reporter != nil {
		return cfg.Reporter
	}
	return cfg.Logger
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
