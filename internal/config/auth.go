package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	dserrors "github.com/systmms/opsync/internal/errors"
)

// TokenEnv is the variable the 1Password CLI reads a service account token from.
const TokenEnv = "OP_SERVICE_ACCOUNT_TOKEN"

// Auth configures how the 1Password CLI is authenticated.
type Auth struct {
	Keyring *KeyringRef `yaml:"keyring,omitempty"`
}

// KeyringRef names an OS keyring entry that holds a service account token.
type KeyringRef struct {
	Service string `yaml:"service"`
	User    string `yaml:"user"`
}

// CommandEnv returns the extra environment the `op` invocations need.
// Without an auth block the CLI's own session handling is used.
func (d *Definition) CommandEnv() ([]string, error) {
	if d.Auth == nil || d.Auth.Keyring == nil {
		return nil, nil
	}

	ref := d.Auth.Keyring
	token, err := keyring.Get(ref.Service, ref.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, dserrors.ConfigError{
				Field:      "auth.keyring",
				Value:      ref.Service + "/" + ref.User,
				Message:    "no service account token stored in the OS keyring",
				Suggestion: "Store the token with your keyring tool or remove the auth block to use 'op signin'",
			}
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read service account token from the OS keyring",
			Details:    err.Error(),
			Suggestion: "Make sure a keyring daemon (Keychain, Secret Service, Credential Manager) is available",
			Err:        err,
		}
	}

	return []string{fmt.Sprintf("%s=%s", TokenEnv, token)}, nil
}
