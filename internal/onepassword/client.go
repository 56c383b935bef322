// Package onepassword reads item fields and documents through the 1Password CLI.
//
// Every call is a single `op` invocation. Nothing is cached and nothing is
// retried; a failed invocation is a terminal failure for that lookup.
package onepassword

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"

	dserrors "github.com/systmms/opsync/internal/errors"
	"github.com/systmms/opsync/pkg/exec"
)

// DefaultBinary is the 1Password CLI executable name.
const DefaultBinary = "op"

// Scope addresses an item. Account and Vault are optional and only passed
// to the CLI when set.
type Scope struct {
	Account string
	Vault   string
	Item    string
}

func (s Scope) flags() []string {
	var args []string
	if s.Vault != "" {
		args = append(args, "--vault", s.Vault)
	}
	if s.Account != "" {
		args = append(args, "--account", s.Account)
	}
	return args
}

// Client talks to the 1Password CLI through a CommandExecutor.
type Client struct {
	executor exec.CommandExecutor
	binary   string
}

// New creates a client. A nil executor runs the real `op` binary.
func New(executor exec.CommandExecutor) *Client {
	if executor == nil {
		executor = exec.DefaultExecutor()
	}
	return &Client{executor: executor, binary: DefaultBinary}
}

// Value returns the value of the field labelled field in the scoped item.
// Labels are matched case-sensitively and the first match wins; a match
// without a value key is reported as ErrFieldNotFound.
func (c *Client) Value(ctx context.Context, scope Scope, field string) (string, error) {
	if scope.Item == "" {
		return "", &dserrors.LookupError{Field: field, Err: dserrors.ErrMissingItem}
	}

	args := append([]string{"item", "get", scope.Item, "--format", "json"}, scope.flags()...)
	output, err := c.run(ctx, args)
	if err != nil {
		return "", &dserrors.LookupError{Item: scope.Item, Field: field, Err: err}
	}

	var item Item
	if err := json.Unmarshal(output, &item); err != nil {
		return "", &dserrors.LookupError{
			Item:  scope.Item,
			Field: field,
			Err:   fmt.Errorf("failed to decode item: %w", err),
		}
	}

	for _, f := range item.Fields {
		if f.Label != field {
			continue
		}
		if f.Value == nil {
			break
		}
		return *f.Value, nil
	}

	return "", &dserrors.LookupError{Item: scope.Item, Field: field, Err: dserrors.ErrFieldNotFound}
}

// Document downloads the document stored in the scoped item.
func (c *Client) Document(ctx context.Context, scope Scope) ([]byte, error) {
	if scope.Item == "" {
		return nil, &dserrors.DocumentError{Err: dserrors.ErrMissingItem}
	}

	args := append([]string{"document", "get", scope.Item}, scope.flags()...)
	output, err := c.run(ctx, args)
	if err != nil {
		return nil, &dserrors.DocumentError{Item: scope.Item, Err: err}
	}
	if len(output) == 0 {
		return nil, &dserrors.DocumentError{Item: scope.Item, Err: errors.New("document is empty")}
	}

	return output, nil
}

// Version returns the installed CLI version.
func (c *Client) Version(ctx context.Context) (string, error) {
	output, err := c.run(ctx, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// WhoAmI returns the signed-in account as reported by the CLI. It fails when
// no session or service account token is available.
func (c *Client) WhoAmI(ctx context.Context, account string) (Account, error) {
	args := []string{"whoami", "--format", "json"}
	if account != "" {
		args = append(args, "--account", account)
	}

	output, err := c.run(ctx, args)
	if err != nil {
		return Account{}, err
	}

	var acct Account
	if err := json.Unmarshal(output, &acct); err != nil {
		return Account{}, fmt.Errorf("failed to decode account: %w", err)
	}
	return acct, nil
}

// run invokes the CLI and turns a failure into a CommandError carrying the
// CLI's stderr verbatim.
func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	stdout, stderr, err := c.executor.Execute(ctx, c.binary, args...)
	if err == nil {
		return stdout, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		msg = err.Error()
	}

	cmdErr := dserrors.CommandError{
		Command:    c.binary + " " + strings.Join(args, " "),
		Stderr:     msg,
		Suggestion: dserrors.BackendSuggestion(msg),
	}
	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	return nil, cmdErr
}

// Item is the subset of `op item get --format json` output opsync reads.
type Item struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Vault    VaultRef `json:"vault"`
	Fields   []Field  `json:"fields"`
}

// VaultRef identifies the vault an item lives in.
type VaultRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field is one labelled value of an item.
type Field struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Label string  `json:"label"`
	Value *string `json:"value"` // nil when the field carries no value

}

// Account is the subset of `op whoami --format json` output opsync reads.
type Account struct {
	URL         string `json:"url"`
	Email       string `json:"email"`
	UserType    string `json:"user_type"`
	AccountUUID string `json:"account_uuid"`
}
