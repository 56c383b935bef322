package config

import (
	"fmt"
	"os"
	"strconv"

	dserrors "github.com/systmms/opsync/internal/errors"
	"github.com/systmms/opsync/internal/logging"
	"github.com/systmms/opsync/pkg/exec"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the rc file looked up in the working directory.
const DefaultPath = "1passwordrc.yml"

// DefaultMode is applied to destinations that do not set a mode.
const DefaultMode os.FileMode = 0o600

// Work item types.
const (
	TypeFile     = "file"
	TypeTemplate = "template"
)

// Config holds the runtime configuration
type Config struct {
	Path        string
	Logger      *logging.Logger
	Reporter    logging.Reporter
	Strict      bool
	MetricsFile string
	Definition  *Definition

	// Executor runs `op`. When nil one is built from the definition's auth.
	Executor exec.CommandExecutor
}

// Definition represents the 1passwordrc.yml structure
type Definition struct {
	Auth  *Auth      `yaml:"auth,omitempty"`
	Items []WorkItem `yaml:"items"`
}

// WorkItem is one declared unit of work.
type WorkItem struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Account     string `yaml:"account,omitempty"`
	Vault       string `yaml:"vault,omitempty"`
	Item        string `yaml:"item,omitempty"`
	Source      string `yaml:"source,omitempty"`
	Destination string `yaml:"destination"`
	Mode        string `yaml:"mode,omitempty"`
}

// SecretItem returns the 1Password item the work item reads from. Templates
// fall back to the work item name.
func (w WorkItem) SecretItem() string {
	if w.Item == "" && w.Type == TypeTemplate {
		return w.Name
	}
	return w.Item
}

// Perm returns the permission bits for the destination file.
func (w WorkItem) Perm() os.FileMode {
	if w.Mode == "" {
		return DefaultMode
	}
	mode, err := strconv.ParseUint(w.Mode, 8, 32)
	if err != nil {
		return DefaultMode
	}
	return os.FileMode(mode).Perm()
}

// Known reports whether the work item has a type the runner can dispatch.
func (w WorkItem) Known() bool {
	return w.Type == TypeFile || w.Type == TypeTemplate
}

// Load reads and parses the rc file
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: fmt.Sprintf("Create %s in the current directory or pass --config", DefaultPath),
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        dserrors.ConfigError{Field: "path", Value: path, Message: err.Error()},
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}

	c.Definition = def
	return nil
}

// Parse decodes and validates rc file contents.
func Parse(data []byte) (*Definition, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("configuration does not match the expected structure: %v", err),
			Suggestion: "Each entry under 'items' needs name, type and destination",
		}
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Validate enforces the type-specific required keys.
func (d *Definition) Validate() error {
	for i, item := range d.Items {
		switch item.Type {
		case TypeFile:
			if item.Item == "" {
				return dserrors.ConfigError{
					Field:      fmt.Sprintf("items[%d].item", i),
					Value:      item.Name,
					Message:    "file items require an item name or UUID",
					Suggestion: "Set 'item' to the 1Password document to download",
				}
			}
		case TypeTemplate:
			if item.Source == "" {
				return dserrors.ConfigError{
					Field:      fmt.Sprintf("items[%d].source", i),
					Value:      item.Name,
					Message:    "template items require a source",
					Suggestion: "Set 'source' to the template file path",
				}
			}
		}
	}
	return nil
}
