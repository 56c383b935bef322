package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	dserrors "github.com/systmms/opsync/internal/errors"
)

const rcSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["items"],
  "properties": {
    "auth": {
      "type": "object",
      "properties": {
        "keyring": {
          "type": "object",
          "required": ["service", "user"],
          "properties": {
            "service": {"type": "string", "minLength": 1},
            "user": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "type", "destination"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1},
          "account": {"type": "string"},
          "vault": {"type": "string"},
          "item": {"type": "string"},
          "source": {"type": "string"},
          "destination": {"type": "string", "minLength": 1},
          "mode": {"type": "string", "pattern": "^0?[0-7]{3}$"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(rcSchema)

// validateSchema checks the decoded YAML document against rcSchema.
func validateSchema(doc interface{}) error {
	if doc == nil {
		return dserrors.ConfigError{
			Message:    "configuration file is empty",
			Suggestion: "Declare the work list under an 'items' key",
		}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("configuration could not be validated: %v", err),
			Suggestion: "Mapping keys must be strings",
		}
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	first := errs[0]
	msg := first.Description()
	if len(errs) > 1 {
		rest := make([]string, 0, len(errs)-1)
		for _, e := range errs[1:] {
			rest = append(rest, fmt.Sprintf("%s: %s", fieldPath(e.Field()), e.Description()))
		}
		msg += fmt.Sprintf(" (also: %s)", strings.Join(rest, "; "))
	}

	return dserrors.ConfigError{
		Field:      fieldPath(first.Field()),
		Message:    msg,
		Suggestion: "Each entry under 'items' needs name, type and destination; modes are quoted octal strings like \"0600\"",
	}
}

// fieldPath turns "items.0.name" into "items[0].name".
func fieldPath(field string) string {
	if field == "(root)" {
		return ""
	}
	parts := strings.Split(field, ".")
	var b strings.Builder
	for i, p := range parts {
		if isIndex(p) {
			fmt.Fprintf(&b, "[%s]", p)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
