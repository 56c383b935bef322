package template

import (
	"strings"

	"github.com/systmms/opsync/internal/config"
	"github.com/systmms/opsync/internal/onepassword"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
	separator  = "."
)

// Placeholder is one {{...}} token on a template line.
//
// Components are right-aligned: the last is the field, the one before it the
// item, and everything before that the vault. Start and End are byte offsets
// of the whole token, delimiters included, within its line.
type Placeholder struct {
	Text  string
	Start int
	End   int

	Vault string
	Item  string
	Field string
}

// Scope resolves the lookup target: the placeholder's own vault and item win,
// otherwise the work item's vault and item (or name) apply. The account always
// comes from the work item.
func (p Placeholder) Scope(item config.WorkItem) onepassword.Scope {
	scope := onepassword.Scope{
		Account: item.Account,
		Vault:   item.Vault,
		Item:    item.SecretItem(),
	}
	if p.Vault != "" {
		scope.Vault = p.Vault
	}
	if p.Item != "" {
		scope.Item = p.Item
	}
	return scope
}

// Scan returns the placeholders of line from left to right. A token closes at
// the first "}}" after its "{{" and scanning resumes after it, so matches never
// overlap. Tokens with an empty component are not placeholders.
func Scan(line string) []Placeholder {
	var found []Placeholder

	pos := 0
	for pos < len(line) {
		open := strings.Index(line[pos:], openDelim)
		if open < 0 {
			break
		}
		start := pos + open

		inner := start + len(openDelim)
		closing := strings.Index(line[inner:], closeDelim)
		if closing < 0 {
			break
		}
		end := inner + closing + len(closeDelim)

		p, ok := parseComponents(line[inner : inner+closing])
		if !ok {
			pos = start + 1
			continue
		}
		p.Text, p.Start, p.End = line[start:end], start, end
		found = append(found, p)
		pos = end
	}

	return found
}

func parseComponents(body string) (Placeholder, bool) {
	if body == "" {
		return Placeholder{}, false
	}

	parts := strings.Split(body, separator)
	for _, part := range parts {
		if part == "" {
			return Placeholder{}, false
		}
	}

	n := len(parts)
	p := Placeholder{Field: parts[n-1]}
	if n >= 2 {
		p.Item = parts[n-2]
	}
	if n >= 3 {
		p.Vault = strings.Join(parts[:n-2], separator)
	}
	return p, true
}
