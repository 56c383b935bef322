// Package template renders template files whose {{vault.item.field}}
// placeholders are filled in from 1Password.
//
// Every placeholder is looked up on its own, even when the same token appears
// again. A destination is only written when every placeholder resolved; a
// failure does not stop the remaining lookups so one run reports every
// problem in the template.
package template

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/systmms/opsync/internal/config"
	dserrors "github.com/systmms/opsync/internal/errors"
	"github.com/systmms/opsync/internal/logging"
	"github.com/systmms/opsync/internal/onepassword"
	"github.com/systmms/opsync/internal/secure"
)

// Resolver looks up a single field value.
type Resolver interface {
	Value(ctx context.Context, scope onepassword.Scope, field string) (string, error)
}

// Engine renders template work items.
type Engine struct {
	resolver Resolver
	reporter logging.Reporter
}

// New creates an Engine that resolves through resolver and reports each
// lookup to reporter as it happens.
func New(resolver Resolver, reporter logging.Reporter) *Engine {
	return &Engine{resolver: resolver, reporter: reporter}
}

// Lookup is a placeholder together with the scope it resolves against.
type Lookup struct {
	Line        int // 1-based
	Placeholder Placeholder
	Scope       onepassword.Scope
}

// Failure records a placeholder that could not be resolved.
type Failure struct {
	Lookup
	Err error
}

// Result summarizes one render.
type Result struct {
	Lookups  int
	Failures []Failure
	Written  bool
}

// IncompleteError is returned when at least one placeholder failed and the
// destination was therefore left untouched.
type IncompleteError struct {
	Destination string
	Failed      int
	Total       int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%d of %d placeholders could not be resolved, %s was not written",
		e.Failed, e.Total, e.Destination)
}

// Render resolves every placeholder of item.Source and writes the result to
// item.Destination when all of them succeeded.
func (e *Engine) Render(ctx context.Context, item config.WorkItem) (Result, error) {
	var res Result

	lines, err := readLines(item.Source)
	if err != nil {
		return res, err
	}

	var out strings.Builder
	for i, line := range lines {
		out.WriteString(e.renderLine(ctx, item, i+1, line, &res))
	}

	if len(res.Failures) > 0 {
		return res, &IncompleteError{
			Destination: item.Destination,
			Failed:      len(res.Failures),
			Total:       res.Lookups,
		}
	}

	if err := secure.WriteFile(item.Destination, []byte(out.String()), item.Perm()); err != nil {
		return res, &dserrors.WriteError{Path: item.Destination, Err: err}
	}
	res.Written = true
	return res, nil
}

// renderLine substitutes the placeholders of one line by their recorded spans.
// Unresolved tokens are kept as written.
func (e *Engine) renderLine(ctx context.Context, item config.WorkItem, n int, line string, res *Result) string {
	placeholders := Scan(line)
	if len(placeholders) == 0 {
		return line
	}

	var b strings.Builder
	last := 0
	for _, p := range placeholders {
		res.Lookups++
		lookup := Lookup{Line: n, Placeholder: p, Scope: p.Scope(item)}
		step := lookupStep(item, lookup)

		e.reporter.Progress(step)
		value, err := e.resolver.Value(ctx, lookup.Scope, p.Field)

		b.WriteString(line[last:p.Start])
		if err != nil {
			e.reporter.Failure(step, err)
			res.Failures = append(res.Failures, Failure{Lookup: lookup, Err: err})
			b.WriteString(p.Text)
		} else {
			e.reporter.Success(step)
			b.WriteString(value)
		}
		last = p.End
	}
	b.WriteString(line[last:])

	return b.String()
}

// Plan lists the lookups Render would perform, without resolving anything.
func Plan(item config.WorkItem) ([]Lookup, error) {
	lines, err := readLines(item.Source)
	if err != nil {
		return nil, err
	}

	var lookups []Lookup
	for i, line := range lines {
		for _, p := range Scan(line) {
			lookups = append(lookups, Lookup{Line: i + 1, Placeholder: p, Scope: p.Scope(item)})
		}
	}
	return lookups, nil
}

// newlines normalizes "\r\n" and lone "\r" terminators to "\n".
var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// readLines returns the template split after each newline, terminators kept.
// Line endings are normalized, so rendered files always use "\n".
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &dserrors.TemplateReadError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, nil
	}

	lines := strings.SplitAfter(newlines.Replace(string(data)), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}

func lookupStep(item config.WorkItem, l Lookup) logging.Step {
	return logging.Step{
		Item:        item.Name,
		Type:        item.Type,
		Source:      item.Source,
		Destination: item.Destination,
		Line:        l.Line,
		Account:     l.Scope.Account,
		Vault:       l.Scope.Vault,
		Secret:      l.Scope.Item,
		Field:       l.Placeholder.Field,
	}
}
