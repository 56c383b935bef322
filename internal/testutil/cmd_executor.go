// Package testutil provides testing utilities for opsync.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MockCommandExecutor provides a configurable mock for the `op` CLI.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps command patterns to their mock responses.
	// Key format: "command arg1 arg2" (space-separated command and args)
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching pattern is found.
	DefaultResponse *MockResponse

	// RecordedCalls stores all calls made to Execute for verification.
	RecordedCalls []RecordedCall

	// StrictMode causes Execute to fail if no matching response is found.
	StrictMode bool
}

// MockResponse defines the expected output for a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command string
	Args    []string
}

// Line returns the call as a single space-separated command line.
func (c RecordedCall) Line() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

// NewMockCommandExecutor creates a strict mock executor with empty responses.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses:     make(map[string]MockResponse),
		RecordedCalls: make([]RecordedCall, 0),
		StrictMode:    true,
	}
}

// Execute returns the mocked response for the given command. An exact key
// wins; otherwise the longest matching prefix pattern is used.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{
		Command: name,
		Args:    append([]string(nil), args...),
	})

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	key := buildKey(name, args)

	if resp, ok := m.Responses[key]; ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}

	patterns := make([]string, 0, len(m.Responses))
	for pattern := range m.Responses {
		if strings.HasPrefix(key, pattern) {
			patterns = append(patterns, pattern)
		}
	}
	if len(patterns) > 0 {
		sort.Slice(patterns, func(i, j int) bool { return len(patterns[i]) > len(patterns[j]) })
		resp := m.Responses[patterns[0]]
		return resp.Stdout, resp.Stderr, resp.Err
	}

	if m.DefaultResponse != nil {
		return m.DefaultResponse.Stdout, m.DefaultResponse.Stderr, m.DefaultResponse.Err
	}

	if m.StrictMode {
		return nil, []byte("mock: no response configured for command: " + key), fmt.Errorf("exit status 1")
	}

	return []byte{}, []byte{}, nil
}

func buildKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// AddResponse registers a mock response for a specific command pattern.
func (m *MockCommandExecutor) AddResponse(commandPattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[commandPattern] = response
}

// AddJSONResponse is a convenience method to add a JSON response.
func (m *MockCommandExecutor) AddJSONResponse(commandPattern string, jsonData string) {
	m.AddResponse(commandPattern, MockResponse{Stdout: []byte(jsonData)})
}

// AddErrorResponse adds a failing response whose stderr is errMsg.
func (m *MockCommandExecutor) AddErrorResponse(commandPattern string, errMsg string, exitCode int) {
	m.AddResponse(commandPattern, MockResponse{
		Stderr: []byte(errMsg),
		Err:    fmt.Errorf("exit status %d", exitCode),
	})
}

// Calls returns every recorded call as a command line, in order.
func (m *MockCommandExecutor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, 0, len(m.RecordedCalls))
	for _, call := range m.RecordedCalls {
		lines = append(lines, call.Line())
	}
	return lines
}

// CallCount returns the number of times Execute was called.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// OnePasswordMockResponses builds canned `op` outputs.
type OnePasswordMockResponses struct{}

// Item returns `op item get --format json` output with one field per label,
// in the order given as label/value pairs.
func (OnePasswordMockResponses) Item(title string, labelValues ...string) string {
	type field struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Label string `json:"label"`
		Value string `json:"value"`
	}
	item := struct {
		ID       string  `json:"id"`
		Title    string  `json:"title"`
		Category string  `json:"category"`
		Fields   []field `json:"fields"`
	}{
		ID:       "id-" + title,
		Title:    title,
		Category: "LOGIN",
		Fields:   []field{},
	}
	for i := 0; i+1 < len(labelValues); i += 2 {
		item.Fields = append(item.Fields, field{
			ID:    fmt.Sprintf("f%d", i/2),
			Type:  "CONCEALED",
			Label: labelValues[i],
			Value: labelValues[i+1],
		})
	}

	data, err := json.Marshal(item)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// NotFound returns the stderr `op` prints for an unknown item.
func (OnePasswordMockResponses) NotFound(item string) string {
	return fmt.Sprintf(`[ERROR] 2024/01/02 15:04:05 "%s" isn't an item. Specify the item with its UUID, name, or domain.`, item)
}

// WhoAmI returns `op whoami --format json` output.
func (OnePasswordMockResponses) WhoAmI(email string) string {
	return fmt.Sprintf(`{"url":"my.1password.com","email":%q,"user_type":"HUMAN","account_uuid":"ACCT123"}`, email)
}
