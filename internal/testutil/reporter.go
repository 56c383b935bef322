package testutil

import (
	"fmt"
	"sync"

	"github.com/systmms/opsync/internal/logging"
)

// Event kinds recorded by Recorder.
const (
	EventInfo     = "info"
	EventWarn     = "warn"
	EventProgress = "progress"
	EventSuccess  = "success"
	EventFailure  = "failure"
)

// Event is one captured Reporter call.
type Event struct {
	Kind    string
	Step    logging.Step
	Err     error
	Message string
}

// Recorder is a Reporter that keeps every call for later assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ logging.Reporter = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Info(format string, args ...interface{}) {
	r.add(Event{Kind: EventInfo, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Warn(format string, args ...interface{}) {
	r.add(Event{Kind: EventWarn, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Progress(step logging.Step) {
	r.add(Event{Kind: EventProgress, Step: step})
}

func (r *Recorder) Success(step logging.Step) {
	r.add(Event{Kind: EventSuccess, Step: step})
}

func (r *Recorder) Failure(step logging.Step, err error) {
	r.add(Event{Kind: EventFailure, Step: step, Err: err})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Lookups returns the outcome events (success or failure) of placeholder lookups.
func (r *Recorder) Lookups() []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Step.IsLookup() && (e.Kind == EventSuccess || e.Kind == EventFailure) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
