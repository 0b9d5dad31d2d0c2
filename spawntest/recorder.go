package spawntest

import (
	"sync"

	"github.com/ferrell/spawn"
)

// Event is one recorded session notification.
type Event struct {
	Kind   string // "start", "data", "stderr", "error", "end", "complete"
	Err    error
	Data   []byte // raw chunk for "data"
	Line   string // line for "stderr"
	Stdout string // final snapshot for "error", "end", "complete"
	Stderr string
}

// EventRecorder captures every notification a session emits, in order.
// Wire it into a session with Options.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Options returns the session options that route all notifications into r.
func (r *EventRecorder) Options() []spawn.Option {
	return []spawn.Option{
		spawn.OnStart(func(string, []string) {
			r.record(Event{Kind: "start"})
		}),
		spawn.OnData(func(chunk []byte) {
			r.record(Event{Kind: "data", Data: chunk})
		}),
		spawn.OnStderrLine(func(line string) {
			r.record(Event{Kind: "stderr", Line: line})
		}),
		spawn.OnError(func(err error, stdout, stderr string) {
			r.record(Event{Kind: "error", Err: err, Stdout: stdout, Stderr: stderr})
		}),
		spawn.OnEnd(func(stdout, stderr string) {
			r.record(Event{Kind: "end", Stdout: stdout, Stderr: stderr})
		}),
		spawn.OnComplete(func(err error, stdout, stderr string) {
			r.record(Event{Kind: "complete", Err: err, Stdout: stdout, Stderr: stderr})
		}),
	}
}

// Events returns a copy of everything recorded so far.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)

	return out
}

// Count returns how many events of kind were recorded.
func (r *EventRecorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// Last returns the most recent event of kind, or a zero Event and false.
func (r *EventRecorder) Last(kind string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}

	return Event{}, false
}

// StderrLines returns the recorded live stderr lines, in order.
func (r *EventRecorder) StderrLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lines []string

	for _, e := range r.events {
		if e.Kind == "stderr" {
			lines = append(lines, e.Line)
		}
	}

	return lines
}

func (r *EventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, e)
}
