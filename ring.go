package spawn

import (
	"strings"
	"sync"
)

// LineRing is a bounded, append-only line buffer. Incoming chunks are split
// into lines on any newline convention (CR, LF, CRLF); at most capacity
// completed lines are retained, oldest evicted first. Completed lines are
// emitted to registered observers as they form, so consumers can stream
// output without waiting for the process to finish.
//
// A chunk boundary may fall between the CR and LF of a CRLF pair; the ring
// buffers the current partial line (and a trailing CR) across appends so the
// reassembled text matches what the process wrote.
type LineRing struct {
	mu        sync.Mutex
	capacity  int
	lines     []string
	partial   strings.Builder
	pendingCR bool
	closed    bool
	observers []func(line string)
}

// NewLineRing creates a ring retaining at most capacity completed lines.
// A capacity of zero or less means unlimited.
func NewLineRing(capacity int) *LineRing {
	return &LineRing{capacity: capacity}
}

// Append splits chunk into lines and emits every completed line.
// No-op once the ring is closed or if chunk is empty.
func (r *LineRing) Append(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || len(chunk) == 0 {
		return
	}

	text := string(chunk)

	// A CR at the end of the previous chunk already terminated a line;
	// swallow the LF half of a split CRLF.
	if r.pendingCR {
		r.pendingCR = false

		if text[0] == '\n' {
			text = text[1:]
		}
	}

	if text == "" {
		return
	}

	if text[len(text)-1] == '\r' {
		r.pendingCR = true
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	segments := strings.Split(text, "\n")

	for _, seg := range segments[:len(segments)-1] {
		r.partial.WriteString(seg)
		r.emitLocked(r.partial.String())
		r.partial.Reset()
	}

	r.partial.WriteString(segments[len(segments)-1])
}

// Close flushes any pending partial line as a final line and marks the ring
// closed. Idempotent; no further appends are accepted.
func (r *LineRing) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}

	if r.partial.Len() > 0 {
		r.emitLocked(r.partial.String())
		r.partial.Reset()
	}

	r.closed = true
}

// Content returns all retained lines plus any still-pending partial line,
// newline-joined, in original order. Safe to call before or after Close.
func (r *LineRing) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.partial.Len() == 0 {
		return strings.Join(r.lines, "\n")
	}

	if len(r.lines) == 0 {
		return r.partial.String()
	}

	return strings.Join(r.lines, "\n") + "\n" + r.partial.String()
}

// Lines returns a copy of the retained completed lines.
func (r *LineRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)

	return out
}

// Len returns the number of retained completed lines.
func (r *LineRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.lines)
}

// Closed reports whether Close has been called.
func (r *LineRing) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// Observe immediately replays every currently retained line to fn, then
// subscribes fn to future emissions (including the final line produced by
// Close). A line is never delivered to the same observer twice.
func (r *LineRing) Observe(fn func(line string)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range r.lines {
		fn(line)
	}

	r.observers = append(r.observers, fn)
}

// emitLocked delivers a completed line to observers, appends it to the
// retained sequence and evicts the oldest lines beyond capacity.
// Caller holds r.mu.
func (r *LineRing) emitLocked(line string) {
	for _, fn := range r.observers {
		fn(line)
	}

	r.lines = append(r.lines, line)

	if r.capacity > 0 && len(r.lines) > r.capacity {
		r.lines = r.lines[len(r.lines)-r.capacity:]
	}
}
