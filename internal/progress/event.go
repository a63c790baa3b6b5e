// Package progress carries lifecycle progress from the core to whatever
// presents it. The core only emits Events; rendering lives in Bar.
package progress

import (
	"io"
	"sync"
)

// Phase identifies the step an addon cycle is in.
type Phase string

const (
	PhaseResolving   Phase = "resolving"
	PhaseDownloading Phase = "downloading"
	PhaseInstalling  Phase = "installing"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
	PhaseSkipped     Phase = "skipped"
)

// Terminal reports whether no further events follow for the same subject.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed || p == PhaseSkipped
}

// Event is a single progress notification.
type Event struct {
	Subject    string // addon identifier, or "self" for self-update
	Phase      Phase
	Percent    int // 0-100, non-decreasing within one download
	BytesDone  int64
	BytesTotal int64 // <= 0 when the server did not announce a length
	Message    string
	Err        error // set on PhaseFailed
}

// Reporter receives progress events. Implementations must not block for long;
// the downloader calls it inline from the copy loop.
type Reporter func(Event)

// Discard is a Reporter that drops every event.
func Discard(Event) {}

// Or returns r, or Discard when r is nil.
func Or(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}

// Channel adapts a Reporter to a channel consumer. Intermediate events are
// dropped when the buffer is full; terminal events block until delivered.
func Channel(ch chan<- Event) Reporter {
	return func(ev Event) {
		if ev.Phase.Terminal() {
			ch <- ev
			return
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Tracker is an io.Writer that counts bytes flowing through it and reports
// percentage changes. Percent never decreases and 100 is only reported by
// the final Completed event.
type Tracker struct {
	subject string
	total   int64
	report  Reporter

	mu      sync.Mutex
	written int64
	percent int
}

// NewTracker creates a Tracker for a transfer of total bytes (<= 0 if unknown).
func NewTracker(subject string, total int64, report Reporter) *Tracker {
	return &Tracker{
		subject: subject,
		total:   total,
		report:  Or(report),
	}
}

// Write implements io.Writer.
func (t *Tracker) Write(p []byte) (int, error) {
	n := len(p)
	t.mu.Lock()
	t.written += int64(n)
	pct := t.percent
	if t.total > 0 {
		pct = int(t.written * 100 / t.total)
		if pct > 99 {
			pct = 99
		}
	}
	changed := pct > t.percent || t.total <= 0
	if pct > t.percent {
		t.percent = pct
	}
	ev := Event{
		Subject:    t.subject,
		Phase:      PhaseDownloading,
		Percent:    t.percent,
		BytesDone:  t.written,
		BytesTotal: t.total,
	}
	t.mu.Unlock()

	if changed {
		t.report(ev)
	}
	return n, nil
}

// Written returns the number of bytes seen so far.
func (t *Tracker) Written() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

var _ io.Writer = (*Tracker)(nil)
