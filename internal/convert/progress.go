package convert

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// EventKind classifies progress events.
type EventKind int

const (
	EventPageStart EventKind = iota
	EventPageDone
	EventPageError
	EventCancelling
	EventFinished
	EventCancelled
	EventNoPages
)

// Event is a best-effort status notification from the page loop.
type Event struct {
	Kind    EventKind
	Page    int
	Total   int
	Message string
}

func (e Event) String() string {
	switch e.Kind {
	case EventPageStart:
		return fmt.Sprintf("Extracting page %d…", e.Page)
	case EventPageDone:
		return fmt.Sprintf("Extracted page %d", e.Page)
	case EventPageError:
		return fmt.Sprintf("Error on page %d: %s", e.Page, e.Message)
	case EventCancelling:
		return "Cancelling…"
	case EventFinished:
		return "Finished extraction"
	case EventCancelled:
		return "Extraction cancelled"
	case EventNoPages:
		return "No pages extracted"
	}
	return e.Message
}

// Terminal reports whether the event ends a run.
func (e Event) Terminal() bool {
	return e.Kind == EventFinished || e.Kind == EventCancelled || e.Kind == EventNoPages
}

// Progress is a bounded, lossy event channel. Publish never blocks: when the
// buffer is full the event is dropped. A nil *Progress discards everything.
type Progress struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
}

func NewProgress(size int) *Progress {
	if size <= 0 {
		size = 64
	}
	return &Progress{ch: make(chan Event, size)}
}

func (p *Progress) Publish(e Event) {
	if p == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- e:
	default:
		p.dropped.Add(1)
	}
}

// Events is drained by the control surface on its own schedule. A nil
// *Progress yields a closed channel.
func (p *Progress) Events() <-chan Event {
	if p == nil {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	return p.ch
}

// Close ends the stream. Later Publish calls are ignored.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}

func (p *Progress) Dropped() int64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}
