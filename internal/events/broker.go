// Package events implements an in-process pub/sub broker for library change
// and playback events.
package events

import (
	"sync/atomic"
	"time"
)

// Event types published by the broker.
const (
	TypeSpecCreated    = "spec.created"
	TypeSpecUpdated    = "spec.updated"
	TypeSpecDeleted    = "spec.deleted"
	TypeLibraryUpdated = "library.updated"
	TypeStepChanged    = "step.changed"
)

// Event is a broadcast message. Data depends on Type: spec events carry a
// SpecChange, step events a StepChange, library.updated carries nil.
type Event struct {
	Type string
	Data any
}

// SpecChange describes a library file change.
type SpecChange struct {
	Path string
}

// StepChange describes a sequencer position change, including the rendered
// diagram text for that step.
type StepChange struct {
	SpecID string
	Index  int
	Total  int
	Title  string
	Text   string
}

type specEventReq struct {
	kind string
	path string
}

// Broker fans events out to subscribers.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable
// state (clients + library-refresh throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	libraryMin time.Duration

	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	specEventCh   chan specEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. libraryThrottle bounds how often a
// library.updated event follows spec changes; consumers doing a full reload
// subscribe to it instead of every per-file event.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}

	b := &Broker{
		libraryMin:    libraryThrottle,
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		specEventCh:   make(chan specEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan Event]struct{})
	var lastLibrary time.Time

	broadcast := func(event Event) {
		for ch := range clients {
			select {
			case ch <- event:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.specEventCh:
			data := SpecChange{Path: req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeSpecCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeSpecUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeSpecDeleted, Data: data})
			}

			now := time.Now()
			if now.Sub(lastLibrary) >= b.libraryMin {
				lastLibrary = now
				broadcast(Event{Type: TypeLibraryUpdated})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSpecEvent publishes a spec change ("created", "updated", "deleted")
// and a throttled library.updated event.
func (b *Broker) PublishSpecEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.specEventCh <- specEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// PublishStep publishes a sequencer position change.
func (b *Broker) PublishStep(sc StepChange) {
	b.Publish(Event{Type: TypeStepChanged, Data: sc})
}
