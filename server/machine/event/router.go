package event

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrUnknownChunk = errors.New("event: unknown chunk endpoint")
)

// SendState captures the result of routing a message.
type SendState uint8

const (
	SendDelivered SendState = iota
	SendCoalesced
	SendDropped
)

type SendResult struct {
	State SendState
	Err   error
}

type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// Router maintains bounded inboxes for chunk queues and handles backpressure. Send may be called from any
// goroutine.
type Router struct {
	log     *slog.Logger
	metrics *Metrics

	mu        sync.Mutex
	endpoints map[ChunkID]*endpoint
}

type endpoint struct {
	inbox     chan Event
	hot       bool
	coalesced map[Key]Event
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
		endpoints: make(map[ChunkID]*endpoint),
	}
}

// Register attaches an inbox of the given size to the router for the chunk. The function returned removes
// the inbox again.
func (r *Router) Register(id ChunkID, size int) func() {
	if size <= 0 {
		size = 4096
	}
	ep := &endpoint{inbox: make(chan Event, size), coalesced: make(map[Key]Event)}
	r.mu.Lock()
	r.endpoints[id] = ep
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.endpoints[id] == ep {
				delete(r.endpoints, id)
			}
			r.mu.Unlock()
		})
	}
}

// Send attempts to deliver an event to the inbox of a chunk. If the inbox is full, the event is coalesced
// with earlier events sharing its key.
func (r *Router) Send(id ChunkID, ev Event) SendResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		r.metrics.IncBackpressure(id)
		return SendResult{State: SendDropped, Err: ErrUnknownChunk}
	}
	select {
	case ep.inbox <- ev:
		return SendResult{State: SendDelivered}
	default:
		ep.hot = true
		ep.coalesced[ev.Key()] = ev
		r.metrics.IncBackpressure(id)
		return SendResult{State: SendCoalesced}
	}
}

// Drain returns all events waiting for the chunk: first the inbox in arrival order, then coalesced events in
// deterministic order.
func (r *Router) Drain(id ChunkID) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.endpoints[id]
	if !ok {
		return nil
	}
	var events []Event
	for {
		select {
		case ev := <-ep.inbox:
			events = append(events, ev)
			continue
		default:
		}
		break
	}
	if len(ep.coalesced) == 0 {
		return events
	}
	coalesced := make([]Event, 0, len(ep.coalesced))
	for _, ev := range ep.coalesced {
		coalesced = append(coalesced, ev)
	}
	clear(ep.coalesced)
	sortEventsDeterministic(coalesced)
	return append(events, coalesced...)
}

// Pending returns the amount of events waiting in the inbox of a chunk.
func (r *Router) Pending(id ChunkID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.endpoints[id]; ok {
		return len(ep.inbox) + len(ep.coalesced)
	}
	return 0
}

// SnapshotHot returns the ids that have encountered backpressure since the last snapshot.
func (r *Router) SnapshotHot() []ChunkID {
	r.mu.Lock()
	defer r.mu.Unlock()

	hot := make([]ChunkID, 0, 8)
	for id, ep := range r.endpoints {
		if ep.hot {
			ep.hot = false
			hot = append(hot, id)
		}
	}
	return hot
}
