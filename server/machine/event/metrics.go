package event

import (
	"sync"
)

// Metrics tracks per-chunk counters for observability. A nil *Metrics is valid and records nothing.
type Metrics struct {
	mu sync.Mutex

	ops           map[ChunkID]uint64
	backpressure  map[ChunkID]uint64
	queue         map[ChunkID]int
	registrations map[ChunkID]uint64
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ops:           make(map[ChunkID]uint64),
		backpressure:  make(map[ChunkID]uint64),
		queue:         make(map[ChunkID]int),
		registrations: make(map[ChunkID]uint64),
	}
}

// AddOps increments the operations counter for a chunk.
func (m *Metrics) AddOps(id ChunkID, value uint64) {
	if m == nil || value == 0 {
		return
	}
	m.mu.Lock()
	m.ops[id] += value
	m.mu.Unlock()
}

// IncBackpressure increments the backpressure counter for a chunk.
func (m *Metrics) IncBackpressure(id ChunkID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.backpressure[id]++
	m.mu.Unlock()
}

// SetQueueSize stores the current queue size gauge for a chunk.
func (m *Metrics) SetQueueSize(id ChunkID, size int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.queue[id] = size
	m.mu.Unlock()
}

// IncRegistrations increments the handler registration counter for a chunk.
func (m *Metrics) IncRegistrations(id ChunkID) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.registrations[id]++
	m.mu.Unlock()
}

// Snapshot is a copy of the counters of a single chunk.
type Snapshot struct {
	Ops           uint64
	Backpressure  uint64
	QueueSize     int
	Registrations uint64
}

// Chunk returns a snapshot of the counters for a chunk.
func (m *Metrics) Chunk(id ChunkID) Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Ops:           m.ops[id],
		Backpressure:  m.backpressure[id],
		QueueSize:     m.queue[id],
		Registrations: m.registrations[id],
	}
}
