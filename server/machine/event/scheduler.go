package event

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
)

type SchedulerConfig struct {
	Logger        *slog.Logger
	Router        *Router
	InboxSize     int
	BudgetPerTick int
	Metrics       *Metrics
}

// Scheduler steps chunk queues in a deterministic order and dispatches their events to the handlers
// registered at the event positions. Register, Step and the functions returned by Register must be called
// from the same goroutine.
type Scheduler struct {
	log    *slog.Logger
	router *Router

	inboxSize     int
	budgetPerTick int

	chunks map[ChunkID]*chunkQueue
	order  []ChunkID
	dirty  bool
	nextID uint64

	saturation map[ChunkID]int
	penalty    map[ChunkID]int

	metrics *Metrics
}

// chunkQueue owns the pending events and handlers of a single chunk.
type chunkQueue struct {
	id          ChunkID
	handlers    map[Pos]*registrationList
	queue       []Event
	currentTick int64
	unregister  func()
}

type dedupeKey struct {
	Pos   Pos
	Tick  int64
	Power uint8
	Kind  Kind
	Seq   uint32
}

// StepResult summarises the work performed in a Step.
type StepResult struct {
	Ops      int
	QueueLen int
	// Outputs holds the events emitted through Emitter.Output, in the order they were emitted.
	Outputs []Event
	Err     error
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Router == nil {
		panic("event: scheduler requires router")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 4096
	}
	if cfg.BudgetPerTick <= 0 {
		cfg.BudgetPerTick = 8192
	}
	return &Scheduler{
		log:           cfg.Logger,
		router:        cfg.Router,
		inboxSize:     cfg.InboxSize,
		budgetPerTick: cfg.BudgetPerTick,
		chunks:        make(map[ChunkID]*chunkQueue),
		order:         make([]ChunkID, 0, 16),
		saturation:    make(map[ChunkID]int),
		penalty:       make(map[ChunkID]int),
		metrics:       cfg.Metrics,
	}
}

// Register installs h at pos. If ticking is true, h receives a KindTick event every Step. The function
// returned removes the handler again; once the last handler of a chunk is removed, the chunk stops
// accepting events.
func (s *Scheduler) Register(pos Pos, h Handler, ticking bool) func() {
	if h == nil {
		return func() {}
	}
	id := pos.Chunk()
	c, ok := s.chunks[id]
	if !ok {
		c = &chunkQueue{id: id, handlers: make(map[Pos]*registrationList)}
		c.unregister = s.router.Register(id, s.inboxSize)
		s.chunks[id] = c
		s.order = append(s.order, id)
		s.saturation[id], s.penalty[id] = 0, 0
		s.dirty = true
	}
	list, ok := c.handlers[pos]
	if !ok {
		list = &registrationList{}
		c.handlers[pos] = list
	}
	regID := s.nextID
	s.nextID++
	list.add(registration{handler: h, ticking: ticking, id: regID})
	s.metrics.IncRegistrations(id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.unregister(id, pos, regID)
		})
	}
}

func (s *Scheduler) unregister(id ChunkID, pos Pos, regID uint64) {
	c, ok := s.chunks[id]
	if !ok {
		return
	}
	if list, ok := c.handlers[pos]; ok {
		list.removeByID(regID)
		if len(list.regs) == 0 {
			delete(c.handlers, pos)
		}
	}
	if len(c.handlers) != 0 {
		return
	}
	c.unregister()
	delete(s.chunks, id)
	delete(s.saturation, id)
	delete(s.penalty, id)
	s.metrics.SetQueueSize(id, 0)
	s.dirty = true
}

// Registered checks if any handler is registered at pos.
func (s *Scheduler) Registered(pos Pos) bool {
	c, ok := s.chunks[pos.Chunk()]
	if !ok {
		return false
	}
	_, ok = c.handlers[pos]
	return ok
}

// Step advances all chunk queues for the tick, respecting determinism.
func (s *Scheduler) Step(ctx context.Context, tick int64) StepResult {
	var res StepResult
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if len(s.chunks) == 0 {
		return res
	}
	if s.dirty {
		s.rebuildOrder()
	}
	hot := make(map[ChunkID]struct{}, len(s.chunks)/4+1)
	for _, id := range s.router.SnapshotHot() {
		hot[id] = struct{}{}
	}
	for _, id := range s.order {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		c := s.chunks[id]
		if c == nil {
			continue
		}
		budget := s.budgetPerTick
		if _, isHot := hot[id]; isHot {
			budget += budget / 2
		}
		if penalty := s.penalty[id]; penalty > 0 {
			budget = max(1, budget>>penalty)
		}
		ops, queueLen := s.runChunk(c, tick, budget, &res.Outputs)
		res.Ops += ops
		res.QueueLen += queueLen

		s.metrics.AddOps(id, uint64(ops))
		s.metrics.SetQueueSize(id, queueLen)
		s.updateWatchdog(id, ops, budget)
	}
	return res
}

func (s *Scheduler) runChunk(c *chunkQueue, tick int64, budget int, outputs *[]Event) (ops, queueLen int) {
	c.currentTick = tick
	c.queue = append(c.queue, s.router.Drain(c.id)...)
	c.queue = append(c.queue, c.tickEvents(tick)...)

	em := emitter{s: s, c: c, outputs: outputs}
	seen := make(map[dedupeKey]struct{}, len(c.queue))
	future := make([]Event, 0, len(c.queue))
	overflow := make([]Event, 0)
	for len(c.queue) > 0 {
		ev := c.queue[0]
		c.queue = c.queue[1:]
		if ev.Tick > c.currentTick {
			future = append(future, ev)
			continue
		}
		if budget <= 0 {
			overflow = append(overflow, ev)
			continue
		}
		if ev.Tick < c.currentTick {
			ev.Tick = c.currentTick
		}
		key := dedupeKey{Pos: ev.Pos, Tick: ev.Tick, Power: ev.Power, Kind: ev.Kind, Seq: ev.Seq}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		s.dispatch(c, ev, em)
		budget--
		ops++
	}
	c.queue = append(overflow, future...)
	return ops, len(c.queue) + s.router.Pending(c.id)
}

// tickEvents returns a KindTick event for every ticking position of the chunk, sorted by position.
func (c *chunkQueue) tickEvents(tick int64) []Event {
	var events []Event
	for pos, list := range c.handlers {
		if list.ticking() {
			events = append(events, Event{Pos: pos, Kind: KindTick, Tick: tick})
		}
	}
	slices.SortFunc(events, func(a, b Event) int {
		return cmp.Or(cmp.Compare(a.Pos[0], b.Pos[0]), cmp.Compare(a.Pos[1], b.Pos[1]), cmp.Compare(a.Pos[2], b.Pos[2]))
	})
	return events
}

func (s *Scheduler) dispatch(c *chunkQueue, ev Event, em emitter) {
	list, ok := c.handlers[ev.Pos]
	if !ok {
		s.log.Debug("event without handler", "kind", ev.Kind, "x", ev.Pos[0], "y", ev.Pos[1], "z", ev.Pos[2])
		return
	}
	for _, reg := range list.snapshot() {
		if ev.Kind == KindTick && !reg.ticking {
			continue
		}
		reg.handler.HandleEvent(ev, em)
	}
}

func (s *Scheduler) rebuildOrder() {
	s.order = s.order[:0]
	for id := range s.chunks {
		s.order = append(s.order, id)
	}
	slices.SortFunc(s.order, func(a, b ChunkID) int {
		return cmp.Compare(a.Morton(), b.Morton())
	})
	s.dirty = false
}

func (s *Scheduler) updateWatchdog(id ChunkID, ops, budget int) {
	if budget <= 0 {
		return
	}
	if ops >= budget {
		s.saturation[id]++
		if s.saturation[id] >= 3 {
			if s.penalty[id] < 3 {
				s.penalty[id]++
			}
			s.saturation[id] = 0
			s.log.Warn("event chunk saturated, budget reduced", "chunkX", id.X, "chunkZ", id.Z, "penalty", s.penalty[id])
		}
		return
	}
	s.saturation[id] = 0
	if s.penalty[id] > 0 {
		s.penalty[id]--
	}
}

type emitter struct {
	s       *Scheduler
	c       *chunkQueue
	outputs *[]Event
}

func (e emitter) Local(ev Event) {
	if id := ev.Pos.Chunk(); id != e.c.id {
		e.Remote(id, ev)
		return
	}
	if ev.Tick < e.c.currentTick {
		ev.Tick = e.c.currentTick
	}
	e.c.queue = append(e.c.queue, ev)
}

func (e emitter) Remote(id ChunkID, ev Event) {
	if ev.Tick <= e.c.currentTick {
		ev.Tick = e.c.currentTick + 1
	}
	if id == e.c.id {
		e.c.queue = append(e.c.queue, ev)
		return
	}
	if res := e.s.router.Send(id, ev); res.Err != nil {
		e.s.log.Warn("event router dropped event", "chunkX", id.X, "chunkZ", id.Z, "kind", ev.Kind, "err", res.Err)
	}
}

func (e emitter) Output(ev Event) {
	if ev.Tick < e.c.currentTick {
		ev.Tick = e.c.currentTick
	}
	if ev.Kind == KindUnknown {
		ev.Kind = KindDrop
	}
	*e.outputs = append(*e.outputs, ev)
}
