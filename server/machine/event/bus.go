package event

import (
	"context"
	"log/slog"
)

// Config holds the tunable parameters for the event bus. The zero value is usable; sensible defaults are
// applied by withDefaults.
type Config struct {
	// Log is the logger used for dropped events and saturated chunks. If nil, slog.Default() is used.
	Log *slog.Logger
	// InboxSize controls the bounded inbox size of every chunk. Events sent to a full inbox are coalesced.
	InboxSize int
	// BudgetPerTick caps the amount of events a chunk may handle per tick.
	BudgetPerTick int
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 4096
	}
	if c.BudgetPerTick <= 0 {
		c.BudgetPerTick = 8192
	}
	return c
}

// New builds a Bus using the configuration.
func (c Config) New() *Bus {
	c = c.withDefaults()
	log := c.Log.With("subsystem", "machine.event")
	metrics := NewMetrics()
	router := NewRouter(RouterConfig{Logger: log, Metrics: metrics})
	return &Bus{
		router:  router,
		metrics: metrics,
		scheduler: NewScheduler(SchedulerConfig{
			Logger:        log,
			Router:        router,
			InboxSize:     c.InboxSize,
			BudgetPerTick: c.BudgetPerTick,
			Metrics:       metrics,
		}),
	}
}

// Bus ties the scheduler and router together for use by the machines of a world.
type Bus struct {
	router    *Router
	scheduler *Scheduler
	metrics   *Metrics
}

// Register installs a handler at pos. The function returned removes it again.
func (b *Bus) Register(pos Pos, h Handler) func() {
	if b == nil {
		return func() {}
	}
	return b.scheduler.Register(pos, h, false)
}

// RegisterTicking installs a handler at pos which additionally receives a KindTick event every step.
func (b *Bus) RegisterTicking(pos Pos, h Handler) func() {
	if b == nil {
		return func() {}
	}
	return b.scheduler.Register(pos, h, true)
}

// Registered checks if a handler is registered at pos.
func (b *Bus) Registered(pos Pos) bool {
	return b != nil && b.scheduler.Registered(pos)
}

// Post sends an event to the chunk of its position. It is handled during the next Step, or later if its Tick
// lies in the future. Post may be called from any goroutine.
func (b *Bus) Post(ev Event) SendResult {
	if b == nil {
		return SendResult{State: SendDropped, Err: ErrUnknownChunk}
	}
	return b.router.Send(ev.Pos.Chunk(), ev)
}

// Step advances the bus by one tick and returns the outputs emitted by handlers.
func (b *Bus) Step(ctx context.Context, tick int64) StepResult {
	if b == nil {
		return StepResult{}
	}
	return b.scheduler.Step(ctx, tick)
}

// Metrics returns the counters of the bus.
func (b *Bus) Metrics() *Metrics {
	if b == nil {
		return nil
	}
	return b.metrics
}
