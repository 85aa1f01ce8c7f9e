package event

import (
	"context"
	"errors"
	"testing"
)

type recordingHandler struct {
	events []Event
	fn     func(ev Event, emit Emitter)
}

func (h *recordingHandler) HandleEvent(ev Event, emit Emitter) {
	h.events = append(h.events, ev)
	if h.fn != nil {
		h.fn(ev, emit)
	}
}

func (h *recordingHandler) kinds() []Kind {
	out := make([]Kind, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Kind
	}
	return out
}

func TestBusDeliversPostedEvents(t *testing.T) {
	bus := Config{}.New()
	h := &recordingHandler{}
	pos := Pos{1, 64, 1}
	bus.Register(pos, h)

	if res := bus.Post(Event{Pos: pos, Kind: KindCrank}); res.State != SendDelivered {
		t.Fatalf("expected event to be delivered, got state %v (%v)", res.State, res.Err)
	}
	bus.Step(context.Background(), 1)

	if len(h.events) != 1 || h.events[0].Kind != KindCrank {
		t.Fatalf("expected one crank event, got %v", h.kinds())
	}
	if h.events[0].Tick != 1 {
		t.Fatalf("expected event tick to be raised to the current tick, got %d", h.events[0].Tick)
	}
}

func TestPostToUnknownChunkIsDropped(t *testing.T) {
	bus := Config{}.New()
	res := bus.Post(Event{Pos: Pos{1000, 64, 1000}, Kind: KindCrank})
	if res.State != SendDropped {
		t.Fatalf("expected dropped state for unknown chunk, got %v", res.State)
	}
	if !errors.Is(res.Err, ErrUnknownChunk) {
		t.Fatalf("expected ErrUnknownChunk, got %v", res.Err)
	}
}

func TestLocalEmitsRunInSameStepAndRemoteNextTick(t *testing.T) {
	bus := Config{}.New()
	source, near, far := Pos{0, 64, 0}, Pos{1, 64, 0}, Pos{40, 64, 0}

	nearHandler, farHandler := &recordingHandler{}, &recordingHandler{}
	bus.Register(near, nearHandler)
	bus.Register(far, farHandler)
	bus.Register(source, &recordingHandler{fn: func(ev Event, emit Emitter) {
		emit.Local(Event{Pos: near, Kind: KindCrank, Tick: ev.Tick})
		emit.Local(Event{Pos: far, Kind: KindCrank, Tick: ev.Tick})
	}})

	bus.Post(Event{Pos: source, Kind: KindSignalRise})
	bus.Step(context.Background(), 1)

	if len(nearHandler.events) != 1 {
		t.Fatalf("expected same-chunk event to be handled in the same step, got %d", len(nearHandler.events))
	}
	if len(farHandler.events) != 0 {
		t.Fatalf("expected cross-chunk event to wait for the next tick, got %d", len(farHandler.events))
	}

	bus.Step(context.Background(), 2)
	if len(farHandler.events) != 1 {
		t.Fatalf("expected cross-chunk event on tick 2, got %d", len(farHandler.events))
	}
	if farHandler.events[0].Tick < 2 {
		t.Fatalf("expected forwarded event tick >= 2, got %d", farHandler.events[0].Tick)
	}
}

func TestDuplicateEventsAreDeduplicated(t *testing.T) {
	bus := Config{}.New()
	h := &recordingHandler{}
	pos := Pos{0, 64, 0}
	bus.Register(pos, h)

	bus.Post(Event{Pos: pos, Kind: KindCrank, Tick: 5})
	bus.Post(Event{Pos: pos, Kind: KindCrank, Tick: 5})
	bus.Post(Event{Pos: pos, Kind: KindCrank, Tick: 5, Seq: 1})
	res := bus.Step(context.Background(), 5)

	if res.Ops != 2 {
		t.Fatalf("expected exactly two operations, got %d", res.Ops)
	}
	if len(h.events) != 2 {
		t.Fatalf("expected handler to receive two events, got %d", len(h.events))
	}
}

func TestFutureEventsWait(t *testing.T) {
	bus := Config{}.New()
	h := &recordingHandler{}
	pos := Pos{0, 64, 0}
	bus.Register(pos, h)

	bus.Post(Event{Pos: pos, Kind: KindCrank, Tick: 3})
	bus.Step(context.Background(), 1)
	bus.Step(context.Background(), 2)
	if len(h.events) != 0 {
		t.Fatalf("expected event for tick 3 to wait, got %d events", len(h.events))
	}
	bus.Step(context.Background(), 3)
	if len(h.events) != 1 {
		t.Fatalf("expected event on tick 3, got %d events", len(h.events))
	}
}

func TestTickingHandlersReceiveTicks(t *testing.T) {
	bus := Config{}.New()
	ticking, plain := &recordingHandler{}, &recordingHandler{}
	pos := Pos{2, 64, 2}
	bus.RegisterTicking(pos, ticking)
	bus.Register(pos, plain)

	for tick := int64(1); tick <= 3; tick++ {
		bus.Step(context.Background(), tick)
	}
	if len(ticking.events) != 3 {
		t.Fatalf("expected 3 tick events, got %d", len(ticking.events))
	}
	if len(plain.events) != 0 {
		t.Fatalf("expected non-ticking handler to receive no ticks, got %d", len(plain.events))
	}
}

func TestOutputsAreReturned(t *testing.T) {
	bus := Config{}.New()
	pos := Pos{0, 64, 0}
	bus.Register(pos, HandlerFunc(func(ev Event, emit Emitter) {
		emit.Output(Event{Pos: ev.Pos})
	}))
	bus.Post(Event{Pos: pos, Kind: KindCrank})

	res := bus.Step(context.Background(), 1)
	if len(res.Outputs) != 1 || res.Outputs[0].Kind != KindDrop {
		t.Fatalf("expected one drop output, got %v", res.Outputs)
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	bus := Config{}.New()
	h := &recordingHandler{}
	pos := Pos{0, 64, 0}
	unregister := bus.Register(pos, h)
	unregister()
	unregister()

	if bus.Registered(pos) {
		t.Fatalf("expected position to be unregistered")
	}
	if res := bus.Post(Event{Pos: pos, Kind: KindCrank}); res.State != SendDropped {
		t.Fatalf("expected events for an unregistered chunk to be dropped, got %v", res.State)
	}
}

func TestFullInboxCoalesces(t *testing.T) {
	bus := Config{InboxSize: 1}.New()
	h := &recordingHandler{}
	pos := Pos{0, 64, 0}
	bus.Register(pos, h)

	bus.Post(Event{Pos: pos, Kind: KindSignalRise})
	if res := bus.Post(Event{Pos: pos, Kind: KindSignalFall}); res.State != SendCoalesced {
		t.Fatalf("expected second event to be coalesced, got %v", res.State)
	}
	if res := bus.Post(Event{Pos: pos, Kind: KindSignalFall, Power: 3}); res.State != SendCoalesced {
		t.Fatalf("expected third event to be coalesced, got %v", res.State)
	}
	bus.Step(context.Background(), 1)

	if len(h.events) != 2 {
		t.Fatalf("expected coalesced events to collapse to 2, got %v", h.kinds())
	}
	if h.events[1].Power != 3 {
		t.Fatalf("expected latest coalesced event to win, got power %d", h.events[1].Power)
	}
	if got := bus.Metrics().Chunk(pos.Chunk()).Backpressure; got != 2 {
		t.Fatalf("expected 2 backpressure events, got %d", got)
	}
}

func TestWatchdogPenalisesSaturatedChunk(t *testing.T) {
	router := NewRouter(RouterConfig{})
	sched := NewScheduler(SchedulerConfig{Router: router, InboxSize: 64, BudgetPerTick: 4})

	pos := Pos{0, 64, 0}
	sched.Register(pos, HandlerFunc(func(Event, Emitter) {}), false)
	id := pos.Chunk()

	penalised := false
	for tick := int64(1); tick <= 6; tick++ {
		for i := 0; i < 16; i++ {
			router.Send(id, Event{Pos: pos, Kind: KindCrank, Tick: tick, Seq: uint32(i)})
		}
		sched.Step(context.Background(), tick)
		if sched.penalty[id] > 0 {
			penalised = true
			break
		}
	}
	if !penalised {
		t.Fatalf("expected watchdog to penalise chunk, got penalty 0")
	}
}

func TestStepHonoursCancelledContext(t *testing.T) {
	bus := Config{}.New()
	bus.Register(Pos{}, &recordingHandler{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if res := bus.Step(ctx, 1); !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}
}

func TestNilBusIsInert(t *testing.T) {
	var bus *Bus
	bus.Register(Pos{}, &recordingHandler{})()
	if res := bus.Post(Event{}); res.State != SendDropped {
		t.Fatalf("expected nil bus to drop events")
	}
	if res := bus.Step(context.Background(), 1); res.Ops != 0 {
		t.Fatalf("expected nil bus to do no work")
	}
}
