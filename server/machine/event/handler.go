package event

// Handler consumes the events sent to the position it is registered at.
type Handler interface {
	HandleEvent(ev Event, emit Emitter)
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ev Event, emit Emitter)

func (f HandlerFunc) HandleEvent(ev Event, emit Emitter) {
	f(ev, emit)
}

// Emitter allows a handler to enqueue new events in a chunk-safe way.
type Emitter interface {
	// Local queues an event for the current tick. Events for positions in other chunks are routed to the
	// next tick instead.
	Local(Event)
	// Remote queues an event for the chunk passed, to be handled no earlier than the next tick.
	Remote(ChunkID, Event)
	// Output returns an event to the caller of Step, for example a stack to drop into the world.
	Output(Event)
}

type registration struct {
	handler Handler
	ticking bool
	id      uint64
}

type registrationList struct {
	regs []registration
}

func (l *registrationList) add(reg registration) {
	l.regs = append(l.regs, reg)
}

func (l *registrationList) removeByID(id uint64) {
	regs := l.regs[:0]
	for _, reg := range l.regs {
		if reg.id == id {
			continue
		}
		regs = append(regs, reg)
	}
	clear(l.regs[len(regs):])
	l.regs = regs
}

func (l *registrationList) ticking() bool {
	for _, reg := range l.regs {
		if reg.ticking {
			return true
		}
	}
	return false
}

func (l *registrationList) snapshot() []registration {
	if len(l.regs) == 0 {
		return nil
	}
	out := make([]registration, len(l.regs))
	copy(out, l.regs)
	return out
}
