package grinder

import (
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
)

// HandleEvent turns the grinder for every crank event it receives. Outputs that do not fit in the output
// slots are emitted as KindDrop outputs at the position of the grinder.
func (g *Grinder) HandleEvent(ev event.Event, emit event.Emitter) {
	switch ev.Kind {
	case event.KindCrank:
		g.Turn(machine.DropperFunc(func(s machine.Stack) {
			emit.Output(event.Event{Pos: ev.Pos, Kind: event.KindDrop, Tick: ev.Tick, Stack: s})
		}))
	case event.KindNeighbourChange:
		g.log.Debug("grinder neighbour changed", "x", ev.Pos[0], "y", ev.Pos[1], "z", ev.Pos[2])
	}
}
