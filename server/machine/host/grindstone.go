package host

import (
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/google/uuid"
)

// Grindstone is a grinder placed in a world. Its outputs are dropped on the side it faces and cranks may
// only attach to its up face.
type Grindstone struct {
	pos    cube.Pos
	id     uuid.UUID
	facing cube.Face
	up     cube.Face

	g          *grinder.Grinder
	bus        *event.Bus
	unregister func()
}

// Pos returns the position of the grindstone.
func (g *Grindstone) Pos() cube.Pos {
	return g.pos
}

// ID returns the unique identifier of the grindstone.
func (g *Grindstone) ID() uuid.UUID {
	return g.id
}

// Grinder returns the grinder simulated by the grindstone.
func (g *Grindstone) Grinder() *grinder.Grinder {
	return g.g
}

// Facing returns the face that outputs are dropped on.
func (g *Grindstone) Facing() cube.Face {
	return g.facing
}

// Up returns the face that cranks attach to.
func (g *Grindstone) Up() cube.Face {
	return g.up
}

// OutputPos returns the position that outputs which do not fit in the grinder are dropped at.
func (g *Grindstone) OutputPos() cube.Pos {
	return g.pos.Side(g.facing)
}

// CanCrankAttach checks if a crank may be attached to the face passed.
func (g *Grindstone) CanCrankAttach(face cube.Face) bool {
	return face == g.up
}

// SetOrientation changes the facing and up faces of the grindstone. Neighbours are notified if either
// changed.
func (g *Grindstone) SetOrientation(facing, up cube.Face) {
	if g.facing == facing && g.up == up {
		return
	}
	g.facing, g.up = facing, up
	g.bus.Post(event.Event{Pos: event.Pos(g.pos), Kind: event.KindNeighbourChange})
}

// Insert inserts s into the input slots of the grindstone and returns what could not be inserted. Items
// that are not registered as machine items are returned as is.
func (g *Grindstone) Insert(s item.Stack) item.Stack {
	leftover := g.g.External().AddItem(StackFrom(s))
	if leftover.Count() == s.Count() {
		return s
	}
	if leftover.Empty() {
		return item.Stack{}
	}
	return s.Grow(leftover.Count() - s.Count())
}

// Extract takes up to count items out of an output slot. False is returned if nothing could be taken.
func (g *Grindstone) Extract(slot, count int) (item.Stack, bool) {
	s := g.g.External().Extract(slot, count, true)
	if s.Empty() {
		return item.Stack{}, false
	}
	st, ok := StackTo(s)
	if !ok {
		return item.Stack{}, false
	}
	g.g.External().Extract(slot, count, false)
	return st, true
}

// EncodeNBT encodes the grindstone, including its grinder, to NBT.
func (g *Grindstone) EncodeNBT() map[string]any {
	m := g.g.EncodeNBT()
	m["Facing"] = uint8(g.facing)
	m["Up"] = uint8(g.up)
	return m
}

// DecodeNBT decodes NBT produced by EncodeNBT into the grindstone.
func (g *Grindstone) DecodeNBT(m map[string]any) {
	g.g.DecodeNBT(m)
	if _, ok := m["Facing"]; ok {
		g.facing = cube.Face(machine.Uint8(m, "Facing"))
	}
	if _, ok := m["Up"]; ok {
		g.up = cube.Face(machine.Uint8(m, "Up"))
	}
}

// drops returns everything the grindstone holds.
func (g *Grindstone) drops() []machine.Stack {
	return g.g.Drops()
}
