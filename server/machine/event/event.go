package event

import (
	"slices"

	"github.com/dm-vev/grindstone/server/machine"
)

// Kind enumerates the intent of an event flowing through the bus.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindCrank is a single crank turn applied to the machine at the event position.
	KindCrank
	// KindSignalRise is sent when the redstone signal at a position turns on.
	KindSignalRise
	// KindSignalFall is sent when the redstone signal at a position turns off.
	KindSignalFall
	// KindNeighbourChange is sent when a block next to the position, or the orientation of the block itself,
	// changed.
	KindNeighbourChange
	// KindTick is sent once per tick to positions registered as ticking.
	KindTick
	// KindDrop is an output event carrying a stack that must be dropped into the world.
	KindDrop
)

// String ...
func (k Kind) String() string {
	switch k {
	case KindCrank:
		return "crank"
	case KindSignalRise:
		return "signal_rise"
	case KindSignalFall:
		return "signal_fall"
	case KindNeighbourChange:
		return "neighbour_change"
	case KindTick:
		return "tick"
	case KindDrop:
		return "drop"
	}
	return "unknown"
}

// Pos is a block position. It has the same layout as cube.Pos, so positions convert freely without the bus
// depending on the world packages.
type Pos [3]int

// Chunk returns the ID of the chunk the position is in.
func (p Pos) Chunk() ChunkID {
	return ChunkID{X: int32(p[0] >> 4), Z: int32(p[2] >> 4)}
}

// Event represents a unit of work for a chunk queue.
type Event struct {
	Pos   Pos
	Kind  Kind
	Power uint8
	Tick  int64
	// Seq distinguishes events of the same kind at the same position and tick that must not be
	// deduplicated, such as several crank turns in one tick.
	Seq uint32
	// Stack is the payload of KindDrop events.
	Stack machine.Stack
}

// Key collapses the event down to a coalescing key.
func (e Event) Key() Key {
	return Key{Pos: e.Pos, Kind: e.Kind, Seq: e.Seq}
}

// Key is used for coalescing duplicate events when inboxes overflow.
type Key struct {
	Pos  Pos
	Kind Kind
	Seq  uint32
}

// ChunkID identifies a chunk in Morton space without tying the package to world.ChunkPos.
type ChunkID struct {
	X, Z int32
}

// Morton returns the deterministic order value for the chunk.
func (id ChunkID) Morton() uint64 {
	return morton2(toUnsigned(id.X), toUnsigned(id.Z))
}

// mortonKey returns a sortable key for ordering events deterministically.
func (k Key) mortonKey() uint64 {
	return morton2(toUnsigned(int32(k.Pos[0])), toUnsigned(int32(k.Pos[2])))<<16 |
		uint64(k.Kind)<<8 |
		uint64(k.Seq&0xff)
}

func toUnsigned(v int32) uint32 {
	return uint32(v) ^ (1 << 31)
}

func splitBy1(x uint32) uint64 {
	x64 := uint64(x)
	x64 = (x64 | x64<<16) & 0x0000FFFF0000FFFF
	x64 = (x64 | x64<<8) & 0x00FF00FF00FF00FF
	x64 = (x64 | x64<<4) & 0x0F0F0F0F0F0F0F0F
	x64 = (x64 | x64<<2) & 0x3333333333333333
	x64 = (x64 | x64<<1) & 0x5555555555555555
	return x64
}

func morton2(x, z uint32) uint64 {
	return splitBy1(x) | splitBy1(z)<<1
}

// sortEventsDeterministic sorts in place using the deterministic morton key. Events with equal keys keep
// their relative order.
func sortEventsDeterministic(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		ka, kb := a.Key().mortonKey(), b.Key().mortonKey()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		switch {
		case a.Pos[1] < b.Pos[1]:
			return -1
		case a.Pos[1] > b.Pos[1]:
			return 1
		}
		return 0
	})
}
