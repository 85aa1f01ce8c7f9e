package upgrade

import (
	"sync"

	"github.com/dm-vev/grindstone/server/machine"
)

// Kind is a type of upgrade card that may be installed into an upgradeable part.
type Kind struct {
	kind
}

// CapacityKind increases the amount of configurable slots of a part.
func CapacityKind() Kind {
	return Kind{0}
}

// RedstoneKind allows a part to be controlled by a redstone signal.
func RedstoneKind() Kind {
	return Kind{1}
}

// CraftingKind allows a part to request crafting of missing items.
func CraftingKind() Kind {
	return Kind{2}
}

// FuzzyKind makes item filters of a part ignore damage and data.
func FuzzyKind() Kind {
	return Kind{3}
}

// InverterKind inverts the item filter of a part.
func InverterKind() Kind {
	return Kind{4}
}

// SpeedKind increases the amount of work a part does per tick.
func SpeedKind() Kind {
	return Kind{5}
}

// Kinds returns all upgrade kinds.
func Kinds() []Kind {
	return []Kind{CapacityKind(), RedstoneKind(), CraftingKind(), FuzzyKind(), InverterKind(), SpeedKind()}
}

// KindByName returns the kind with the name passed, as returned by Kind.String.
func KindByName(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.String() == name {
			return k, true
		}
	}
	return Kind{}, false
}

type kind uint8

// Uint8 returns the kind as a uint8.
func (k kind) Uint8() uint8 {
	return uint8(k)
}

// String ...
func (k kind) String() string {
	switch k {
	case 0:
		return "capacity"
	case 1:
		return "redstone"
	case 2:
		return "crafting"
	case 3:
		return "fuzzy"
	case 4:
		return "inverter"
	case 5:
		return "speed"
	}
	panic("unknown upgrade kind")
}

var (
	cardsMu sync.RWMutex
	cards   = map[machine.Item]Kind{
		{Name: "grindstone:capacity_card"}: CapacityKind(),
		{Name: "grindstone:redstone_card"}: RedstoneKind(),
		{Name: "grindstone:crafting_card"}: CraftingKind(),
		{Name: "grindstone:fuzzy_card"}:    FuzzyKind(),
		{Name: "grindstone:inverter_card"}: InverterKind(),
		{Name: "grindstone:speed_card"}:    SpeedKind(),
	}
)

// RegisterCard registers it as an upgrade card of kind k, replacing any kind previously registered for it.
func RegisterCard(it machine.Item, k Kind) {
	cardsMu.Lock()
	defer cardsMu.Unlock()
	cards[it] = k
}

// Card returns the item registered as the default card of kind k.
func Card(k Kind) machine.Item {
	return machine.Item{Name: "grindstone:" + k.String() + "_card"}
}

// KindOf returns the upgrade kind of the stack passed. False is returned if the stack is not an upgrade card.
func KindOf(s machine.Stack) (Kind, bool) {
	if s.Empty() {
		return Kind{}, false
	}
	cardsMu.RLock()
	defer cardsMu.RUnlock()
	k, ok := cards[s.Item()]
	return k, ok
}
