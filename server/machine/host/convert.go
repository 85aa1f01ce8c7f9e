// Package host binds the machines of this module to a dragonfly world.
package host

import (
	"log/slog"

	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/grindstone/server/machine"
)

// StackFrom converts a dragonfly item stack to a machine stack. The custom values of the stack are kept as
// its data, converted to NBT types. Values that cannot be stored as NBT are dropped with a warning.
func StackFrom(s item.Stack) machine.Stack {
	if s.Empty() {
		return machine.Stack{}
	}
	name, meta := s.Item().EncodeItem()
	data, dropped := machine.NBTCompound(s.Values())
	if len(dropped) > 0 {
		slog.Default().Warn("item values without nbt representation dropped", "item", name, "keys", dropped)
	}
	return machine.NewStack(machine.Item{Name: name, Meta: meta}, s.Count()).WithData(data)
}

// StackTo converts a machine stack back to a dragonfly item stack. False is returned if the item of the
// stack is not registered in the world item registry.
func StackTo(s machine.Stack) (item.Stack, bool) {
	if s.Empty() {
		return item.Stack{}, true
	}
	it, ok := world.ItemByName(s.Item().Name, s.Item().Meta)
	if !ok {
		return item.Stack{}, false
	}
	st := item.NewStack(it, s.Count())
	for k, v := range s.Data() {
		st = st.WithValue(k, v)
	}
	return st, true
}
