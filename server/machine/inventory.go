package machine

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSlotOutOfRange is returned by any methods on Inventory when a slot is passed which is not within the range
// of valid values for the inventory.
var ErrSlotOutOfRange = errors.New("slot is out of range")

// ErrStackTooLarge is returned when a stack is set in a slot that holds more items than the inventory allows.
var ErrStackTooLarge = errors.New("stack exceeds maximum count of inventory")

// Inventory is a fixed-size sequence of slots each holding a Stack. The function passed to NewInventory is
// called for every change in a slot. Inventory is owned by a single machine and is not safe for concurrent
// use.
type Inventory struct {
	slots []Stack
	max   int
	f     func(slot int, before, after Stack)
}

// NewInventory returns an inventory with size slots. f is called after every slot change and may be nil.
func NewInventory(size int, f func(slot int, before, after Stack)) *Inventory {
	if size < 0 {
		size = 0
	}
	if f == nil {
		f = func(int, Stack, Stack) {}
	}
	return &Inventory{slots: make([]Stack, size), max: DefaultMaxCount, f: f}
}

// WithMaxCount limits the count of every stack in the inventory to n and returns the inventory.
func (inv *Inventory) WithMaxCount(n int) *Inventory {
	if n > 0 {
		inv.max = n
	}
	return inv
}

// MaxCount returns the maximum count a single slot of the inventory may hold.
func (inv *Inventory) MaxCount() int {
	return inv.max
}

// Size returns the amount of slots in the inventory.
func (inv *Inventory) Size() int {
	return len(inv.slots)
}

// Item returns the stack in the slot passed. An error is returned if the slot is out of range.
func (inv *Inventory) Item(slot int) (Stack, error) {
	if !inv.valid(slot) {
		return Stack{}, fmt.Errorf("get slot %v: %w", slot, ErrSlotOutOfRange)
	}
	return inv.slots[slot], nil
}

// SetItem sets the stack in the slot passed, calling the change function of the inventory if the slot
// actually changed.
func (inv *Inventory) SetItem(slot int, s Stack) error {
	if !inv.valid(slot) {
		return fmt.Errorf("set slot %v: %w", slot, ErrSlotOutOfRange)
	}
	if s.Count() > inv.max {
		return fmt.Errorf("set slot %v to %v: %w", slot, s, ErrStackTooLarge)
	}
	if s.Empty() {
		s = Stack{}
	}
	before := inv.slots[slot]
	if before.Equal(s) {
		return nil
	}
	inv.slots[slot] = s
	inv.f(slot, before, s)
	return nil
}

// Slots returns a copy of all slots of the inventory.
func (inv *Inventory) Slots() []Stack {
	return slices.Clone(inv.slots)
}

// Empty checks if every slot of the inventory is empty.
func (inv *Inventory) Empty() bool {
	for _, s := range inv.slots {
		if !s.Empty() {
			return false
		}
	}
	return true
}

// Clear empties every slot of the inventory and returns the stacks that were removed.
func (inv *Inventory) Clear() []Stack {
	removed := make([]Stack, 0, len(inv.slots))
	for slot, s := range inv.slots {
		if s.Empty() {
			continue
		}
		removed = append(removed, s)
		inv.slots[slot] = Stack{}
		inv.f(slot, s, Stack{})
	}
	return removed
}

func (inv *Inventory) valid(slot int) bool {
	return slot >= 0 && slot < len(inv.slots)
}
