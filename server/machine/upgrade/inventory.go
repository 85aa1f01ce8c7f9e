package upgrade

import (
	"maps"

	"github.com/dm-vev/grindstone/server/machine"
)

// Limits maps every upgrade kind a part accepts to the maximum amount of cards of that kind it may hold.
// Kinds absent from Limits cannot be installed.
type Limits map[Kind]int

// Inventory holds the upgrade cards of a part. Every slot holds at most one card.
type Inventory struct {
	inv    *machine.Inventory
	limits Limits
}

func newInventory(size int, limits Limits, f func(slot int, before, after machine.Stack)) *Inventory {
	return &Inventory{
		inv:    machine.NewInventory(size, f).WithMaxCount(1),
		limits: maps.Clone(limits),
	}
}

// Slots returns the underlying slot container of the upgrade inventory.
func (i *Inventory) Slots() *machine.Inventory {
	return i.inv
}

// Installed returns the amount of cards of kind k in the inventory.
func (i *Inventory) Installed(k Kind) int {
	n := 0
	for _, s := range i.inv.Slots() {
		if sk, ok := KindOf(s); ok && sk == k {
			n += s.Count()
		}
	}
	return n
}

// MaxInstalled returns the maximum amount of cards of kind k the inventory accepts.
func (i *Inventory) MaxInstalled(k Kind) int {
	return i.limits[k]
}

// External returns the view of the inventory used by players and automation. It accepts only upgrade
// cards, and only while fewer than the limit of their kind are installed.
func (i *Inventory) External() machine.Filtered {
	return machine.NewFiltered(i.inv, gate{i})
}

type gate struct {
	i *Inventory
}

func (g gate) AllowInsert(_ int, s machine.Stack) bool {
	k, ok := KindOf(s)
	if !ok {
		return false
	}
	return g.i.Installed(k) < g.i.MaxInstalled(k)
}

func (g gate) AllowExtract(int, int) bool {
	return true
}
