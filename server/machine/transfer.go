package machine

// Range is a half-open range of slots [From, To).
type Range struct {
	From, To int
}

// Contains checks if slot lies within the range.
func (r Range) Contains(slot int) bool {
	return slot >= r.From && slot < r.To
}

// Len returns the amount of slots in the range.
func (r Range) Len() int {
	return max(0, r.To-r.From)
}

// Inserter accepts stacks and returns the part that did not fit.
type Inserter interface {
	Insert(s Stack) (leftover Stack)
}

// Dropper places stacks that could not be stored anywhere else, usually into the world.
type Dropper interface {
	Drop(s Stack)
}

// DropperFunc implements Dropper with a plain function.
type DropperFunc func(s Stack)

// Drop ...
func (f DropperFunc) Drop(s Stack) {
	f(s)
}

// NopDropper discards every stack passed.
type NopDropper struct{}

// Drop ...
func (NopDropper) Drop(Stack) {}

// RangedInserter inserts stacks into a range of slots of an Inventory. Stacks are first merged into comparable
// stacks already present in the range, after which remaining items go into empty slots in ascending order.
type RangedInserter struct {
	inv *Inventory
	r   Range
}

// NewRangedInserter returns a RangedInserter restricted to the slots in r.
func NewRangedInserter(inv *Inventory, r Range) RangedInserter {
	r.From, r.To = max(r.From, 0), min(r.To, inv.Size())
	return RangedInserter{inv: inv, r: r}
}

// Insert inserts s into the range and returns what could not be inserted.
func (ri RangedInserter) Insert(s Stack) Stack {
	if s.Empty() {
		return Stack{}
	}
	limit := ri.inv.MaxCount()
	for slot := ri.r.From; slot < ri.r.To && !s.Empty(); slot++ {
		existing := ri.inv.slots[slot]
		if existing.Empty() || !existing.Comparable(s) {
			continue
		}
		n := min(limit-existing.Count(), s.Count())
		if n <= 0 {
			continue
		}
		_ = ri.inv.SetItem(slot, existing.Grow(n))
		s = s.Grow(-n)
	}
	for slot := ri.r.From; slot < ri.r.To && !s.Empty(); slot++ {
		if !ri.inv.slots[slot].Empty() {
			continue
		}
		n := min(limit, s.Count())
		_ = ri.inv.SetItem(slot, s.WithCount(n))
		s = s.Grow(-n)
	}
	return s
}

// Deliver inserts s into in and passes the leftover, if any, to d.
func Deliver(in Inserter, d Dropper, s Stack) {
	if s.Empty() {
		return
	}
	if leftover := in.Insert(s); !leftover.Empty() && d != nil {
		d.Drop(leftover)
	}
}
