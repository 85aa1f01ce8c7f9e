package machine

// Gate decides which slots of an inventory external actors may insert into and extract from.
type Gate interface {
	// AllowInsert reports if s may be inserted into slot by an external actor.
	AllowInsert(slot int, s Stack) bool
	// AllowExtract reports if count items may be extracted from slot by an external actor.
	AllowExtract(slot, count int) bool
}

// OpenGate allows every insertion and extraction.
type OpenGate struct{}

// AllowInsert ...
func (OpenGate) AllowInsert(int, Stack) bool { return true }

// AllowExtract ...
func (OpenGate) AllowExtract(int, int) bool { return true }

// Filtered is the externally visible view of an Inventory. Every mutation passes through its Gate, while
// the owner of the inventory keeps unrestricted access to the Inventory itself. Refused operations are not
// errors: Insert returns the full stack and Extract returns an empty one.
type Filtered struct {
	inv  *Inventory
	gate Gate
}

// NewFiltered wraps inv so that external access is checked against gate.
func NewFiltered(inv *Inventory, gate Gate) Filtered {
	if gate == nil {
		gate = OpenGate{}
	}
	return Filtered{inv: inv, gate: gate}
}

// Size returns the amount of slots of the underlying inventory.
func (f Filtered) Size() int {
	return f.inv.Size()
}

// Item returns the stack in a slot. Reading is never gated.
func (f Filtered) Item(slot int) Stack {
	s, _ := f.inv.Item(slot)
	return s
}

// CanInsert reports if any part of s could be inserted into slot.
func (f Filtered) CanInsert(slot int, s Stack) bool {
	return !s.Empty() && f.inv.valid(slot) && f.gate.AllowInsert(slot, s)
}

// Insert inserts s into slot and returns what could not be inserted. If simulate is true, the inventory is
// left unchanged.
func (f Filtered) Insert(slot int, s Stack, simulate bool) Stack {
	if !f.CanInsert(slot, s) {
		return s
	}
	existing := f.inv.slots[slot]
	if !existing.Empty() && !existing.Comparable(s) {
		return s
	}
	n := min(f.inv.MaxCount()-existing.Count(), s.Count())
	if n <= 0 {
		return s
	}
	if !simulate {
		if existing.Empty() {
			_ = f.inv.SetItem(slot, s.WithCount(n))
		} else {
			_ = f.inv.SetItem(slot, existing.Grow(n))
		}
	}
	return s.Grow(-n)
}

// AddItem inserts s into the first slots that accept it, in ascending order, and returns the leftover.
func (f Filtered) AddItem(s Stack) Stack {
	for slot := 0; slot < f.inv.Size() && !s.Empty(); slot++ {
		s = f.Insert(slot, s, false)
	}
	return s
}

// Extract removes up to count items from slot and returns them. If simulate is true, the inventory is left
// unchanged.
func (f Filtered) Extract(slot, count int, simulate bool) Stack {
	if count <= 0 || !f.inv.valid(slot) || !f.gate.AllowExtract(slot, count) {
		return Stack{}
	}
	existing := f.inv.slots[slot]
	if existing.Empty() {
		return Stack{}
	}
	n := min(count, existing.Count())
	if !simulate {
		_ = f.inv.SetItem(slot, existing.Grow(-n))
	}
	return existing.WithCount(n)
}
