package machine

import "testing"

type inputOutputGate struct{}

func (inputOutputGate) AllowInsert(slot int, s Stack) bool {
	return slot == 0 && s.Item() == ironOre
}

func (inputOutputGate) AllowExtract(slot, _ int) bool {
	return slot == 1
}

func TestFilteredInsertHonoursGate(t *testing.T) {
	inv := NewInventory(2, nil)
	f := NewFiltered(inv, inputOutputGate{})

	if leftover := f.Insert(1, NewStack(ironOre, 4), false); leftover.Count() != 4 {
		t.Fatalf("expected insert into slot 1 to be refused, got leftover %v", leftover)
	}
	if leftover := f.Insert(0, NewStack(ironDust, 4), false); leftover.Count() != 4 {
		t.Fatalf("expected insert of unaccepted item to be refused, got leftover %v", leftover)
	}
	if leftover := f.Insert(0, NewStack(ironOre, 4), false); !leftover.Empty() {
		t.Fatalf("expected insert into slot 0 to succeed, got leftover %v", leftover)
	}
	if s := f.Item(0); s.Count() != 4 {
		t.Fatalf("expected 4 iron ore in slot 0, got %v", s)
	}
}

func TestFilteredSimulateLeavesInventory(t *testing.T) {
	inv := NewInventory(2, nil)
	f := NewFiltered(inv, inputOutputGate{})

	if leftover := f.Insert(0, NewStack(ironOre, 70), true); leftover.Count() != 6 {
		t.Fatalf("expected 6 leftover items when simulating, got %v", leftover)
	}
	if !inv.Empty() {
		t.Fatalf("expected simulated insert to leave inventory empty")
	}
}

func TestFilteredExtractHonoursGate(t *testing.T) {
	inv := NewInventory(2, nil)
	_ = inv.SetItem(0, NewStack(ironOre, 4))
	_ = inv.SetItem(1, NewStack(ironDust, 4))
	f := NewFiltered(inv, inputOutputGate{})

	if s := f.Extract(0, 4, false); !s.Empty() {
		t.Fatalf("expected extraction from slot 0 to be refused, got %v", s)
	}
	if s := f.Extract(1, 3, false); s.Count() != 3 {
		t.Fatalf("expected 3 extracted items, got %v", s)
	}
	if s, _ := inv.Item(1); s.Count() != 1 {
		t.Fatalf("expected 1 remaining item in slot 1, got %v", s)
	}
}

func TestFilteredAddItemSkipsRefusedSlots(t *testing.T) {
	inv := NewInventory(2, nil)
	f := NewFiltered(inv, inputOutputGate{})

	if leftover := f.AddItem(NewStack(ironOre, 2)); !leftover.Empty() {
		t.Fatalf("expected items to be added, got leftover %v", leftover)
	}
	if s, _ := inv.Item(1); !s.Empty() {
		t.Fatalf("expected slot 1 to be untouched, got %v", s)
	}
}
