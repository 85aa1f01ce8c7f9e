package upgrade

import (
	"testing"

	"github.com/dm-vev/grindstone/server/machine"
)

func TestKindByName(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := KindByName(k.String())
		if !ok || got != k {
			t.Fatalf("expected %v to resolve to itself, got %v", k, got)
		}
	}
	if _, ok := KindByName("overdrive"); ok {
		t.Fatalf("expected unknown name to fail")
	}
}

func TestRegisterCard(t *testing.T) {
	custom := machine.Item{Name: "example:turbo_chip"}
	if _, ok := KindOf(machine.NewStack(custom, 1)); ok {
		t.Fatalf("expected unregistered item not to be a card")
	}
	RegisterCard(custom, SpeedKind())
	if k, ok := KindOf(machine.NewStack(custom, 1)); !ok || k != SpeedKind() {
		t.Fatalf("expected registered item to be a speed card, got %v", k)
	}
	if k, ok := KindOf(machine.NewStack(Card(FuzzyKind()), 1)); !ok || k != FuzzyKind() {
		t.Fatalf("expected default fuzzy card, got %v", k)
	}
}
