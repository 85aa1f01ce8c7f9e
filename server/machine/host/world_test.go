package host

import (
	"context"
	"testing"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/grinder"
	"github.com/go-gl/mathgl/mgl64"
)

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.Config{Entities: entity.DefaultRegistry}.New()
	t.Cleanup(func() { _ = w.Close() })
	return w
}

// itemPositions returns the positions of all item entities in tx.
func itemPositions(tx *world.Tx) []mgl64.Vec3 {
	var positions []mgl64.Vec3
	for e := range tx.Entities() {
		if e.H().Type() == entity.ItemType {
			positions = append(positions, e.Position())
		}
	}
	return positions
}

func TestOverflowDropsInWorld(t *testing.T) {
	m := newTestMachines(t, nil)
	pos := cube.Pos{0, 64, 0}
	g, _ := m.PlaceGrindstone(pos, cube.FaceSouth)
	for i := grinder.OutputSlots.From; i < grinder.OutputSlots.To; i++ {
		_ = g.Grinder().Inventory().SetItem(i, machine.NewStack(stone, 64))
	}
	_ = g.Grinder().Inventory().SetItem(0, machine.NewStack(rawIron, 1))

	// The first three turns run without transaction, the overflow of the last one is spawned right away.
	for tick := int64(1); tick <= 3; tick++ {
		m.Crank(pos)
		_ = m.Tick(context.Background(), nil, tick)
	}
	var (
		positions []mgl64.Vec3
		err       error
	)
	<-newTestWorld(t).Exec(func(tx *world.Tx) {
		m.Crank(pos)
		err = m.Tick(context.Background(), tx, 4)
		positions = itemPositions(tx)
	})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending drops, got %d", m.Pending())
	}
	if len(positions) != 1 || positions[0] != g.OutputPos().Vec3Centre() {
		t.Fatalf("expected one item at %v, got %v", g.OutputPos().Vec3Centre(), positions)
	}
}

func TestPendingDropsSpawnWithTransaction(t *testing.T) {
	m := newTestMachines(t, nil)
	pos := cube.Pos{0, 64, 0}
	g, _ := m.PlaceGrindstone(pos, cube.FaceWest)
	for i := grinder.OutputSlots.From; i < grinder.OutputSlots.To; i++ {
		_ = g.Grinder().Inventory().SetItem(i, machine.NewStack(stone, 64))
	}
	_ = g.Grinder().Inventory().SetItem(0, machine.NewStack(rawIron, 1))
	for tick := int64(1); tick <= 4; tick++ {
		m.Crank(pos)
		_ = m.Tick(context.Background(), nil, tick)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected 1 pending drop, got %d", m.Pending())
	}

	var positions []mgl64.Vec3
	<-newTestWorld(t).Exec(func(tx *world.Tx) {
		_ = m.Tick(context.Background(), tx, 5)
		positions = itemPositions(tx)
	})
	if m.Pending() != 0 {
		t.Fatalf("expected pending drop to be spawned, got %d pending", m.Pending())
	}
	if len(positions) != 1 || positions[0] != pos.Side(cube.FaceWest).Vec3Centre() {
		t.Fatalf("expected one item west of the grindstone, got %v", positions)
	}
}

func TestBreakDropsContentsInWorld(t *testing.T) {
	m := newTestMachines(t, nil)
	pos := cube.Pos{3, 64, 3}
	g, _ := m.PlaceGrindstone(pos, cube.FaceNorth)
	_ = g.Grinder().Inventory().SetItem(0, machine.NewStack(rawIron, 5))
	_ = g.Grinder().Inventory().SetItem(grinder.OutputSlots.From, machine.NewStack(ironDust, 2))

	var (
		broken    bool
		positions []mgl64.Vec3
	)
	<-newTestWorld(t).Exec(func(tx *world.Tx) {
		broken = m.Break(tx, pos)
		positions = itemPositions(tx)
	})
	if !broken {
		t.Fatalf("expected grindstone to be broken")
	}
	if len(positions) != 2 {
		t.Fatalf("expected raw iron and iron dust to be dropped, got %d items", len(positions))
	}
	for _, p := range positions {
		if p != pos.Vec3Centre() {
			t.Fatalf("expected drops at %v, got %v", pos.Vec3Centre(), p)
		}
	}
}
