package store

import (
	"errors"
	"testing"

	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Config{}.OpenMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveLoad(t *testing.T) {
	db := openTestDB(t)
	inv := machine.NewInventory(2, nil)
	_ = inv.SetItem(1, machine.NewStack(machine.Item{Name: "minecraft:raw_iron"}, 3))

	r := Record{
		Pos:  event.Pos{-17, 64, 300},
		Kind: "Grinder",
		ID:   uuid.New(),
		Data: map[string]any{"Items": machine.EncodeSlots(inv), "Turns": int32(2)},
	}
	if err := db.Save(r); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.Load(r.Pos)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Pos != r.Pos || got.Kind != r.Kind || got.ID != r.ID {
		t.Fatalf("expected %v %v %v, got %v %v %v", r.Pos, r.Kind, r.ID, got.Pos, got.Kind, got.ID)
	}
	if machine.Int32(got.Data, "Turns") != 2 {
		t.Fatalf("expected turns to survive, got %v", got.Data["Turns"])
	}
	restored := machine.NewInventory(2, nil)
	machine.DecodeSlots(restored, machine.Slice(got.Data, "Items"))
	if diff := cmp.Diff(inv.Slots(), restored.Slots(), cmp.Comparer(machine.Stack.Equal)); diff != "" {
		t.Fatalf("inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissing(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.Load(event.Pos{1, 2, 3}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	pos := event.Pos{4, 5, 6}
	if err := db.Save(Record{Pos: pos, Kind: "AutoCrank"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.Delete(pos); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Load(pos); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted record to be gone, got %v", err)
	}
	if err := db.Delete(pos); err != nil {
		t.Fatalf("expected deleting twice to succeed, got %v", err)
	}
}

func TestEach(t *testing.T) {
	db := openTestDB(t)
	records := []Record{
		{Pos: event.Pos{0, 0, 0}, Kind: "Grinder", ID: uuid.New()},
		{Pos: event.Pos{0, 1, 0}, Kind: "AutoCrank", ID: uuid.New()},
		{Pos: event.Pos{-1, -64, 9}, Kind: "Grinder", ID: uuid.New()},
	}
	if err := db.SaveAll(records); err != nil {
		t.Fatalf("save all: %v", err)
	}

	seen := map[event.Pos]Record{}
	if err := db.Each(func(r Record) bool {
		seen[r.Pos] = r
		return true
	}); err != nil {
		t.Fatalf("each: %v", err)
	}
	if len(seen) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(seen))
	}
	for _, r := range records {
		got, ok := seen[r.Pos]
		if !ok || got.ID != r.ID || got.Kind != r.Kind {
			t.Fatalf("expected %v at %v, got %v", r.Kind, r.Pos, got)
		}
	}

	n := 0
	_ = db.Each(func(Record) bool {
		n++
		return false
	})
	if n != 1 {
		t.Fatalf("expected iteration to stop after the first record, got %d", n)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	for _, pos := range []event.Pos{{0, 0, 0}, {-1, -64, 1}, {1 << 20, 319, -(1 << 20)}} {
		got, ok := parseKey(key(pos))
		if !ok || got != pos {
			t.Fatalf("expected %v, got %v", pos, got)
		}
	}
	if _, ok := parseKey([]byte("machine")); ok {
		t.Fatalf("expected short key to be rejected")
	}
}

func TestSaveAllSkipsUnencodableRecords(t *testing.T) {
	db := openTestDB(t)
	good := Record{Pos: event.Pos{0, 64, 0}, Kind: "Grinder", ID: uuid.New()}
	bad := Record{Pos: event.Pos{1, 64, 1}, Kind: "Grinder", ID: uuid.New(), Data: map[string]any{"hook": func() {}}}

	if err := db.SaveAll([]Record{bad, good}); err == nil {
		t.Fatalf("expected the unencodable record to be reported")
	}
	if _, err := db.Load(good.Pos); err != nil {
		t.Fatalf("expected the other record to be saved: %v", err)
	}
	if _, err := db.Load(bad.Pos); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the unencodable record to be skipped, got %v", err)
	}
}
