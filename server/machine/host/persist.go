package host

import (
	"errors"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/dm-vev/grindstone/server/machine"
	"github.com/dm-vev/grindstone/server/machine/event"
	"github.com/dm-vev/grindstone/server/machine/store"
)

func (m *Machines) occupied(pos cube.Pos) bool {
	_, g := m.grindstones[pos]
	_, c := m.cranks[pos]
	return g || c
}

// Records returns the store records of all placed machines.
func (m *Machines) Records() []store.Record {
	records := make([]store.Record, 0, m.Len())
	for pos, g := range m.grindstones {
		records = append(records, store.Record{Pos: event.Pos(pos), Kind: kindGrinder, ID: g.id, Data: g.EncodeNBT()})
	}
	for pos, c := range m.cranks {
		data := c.EncodeNBT()
		data["Face"] = uint8(c.face)
		records = append(records, store.Record{Pos: event.Pos(pos), Kind: kindAutoCrank, ID: c.id, Data: data})
	}
	return records
}

// Save writes all placed machines to the store.
func (m *Machines) Save() error {
	if m.conf.Store == nil {
		return nil
	}
	if err := m.conf.Store.SaveAll(m.Records()); err != nil {
		return fmt.Errorf("save machines: %w", err)
	}
	return nil
}

// Load places all machines held by the store. Grindstones are placed before the cranks attached to them.
// Records of unknown kinds and cranks without grindstone are logged and skipped.
func (m *Machines) Load() error {
	if m.conf.Store == nil {
		return nil
	}
	var cranks []store.Record
	err := m.conf.Store.Each(func(r store.Record) bool {
		switch r.Kind {
		case kindGrinder:
			g, err := m.placeGrindstone(cube.Pos(r.Pos), r.ID, cube.FaceNorth, cube.FaceUp)
			if err != nil {
				m.log.Error("load grindstone", "pos", r.Pos, "err", err)
				return true
			}
			g.DecodeNBT(r.Data)
		case kindAutoCrank:
			cranks = append(cranks, r)
		default:
			m.log.Warn("skip machine of unknown kind", "pos", r.Pos, "kind", r.Kind)
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("load machines: %w", err)
	}
	var errs []error
	for _, r := range cranks {
		face := cube.Face(machine.Uint8(r.Data, "Face"))
		target := cube.Pos(r.Pos).Side(face.Opposite())
		a, err := m.placeAutoCrank(target, r.ID, face)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.DecodeNBT(r.Data)
	}
	if len(errs) > 0 {
		m.log.Warn("auto cranks skipped on load", "err", errors.Join(errs...))
	}
	return nil
}

// deleteRecord removes the record of the machine at pos from the store.
func (m *Machines) deleteRecord(pos cube.Pos) {
	if m.conf.Store == nil {
		return
	}
	if err := m.conf.Store.Delete(event.Pos(pos)); err != nil {
		m.log.Error("delete machine record", "pos", pos, "err", err)
	}
}
