package machine

import (
	"fmt"

	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// EncodeStack encodes a stack to its NBT representation. Empty stacks encode to nil. Data values without
// an NBT representation are left out.
func EncodeStack(s Stack) map[string]any {
	if s.Empty() {
		return nil
	}
	m := map[string]any{
		"Name":   s.item.Name,
		"Damage": s.item.Meta,
		"Count":  uint8(s.count),
	}
	if data, _ := NBTCompound(s.data); len(data) > 0 {
		m["tag"] = data
	}
	return m
}

// DecodeStack decodes a stack from its NBT representation. Missing or malformed entries decode to an empty
// stack.
func DecodeStack(m map[string]any) Stack {
	if m == nil {
		return Stack{}
	}
	s := NewStack(Item{Name: String(m, "Name"), Meta: Int16(m, "Damage")}, int(Uint8(m, "Count")))
	if tag := Map(m, "tag"); len(tag) > 0 && !s.Empty() {
		s = s.WithData(tag)
	}
	return s
}

// EncodeSlots encodes every non-empty slot of the inventory into a list of NBT compounds, each carrying its
// slot index under "Slot".
func EncodeSlots(inv *Inventory) []map[string]any {
	list := make([]map[string]any, 0, inv.Size())
	for slot, s := range inv.slots {
		m := EncodeStack(s)
		if m == nil {
			continue
		}
		m["Slot"] = uint8(slot)
		list = append(list, m)
	}
	return list
}

// DecodeSlots clears inv and fills it from a list produced by EncodeSlots. Entries with an invalid slot are
// skipped.
func DecodeSlots(inv *Inventory, list []map[string]any) {
	inv.Clear()
	for _, m := range list {
		s := DecodeStack(m)
		if s.Empty() {
			continue
		}
		if s.Count() > inv.max {
			s = s.WithCount(inv.max)
		}
		_ = inv.SetItem(int(Uint8(m, "Slot")), s)
	}
}

// Marshal encodes an NBT compound using the little endian encoding used for world storage.
func Marshal(m map[string]any) ([]byte, error) {
	b, err := nbt.MarshalEncoding(m, nbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("marshal nbt: %w", err)
	}
	return b, nil
}

// Unmarshal decodes an NBT compound produced by Marshal.
func Unmarshal(b []byte) (map[string]any, error) {
	var m map[string]any
	if err := nbt.UnmarshalEncoding(b, &m, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("unmarshal nbt: %w", err)
	}
	return m, nil
}
