package machine

import (
	"reflect"
	"slices"
)

// NBTCompound converts the values of m to types that can be encoded as NBT tags, recursing into nested
// compounds and lists. Keys whose values have no NBT representation are left out and returned, sorted.
func NBTCompound(m map[string]any) (map[string]any, []string) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]any, len(m))
	var dropped []string
	for k, v := range m {
		if nv, ok := NBTValue(v); ok {
			out[k] = nv
			continue
		}
		dropped = append(dropped, k)
	}
	slices.Sort(dropped)
	return out, dropped
}

// NBTValue converts v to a type that can be encoded as an NBT tag. Integers without an NBT counterpart are
// widened to the nearest signed type and booleans become bytes. False is returned if v has no NBT
// representation, which includes lists holding values of different types.
func NBTValue(v any) (any, bool) {
	switch n := v.(type) {
	case uint8, int16, int32, int64, float32, float64, string, []byte, []int32, []int64:
		return v, true
	case bool:
		if n {
			return uint8(1), true
		}
		return uint8(0), true
	case int8:
		return int16(n), true
	case uint16:
		return int32(n), true
	case uint32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint64:
		return int64(n), true
	case map[string]any:
		m, _ := NBTCompound(n)
		return m, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, 0, rv.Len())
		var elem reflect.Type
		for i := range rv.Len() {
			e, ok := NBTValue(rv.Index(i).Interface())
			if !ok {
				return nil, false
			}
			if t := reflect.TypeOf(e); elem == nil {
				elem = t
			} else if t != elem {
				return nil, false
			}
			list = append(list, e)
		}
		return list, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(map[string]any, rv.Len())
		for it := rv.MapRange(); it.Next(); {
			if e, ok := NBTValue(it.Value().Interface()); ok {
				m[it.Key().String()] = e
			}
		}
		return m, true
	}
	return nil, false
}
