package machine

// The helpers below read values from decoded NBT compounds. NBT numbers may come back as any integer type
// depending on whether the compound was built in memory or decoded from bytes, so all integer kinds are
// accepted.

// String reads a string from m, returning "" if absent.
func String(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// Uint8 reads a byte from m, returning 0 if absent.
func Uint8(m map[string]any, key string) uint8 {
	v, _ := integer(m[key])
	return uint8(v)
}

// Int16 reads a short from m, returning 0 if absent.
func Int16(m map[string]any, key string) int16 {
	v, _ := integer(m[key])
	return int16(v)
}

// Int32 reads an int from m, returning 0 if absent.
func Int32(m map[string]any, key string) int32 {
	v, _ := integer(m[key])
	return int32(v)
}

// Map reads a compound from m, returning nil if absent.
func Map(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// Slice reads a list of compounds from m. Lists decoded from bytes hold []any, while lists built in memory
// hold []map[string]any; both are accepted.
func Slice(m map[string]any, key string) []map[string]any {
	switch v := m[key].(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, e := range v {
			if c, ok := e.(map[string]any); ok {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case uint8:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case uint16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
