package machine

import (
	"fmt"
	"maps"
	"reflect"
)

// DefaultMaxCount is the maximum count of a stack unless an inventory limits it further.
const DefaultMaxCount = 64

// Item identifies a type of item by its namespaced name and meta value. Item is comparable and may be used
// as a map key.
type Item struct {
	// Name is the namespaced identifier of the item, such as "minecraft:iron_ore".
	Name string
	// Meta is the variant of the item. Most items have a meta of 0.
	Meta int16
}

// String ...
func (i Item) String() string {
	if i.Meta == 0 {
		return i.Name
	}
	return fmt.Sprintf("%v:%v", i.Name, i.Meta)
}

// Stack is an amount of items of the same type, optionally carrying item-level data. The zero value is an
// empty stack. Stack is immutable: every method that changes it returns a new Stack.
type Stack struct {
	item  Item
	count int
	data  map[string]any
}

// NewStack returns a stack of count items of type it. If count is 0 or lower, the stack returned is empty.
func NewStack(it Item, count int) Stack {
	if count <= 0 || it.Name == "" {
		return Stack{}
	}
	return Stack{item: it, count: count}
}

// Empty checks if the stack holds no items.
func (s Stack) Empty() bool {
	return s.count <= 0 || s.item.Name == ""
}

// Item returns the type of item in the stack. The zero Item is returned for empty stacks.
func (s Stack) Item() Item {
	if s.Empty() {
		return Item{}
	}
	return s.item
}

// Count returns the amount of items in the stack.
func (s Stack) Count() int {
	if s.Empty() {
		return 0
	}
	return s.count
}

// Grow grows the stack by n items, which may be negative. Growing a stack to 0 or below makes it empty.
func (s Stack) Grow(n int) Stack {
	return s.WithCount(s.count + n)
}

// WithCount returns the stack with its count set to n, keeping item type and data.
func (s Stack) WithCount(n int) Stack {
	if n <= 0 || s.item.Name == "" {
		return Stack{}
	}
	s.count = n
	return s
}

// Data returns a copy of the item-level data of the stack. Nil is returned if the stack carries none.
func (s Stack) Data() map[string]any {
	if len(s.data) == 0 {
		return nil
	}
	return maps.Clone(s.data)
}

// Value returns a single value from the data of the stack.
func (s Stack) Value(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

// WithValue returns the stack with key set to val in its data. Passing a nil val removes the key.
func (s Stack) WithValue(key string, val any) Stack {
	data := maps.Clone(s.data)
	if val == nil {
		delete(data, key)
	} else {
		if data == nil {
			data = make(map[string]any, 1)
		}
		data[key] = val
	}
	if len(data) == 0 {
		data = nil
	}
	s.data = data
	return s
}

// WithData replaces all data of the stack.
func (s Stack) WithData(data map[string]any) Stack {
	if len(data) == 0 {
		s.data = nil
		return s
	}
	s.data = maps.Clone(data)
	return s
}

// Comparable checks if two stacks hold the same item with the same data, so that they could be merged.
// Counts are not compared.
func (s Stack) Comparable(o Stack) bool {
	if s.Empty() || o.Empty() {
		return s.Empty() == o.Empty()
	}
	if s.item != o.item {
		return false
	}
	if len(s.data) == 0 && len(o.data) == 0 {
		return true
	}
	return reflect.DeepEqual(s.data, o.data)
}

// Equal checks if two stacks are comparable and hold the same count.
func (s Stack) Equal(o Stack) bool {
	return s.Comparable(o) && s.Count() == o.Count()
}

// String ...
func (s Stack) String() string {
	if s.Empty() {
		return "Stack<empty>"
	}
	return fmt.Sprintf("Stack<%v x%v>", s.item, s.count)
}
