// Package txguard runs code against a world.Tx that may have finished in the meantime, such as work
// queued by machines that is flushed at the end of a tick.
package txguard

import "github.com/df-mc/dragonfly/server/world"

// ClosedPanicMessage is the panic value of a world.Tx used after its transaction finished.
const ClosedPanicMessage = "world.Tx: use of transaction after transaction finishes is not permitted"

// Run runs fn and reports if it completed. False is returned if tx is nil or if fn used tx after it
// finished. Any other panic is propagated.
func Run(tx *world.Tx, fn func()) (ok bool) {
	return run(tx, fn)
}

// Value runs fn and returns its value. ok is false under the same conditions as Run.
func Value[T any](tx *world.Tx, fn func() T) (value T, ok bool) {
	ok = run(tx, func() {
		value = fn()
	})
	return
}

// Each calls fn for every element of s in order, stopping at the first call that found tx finished. It
// returns the amount of elements fn completed for, so that callers can retry the rest in a later
// transaction.
func Each[T any](tx *world.Tx, s []T, fn func(tx *world.Tx, v T)) int {
	for i, v := range s {
		if !run(tx, func() { fn(tx, v) }) {
			return i
		}
	}
	return len(s)
}

func run(tx *world.Tx, fn func()) (ok bool) {
	if tx == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			if msg, str := r.(string); str && msg == ClosedPanicMessage {
				ok = false
				return
			}
			panic(r)
		}
	}()
	fn()
	return true
}
