// Package hook provides explicit callback lists.
//
// Each component owns its lists and invokes them synchronously at defined
// points of the frame; there is no global event bus.
package hook

// Handle identifies a registered callback. The zero Handle is never issued.
type Handle uint64

type entry[T any] struct {
	id Handle
	fn func(T)
}

// List is an ordered list of callbacks receiving a T.
// The zero value is ready to use.
type List[T any] struct {
	entries []entry[T]
	next    Handle
}

// Add registers fn and returns a handle for Remove. A nil fn is ignored and
// yields the zero Handle.
func (l *List[T]) Add(fn func(T)) Handle {
	if fn == nil {
		return 0
	}
	l.next++
	l.entries = append(l.entries, entry[T]{id: l.next, fn: fn})
	return l.next
}

// Remove unregisters a callback. Removing an unknown handle is a no-op.
func (l *List[T]) Remove(h Handle) bool {
	for i, e := range l.entries {
		if e.id == h {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Notify calls every callback in registration order. Callbacks added or
// removed while notifying take effect on the next Notify.
func (l *List[T]) Notify(v T) {
	entries := l.entries
	for _, e := range entries {
		e.fn(v)
	}
}

// Len returns the number of registered callbacks.
func (l *List[T]) Len() int {
	return len(l.entries)
}

// Clear removes every callback.
func (l *List[T]) Clear() {
	l.entries = nil
}
