// Package listeners keeps the change listeners of a component.
package listeners

// Set holds listeners in registration order. It is not safe for concurrent
// use; the owning component guards it with its own lock.
type Set[T any] struct {
	next    uint64
	entries []entry[T]
}

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Add registers fn and returns the id that removes it.
func (s *Set[T]) Add(fn func(T)) uint64 {
	s.next++
	s.entries = append(s.entries, entry[T]{id: s.next, fn: fn})
	return s.next
}

// Remove drops the listener with the given id. Unknown ids are ignored.
func (s *Set[T]) Remove(id uint64) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered listeners.
func (s *Set[T]) Len() int { return len(s.entries) }

// Emit calls every listener with v.
func (s *Set[T]) Emit(v T) {
	for _, e := range s.entries {
		e.fn(v)
	}
}
