// Package slot tracks the single in-flight operation of a component.
//
// A Slot hands out Tickets. Starting a new operation bumps the generation,
// which cancels the previous ticket's context and makes its Current report
// false. Callers check Current under their own lock before applying a result,
// so a late response from a superseded request is dropped.
package slot

import (
	"context"
	"sync"
)

// Slot holds the generation counter for one kind of operation.
type Slot struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// Ticket identifies one operation started on a Slot.
type Ticket struct {
	slot *Slot
	gen  uint64
	ctx  context.Context
}

// Begin starts a new operation derived from parent and supersedes the previous one.
func (s *Slot) Begin(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.cancel = cancel
	return &Ticket{slot: s, gen: s.gen, ctx: ctx}
}

// Cancel supersedes the current operation without starting a new one.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Generation returns the current generation.
func (s *Slot) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Context is cancelled once the ticket is superseded.
func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Current reports whether no newer operation has started since this one.
func (t *Ticket) Current() bool {
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	return t.slot.gen == t.gen
}

// Done releases the ticket's context if it is still the current operation.
func (t *Ticket) Done() {
	t.slot.mu.Lock()
	defer t.slot.mu.Unlock()
	if t.slot.gen == t.gen && t.slot.cancel != nil {
		t.slot.cancel()
		t.slot.cancel = nil
	}
}
