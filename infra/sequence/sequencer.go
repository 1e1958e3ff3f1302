// Package sequence provides strictly monotonic counters used to assign
// order ids (process-wide, by the facade, starting at 1) and trade ids
// (per book, also starting at 1).
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic values starting above a fixed
// floor.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a Sequencer whose first Next() call returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next value in the sequence.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last value issued, or the floor if none has been yet.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
