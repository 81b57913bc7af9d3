package msgstore

import "sync/atomic"

// Sequence hands out message IDs starting at 1. It is safe for concurrent
// use.
type Sequence struct {
	last atomic.Uint64
}

// Next reserves and returns the next ID.
func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued ID, or 0 if none.
func (s *Sequence) Last() uint64 {
	return s.last.Load()
}
