// Package idalloc hands out unique, monotonically increasing confirmation
// ids for new bookings.
package idalloc

import "sync/atomic"

// Allocator issues 32-bit ids starting at 1. The zero value is not usable;
// call New.
type Allocator struct {
	next atomic.Uint32
}

// New returns an Allocator whose first Next() call returns 1.
func New() *Allocator {
	a := &Allocator{}
	a.next.Store(1)
	return a
}

// Next returns the next id and advances the counter.
func (a *Allocator) Next() uint32 {
	return a.next.Add(1) - 1
}
