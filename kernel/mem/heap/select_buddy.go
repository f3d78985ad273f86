//go:build !firstfit

package heap

import "github.com/alkhizanah/fajr/kernel/mem"

// New constructs the heap allocator variant selected for this build. The
// buddy allocator is the default; build with -tags firstfit to select the
// first-fit free-list variant instead.
func New(heapStart uintptr, heapSize mem.Size) Allocator {
	return NewBuddyAllocator(heapStart, heapSize)
}
