//go:build firstfit

package heap

import "github.com/alkhizanah/fajr/kernel/mem"

// New constructs the heap allocator variant selected for this build.
func New(heapStart uintptr, heapSize mem.Size) Allocator {
	return NewFirstFitAllocator(heapStart, heapSize)
}
