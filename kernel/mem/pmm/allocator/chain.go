package allocator

import (
	"sync"

	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
)

// MaxRegions bounds the number of physical memory regions the chain
// allocator can track. The boot loader's memory map rarely reports more
// than a handful of usable regions, so 128 leaves ample headroom.
const MaxRegions = 128

var errTooManyRegions = &kernel.Error{Module: "pmm/allocator", Message: "region chain capacity exceeded"}
var errNoSpace = &kernel.Error{Module: "pmm/allocator", Message: "no region has enough contiguous free pages"}
var errUnknownPointer = &kernel.Error{Module: "pmm/allocator", Message: "pointer does not belong to any tracked region"}

// Chain ties together the per-region BitmapAllocators that back physical
// page allocation. Regions are kept sorted in descending order of page
// count so that allocation requests are satisfied from the largest region
// first, keeping fragmentation concentrated in the smaller regions.
type Chain struct {
	mu      sync.Mutex
	regions [MaxRegions]*BitmapAllocator
	count   int
}

// AddRegion constructs a bitmap allocator over [regionStartVirt,
// regionStartVirt+regionLen) and inserts it into the chain, keeping the
// chain sorted by descending page count. It returns an error if the region
// is too small to host its own bitmap or the chain is already full.
func (c *Chain) AddRegion(regionStartVirt uintptr, regionLen mem.Size) *kernel.Error {
	if !CanBeUsed(regionLen) {
		return &kernel.Error{Module: "pmm/allocator", Message: "region too small to host its own bitmap"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == MaxRegions {
		return errTooManyRegions
	}

	a := NewBitmapAllocator(regionStartVirt, regionLen)

	insertAt := c.count
	for i := 0; i < c.count; i++ {
		if c.regions[i].PageCount() < a.PageCount() {
			insertAt = i
			break
		}
	}

	copy(c.regions[insertAt+1:c.count+1], c.regions[insertAt:c.count])
	c.regions[insertAt] = a
	c.count++

	return nil
}

// RegionCount returns the number of regions currently tracked by the chain.
func (c *Chain) RegionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Alloc walks the chain in descending page-count order and returns the
// first contiguous run of pages big enough to satisfy size.
func (c *Chain) Alloc(size mem.Size) (uintptr, *kernel.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := 0; i < c.count; i++ {
		if ptr := c.regions[i].Alloc(size); ptr != 0 {
			return ptr, nil
		}
	}

	return 0, errNoSpace
}

// regionFor returns the region that owns ptr, assuming the caller already
// holds c.mu.
func (c *Chain) regionFor(ptr uintptr) *BitmapAllocator {
	for i := 0; i < c.count; i++ {
		if c.regions[i].Contains(ptr) {
			return c.regions[i]
		}
	}
	return nil
}

// Dealloc releases a previous allocation of size bytes at ptr.
func (c *Chain) Dealloc(ptr uintptr, size mem.Size) *kernel.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.regionFor(ptr)
	if r == nil {
		return errUnknownPointer
	}
	r.Dealloc(ptr, size)
	return nil
}

// Realloc grows or shrinks a previous allocation. When the owning region
// can satisfy the resize in place it does so without moving the
// allocation; otherwise it falls back to an alloc-copy-free across the
// whole chain. The caller is responsible for copying any data beyond what
// memCopy below preserves automatically.
func (c *Chain) Realloc(ptr uintptr, oldSize, newSize mem.Size, memCopy func(dst, src uintptr, n mem.Size)) (uintptr, *kernel.Error) {
	c.mu.Lock()

	r := c.regionFor(ptr)
	if r == nil {
		c.mu.Unlock()
		return 0, errUnknownPointer
	}

	if r.Resize(ptr, oldSize, newSize) {
		c.mu.Unlock()
		return ptr, nil
	}
	c.mu.Unlock()

	newPtr, err := c.Alloc(newSize)
	if err != nil {
		return 0, err
	}

	copyLen := oldSize
	if newSize < copyLen {
		copyLen = newSize
	}
	memCopy(newPtr, ptr, copyLen)

	if derr := c.Dealloc(ptr, oldSize); derr != nil {
		return 0, derr
	}

	return newPtr, nil
}

// FreeBytes sums the free bytes reported by every tracked region.
func (c *Chain) FreeBytes() mem.Size {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total mem.Size
	for i := 0; i < c.count; i++ {
		total += c.regions[i].FreeBytes()
	}
	return total
}
