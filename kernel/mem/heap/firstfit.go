package heap

import (
	"sync"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
)

// firstFitHeader sits at the start of every block, free or allocated. Its
// size field always covers the header itself.
type firstFitHeader struct {
	size uint64
	next uintptr
}

var firstFitHeaderSize = mem.Size(unsafe.Sizeof(firstFitHeader{}))

func firstFitHeaderAt(addr uintptr) *firstFitHeader {
	return (*firstFitHeader)(unsafe.Pointer(addr))
}

// FirstFitAllocator is a first-fit free-list allocator: the free list is
// threaded through the free blocks themselves, and allocation walks it
// looking for the first block large enough to satisfy the request, splitting
// off any leftover tail that is itself big enough to host a header.
type FirstFitAllocator struct {
	mu   sync.Mutex
	head uintptr
}

// NewFirstFitAllocator carves a single free block spanning the entire
// [heapStart, heapStart+heapSize) range.
func NewFirstFitAllocator(heapStart uintptr, heapSize mem.Size) *FirstFitAllocator {
	h := firstFitHeaderAt(heapStart)
	h.size = uint64(heapSize)
	h.next = 0

	return &FirstFitAllocator{head: heapStart}
}

// merge repeatedly scans the free list for a block immediately adjacent to
// block, coalescing until no further merge is possible. Every successful
// merge unlinks a node and restarts the scan from a.head rather than
// continuing from the node that follows it, since that node's own
// predecessor may have just been spliced out from under it.
func (a *FirstFitAllocator) merge(block uintptr) uintptr {
	for {
		merged := false

		var previous uintptr
		current := a.head
		for current != 0 {
			blockHdr := firstFitHeaderAt(block)
			curHdr := firstFitHeaderAt(current)

			switch {
			case current+uintptr(curHdr.size) == block:
				curHdr.size += blockHdr.size
				block = current
			case block+uintptr(blockHdr.size) == current:
				blockHdr.size += curHdr.size
			default:
				previous = current
				current = curHdr.next
				continue
			}

			if previous != 0 {
				firstFitHeaderAt(previous).next = curHdr.next
			} else {
				a.head = curHdr.next
			}
			merged = true
			break
		}

		if !merged {
			break
		}
	}

	return block
}

// FreeBytes sums the usable (header-excluded) size of every free block.
func (a *FirstFitAllocator) FreeBytes() mem.Size {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total mem.Size
	for current := a.head; current != 0; current = firstFitHeaderAt(current).next {
		total += mem.Size(firstFitHeaderAt(current).size) - firstFitHeaderSize
	}
	return total
}

// Alloc returns a pointer to a data region of at least size bytes. A block
// is used whole unless the leftover tail is large enough to host its own
// header, in which case the tail is split off and kept free.
func (a *FirstFitAllocator) Alloc(size mem.Size) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()

	allocSize := uint64(firstFitHeaderSize + size)

	var previous uintptr
	current := a.head

	for current != 0 {
		curHdr := firstFitHeaderAt(current)

		if curHdr.size < allocSize {
			previous = current
			current = curHdr.next
			continue
		}

		if curHdr.size > allocSize {
			diff := curHdr.size - allocSize
			if diff > uint64(firstFitHeaderSize) {
				curHdr.size = allocSize

				newBlock := current + uintptr(curHdr.size)
				newHdr := firstFitHeaderAt(newBlock)
				newHdr.size = diff
				newHdr.next = curHdr.next

				curHdr.next = newBlock
			}
		}

		if previous != 0 {
			firstFitHeaderAt(previous).next = curHdr.next
		} else {
			a.head = curHdr.next
		}

		return current + uintptr(firstFitHeaderSize)
	}

	return 0
}

// Dealloc returns the block backing ptr to the free list, merging it with
// any adjacent free blocks first.
func (a *FirstFitAllocator) Dealloc(ptr uintptr, _ mem.Size) {
	a.mu.Lock()
	defer a.mu.Unlock()

	block := a.merge(ptr - uintptr(firstFitHeaderSize))
	blockHdr := firstFitHeaderAt(block)

	blockHdr.next = a.head
	a.head = block
}
