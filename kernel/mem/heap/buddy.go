package heap

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
)

// buddyHeader sits at the start of every block, free or allocated. Its size
// field always covers the header itself.
type buddyHeader struct {
	size uint64
	next uintptr
}

var buddyHeaderSize = mem.Size(unsafe.Sizeof(buddyHeader{}))

func buddyHeaderAt(addr uintptr) *buddyHeader {
	return (*buddyHeader)(unsafe.Pointer(addr))
}

// BuddyAllocator is a power-of-two buddy allocator. The free list is
// threaded through the free blocks themselves so no separate bookkeeping
// storage is required.
type BuddyAllocator struct {
	mu   sync.Mutex
	base uintptr
	head uintptr
}

// NewBuddyAllocator carves a single free block out of [heapStart,
// heapStart+heapSize), rounding the usable size down to the nearest power
// of two so that every split produces equal-sized buddies.
func NewBuddyAllocator(heapStart uintptr, heapSize mem.Size) *BuddyAllocator {
	size := uint64(1) << (bits.Len64(uint64(heapSize)) - 1)

	h := buddyHeaderAt(heapStart)
	h.size = size
	h.next = 0

	return &BuddyAllocator{base: heapStart, head: heapStart}
}

// buddyAddress returns the address of block's buddy of the given size, per
// spec.md §4.5's rule: buddies are found by XOR-ing the block's offset from
// the arena base with its size.
func (a *BuddyAllocator) buddyAddress(block uintptr, size uint64) uintptr {
	return a.base + (uintptr(size) ^ (block - a.base))
}

// split halves a free block in place and returns the address of the new
// right-hand buddy, linking it in as the left block's successor.
func (a *BuddyAllocator) split(left uintptr) uintptr {
	leftHeader := buddyHeaderAt(left)
	leftHeader.size /= 2

	right := left + uintptr(leftHeader.size)
	rightHeader := buddyHeaderAt(right)
	*rightHeader = *leftHeader
	rightHeader.next = leftHeader.next

	leftHeader.next = right
	return right
}

// merge looks up block's buddy in the free list by address and, whenever it
// is present and the same size, unlinks it and doubles block in place,
// repeating against the larger block's new buddy until no buddy is free or
// the block has grown to cover the whole heap.
func (a *BuddyAllocator) merge(block uintptr) uintptr {
	blockHdr := buddyHeaderAt(block)

	for {
		buddy := a.buddyAddress(block, blockHdr.size)

		var previous uintptr
		found := false
		for current := a.head; current != 0; {
			curHdr := buddyHeaderAt(current)
			if current == buddy && curHdr.size == blockHdr.size {
				if previous != 0 {
					buddyHeaderAt(previous).next = curHdr.next
				} else {
					a.head = curHdr.next
				}
				found = true
				break
			}
			previous = current
			current = curHdr.next
		}

		if !found {
			break
		}

		newSize := blockHdr.size * 2
		if buddy < block {
			block = buddy
		}
		blockHdr = buddyHeaderAt(block)
		blockHdr.size = newSize
	}

	return block
}

// FreeBytes sums the usable (header-excluded) size of every free block.
func (a *BuddyAllocator) FreeBytes() mem.Size {
	a.mu.Lock()
	defer a.mu.Unlock()

	var total mem.Size
	for current := a.head; current != 0; current = buddyHeaderAt(current).next {
		total += mem.Size(buddyHeaderAt(current).size) - buddyHeaderSize
	}
	return total
}

// Alloc returns a pointer to a data region of at least size bytes, splitting
// free blocks as needed, or 0 if no free block is large enough.
func (a *BuddyAllocator) Alloc(size mem.Size) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()

	allocSize := uint64(buddyHeaderSize + size)

	var previous uintptr
	current := a.head

	for current != 0 {
		curHdr := buddyHeaderAt(current)

		if curHdr.size < allocSize {
			previous = current
			current = curHdr.next
			continue
		}

		for curHdr.size/2 >= allocSize {
			a.split(current)
			curHdr = buddyHeaderAt(current)
		}

		if previous != 0 {
			buddyHeaderAt(previous).next = curHdr.next
		} else {
			a.head = curHdr.next
		}

		return current + uintptr(buddyHeaderSize)
	}

	return 0
}

// Dealloc returns the block backing ptr to the free list, merging it with
// any adjacent free buddies first.
func (a *BuddyAllocator) Dealloc(ptr uintptr, _ mem.Size) {
	a.mu.Lock()
	defer a.mu.Unlock()

	block := a.merge(ptr - uintptr(buddyHeaderSize))
	blockHdr := buddyHeaderAt(block)

	blockHdr.next = a.head
	a.head = block
}
