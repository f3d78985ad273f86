package heap

import (
	"testing"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
)

func newFirstFitTestHeap(t *testing.T, size mem.Size) uintptr {
	t.Helper()
	buf := make([]byte, size)
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestFirstFitAllocatorAllocDealloc(t *testing.T) {
	start := newFirstFitTestHeap(t, mem.Size(4096))
	a := NewFirstFitAllocator(start, mem.Size(4096))

	freeBefore := a.FreeBytes()

	ptr := a.Alloc(mem.Size(64))
	if ptr == 0 {
		t.Fatal("expected Alloc to succeed")
	}

	if a.FreeBytes() >= freeBefore {
		t.Error("expected free bytes to shrink after Alloc")
	}

	a.Dealloc(ptr, mem.Size(64))

	if got := a.FreeBytes(); got != freeBefore {
		t.Errorf("expected free bytes to return to %d after dealloc+merge; got %d", freeBefore, got)
	}
}

func TestFirstFitAllocatorSplitsLeftoverTail(t *testing.T) {
	start := newFirstFitTestHeap(t, mem.Size(4096))
	a := NewFirstFitAllocator(start, mem.Size(4096))

	p1 := a.Alloc(mem.Size(64))
	p2 := a.Alloc(mem.Size(64))

	if p1 == 0 || p2 == 0 {
		t.Fatal("expected both allocations to succeed")
	}
	if p1 == p2 {
		t.Fatal("expected distinct allocations to receive distinct addresses")
	}

	a.Dealloc(p1, mem.Size(64))
	a.Dealloc(p2, mem.Size(64))
}

func TestFirstFitAllocatorDeallocMergesBothNeighborsInOnePass(t *testing.T) {
	start := newFirstFitTestHeap(t, mem.Size(4096))
	a := NewFirstFitAllocator(start, mem.Size(4096))

	freeBefore := a.FreeBytes()

	p1 := a.Alloc(mem.Size(64))
	p2 := a.Alloc(mem.Size(64))
	p3 := a.Alloc(mem.Size(64))
	p4 := a.Alloc(mem.Size(64))
	if p1 == 0 || p2 == 0 || p3 == 0 || p4 == 0 {
		t.Fatal("expected all four allocations to succeed")
	}
	p4BlockSize := firstFitHeaderAt(p4 - uintptr(firstFitHeaderSize)).size

	// Free the two outer blocks first so both of p2's neighbors are free
	// by the time it is deallocated, forcing merge(block2) to coalesce
	// left and right in a single Dealloc call.
	a.Dealloc(p1, mem.Size(64))
	a.Dealloc(p3, mem.Size(64))
	a.Dealloc(p2, mem.Size(64))

	// Two free blocks now remain instead of one (the merged p1+p2+p3 run
	// and the leftover tail), so one extra header's worth of space is
	// spoken for compared to freeBefore, on top of p4's own block.
	if got, want := a.FreeBytes(), freeBefore-mem.Size(p4BlockSize)-firstFitHeaderSize; got != want {
		t.Errorf("expected %d free bytes after merging p1+p2+p3 back together (p4 still allocated); got %d", want, got)
	}

	nodes := 0
	for current := a.head; current != 0; current = firstFitHeaderAt(current).next {
		nodes++
	}
	if nodes != 2 {
		t.Errorf("expected exactly 2 free blocks (the merged p1+p2+p3 run and the leftover tail); got %d", nodes)
	}
}

func TestFirstFitAllocatorExhaustion(t *testing.T) {
	start := newFirstFitTestHeap(t, mem.Size(4096))
	a := NewFirstFitAllocator(start, mem.Size(4096))

	if ptr := a.Alloc(mem.Size(8192)); ptr != 0 {
		t.Errorf("expected oversized Alloc to fail; got %#x", ptr)
	}
}
