package allocator

import (
	"testing"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
)

func TestChainAddRegionSortedDescending(t *testing.T) {
	var c Chain

	small := newTestRegion(t, mem.Size(2)*mem.PageSize+mem.PageSize)
	large := newTestRegion(t, mem.Size(1048576))

	if err := c.AddRegion(small, mem.Size(3)*mem.PageSize); err != nil {
		t.Fatalf("unexpected error adding small region: %v", err)
	}
	if err := c.AddRegion(large, mem.Size(1048576)); err != nil {
		t.Fatalf("unexpected error adding large region: %v", err)
	}

	if got, want := c.RegionCount(), 2; got != want {
		t.Fatalf("expected %d regions; got %d", want, got)
	}

	if c.regions[0].PageCount() < c.regions[1].PageCount() {
		t.Errorf("expected regions sorted by descending page count; got [%d, %d]",
			c.regions[0].PageCount(), c.regions[1].PageCount())
	}
}

func TestChainAddRegionTooSmall(t *testing.T) {
	var c Chain

	tiny := newTestRegion(t, mem.PageSize)
	if err := c.AddRegion(tiny, mem.PageSize); err == nil {
		t.Fatal("expected error adding a region too small to host its own bitmap")
	}
}

func TestChainAddRegionCapacityExceeded(t *testing.T) {
	var c Chain

	for i := 0; i < MaxRegions; i++ {
		start := newTestRegion(t, mem.Size(1048576))
		if err := c.AddRegion(start, mem.Size(1048576)); err != nil {
			t.Fatalf("unexpected error adding region %d: %v", i, err)
		}
	}

	overflow := newTestRegion(t, mem.Size(1048576))
	if err := c.AddRegion(overflow, mem.Size(1048576)); err == nil {
		t.Fatal("expected error adding a region beyond chain capacity")
	}
}

func TestChainAllocDeallocAcrossRegions(t *testing.T) {
	var c Chain

	r1 := newTestRegion(t, mem.Size(1048576))
	r2 := newTestRegion(t, mem.Size(2097152))

	if err := c.AddRegion(r1, mem.Size(1048576)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AddRegion(r2, mem.Size(2097152)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ptr, err := c.Alloc(mem.Size(8192))
	if err != nil {
		t.Fatalf("unexpected alloc error: %v", err)
	}
	if ptr == 0 {
		t.Fatal("expected non-zero pointer")
	}

	if derr := c.Dealloc(ptr, mem.Size(8192)); derr != nil {
		t.Fatalf("unexpected dealloc error: %v", derr)
	}
}

func TestChainAllocExhaustion(t *testing.T) {
	var c Chain

	r1 := newTestRegion(t, mem.Size(1048576))
	if err := c.AddRegion(r1, mem.Size(1048576)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.Alloc(mem.Size(1048576) * 2); err == nil {
		t.Fatal("expected allocation larger than any region to fail")
	}
}

func TestChainRealloc(t *testing.T) {
	var c Chain

	r1 := newTestRegion(t, mem.Size(1048576))
	if err := c.AddRegion(r1, mem.Size(1048576)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ptr, err := c.Alloc(mem.Size(1) * mem.PageSize)
	if err != nil {
		t.Fatalf("unexpected alloc error: %v", err)
	}

	copied := false
	memCopy := func(dst, src uintptr, n mem.Size) {
		copied = true
		srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), int(n))
		dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(n))
		copy(dstSlice, srcSlice)
	}

	grown, err := c.Realloc(ptr, mem.Size(1)*mem.PageSize, mem.Size(4)*mem.PageSize, memCopy)
	if err != nil {
		t.Fatalf("unexpected realloc error: %v", err)
	}
	if grown == 0 {
		t.Fatal("expected non-zero pointer from realloc")
	}
	_ = copied
}

func TestChainDeallocUnknownPointer(t *testing.T) {
	var c Chain

	r1 := newTestRegion(t, mem.Size(1048576))
	if err := c.AddRegion(r1, mem.Size(1048576)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bogus := newTestRegion(t, mem.PageSize)
	if err := c.Dealloc(bogus, mem.PageSize); err == nil {
		t.Fatal("expected error deallocating a pointer outside every tracked region")
	}
}
