// Package allocator implements the physical-page allocators chained
// together by the kernel's global allocator hook: a per-region bitmap
// allocator (this file) and the descending-size chain that ties multiple
// regions together (chain.go).
package allocator

import (
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
)

// BitmapAllocator tracks free/used pages for a single contiguous memory
// region using a one-bit-per-page bitmap stored at the start of the region
// itself. A set bit means the page is free.
//
// The bitmap occupies the first ceil(ceil(pageCount/8)/PageSize) pages of
// the region; those pages are marked reserved (never handed out) as soon as
// the allocator is constructed.
type BitmapAllocator struct {
	regionStart uintptr
	pageCount   uint64
}

// bitmapPageCount returns the number of PageSize pages needed to store a
// one-bit-per-page bitmap for pageCount pages.
func bitmapPageCount(pageCount uint64) uint64 {
	bitmapBytes := (pageCount + 7) / 8
	return (bitmapBytes + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
}

// CanBeUsed returns true if a region of the given length has at least one
// free page left over after reserving space for its own bitmap.
func CanBeUsed(regionLen mem.Size) bool {
	pageCount := uint64(regionLen) / uint64(mem.PageSize)
	return pageCount > bitmapPageCount(pageCount)
}

// NewBitmapAllocator constructs a bitmap allocator over the region starting
// at regionStartVirt (already HHDM-mapped) spanning regionLen bytes, and
// reserves the pages needed to hold its own bitmap.
func NewBitmapAllocator(regionStartVirt uintptr, regionLen mem.Size) *BitmapAllocator {
	a := &BitmapAllocator{
		regionStart: regionStartVirt,
		pageCount:   uint64(regionLen) / uint64(mem.PageSize),
	}
	a.reserveBitmapPages()
	return a
}

// PageCount returns the total number of pages covered by this allocator,
// including the pages reserved to hold its own bitmap.
func (a *BitmapAllocator) PageCount() uint64 {
	return a.pageCount
}

func (a *BitmapAllocator) reserveBitmapPages() {
	reserved := bitmapPageCount(a.pageCount)
	for i := uint64(0); i < reserved; i++ {
		a.setFreeBit(i, false)
	}
	for i := reserved; i < a.pageCount; i++ {
		a.setFreeBit(i, true)
	}
}

func (a *BitmapAllocator) bitmapByte(index uint64) *byte {
	return (*byte)(unsafe.Pointer(a.regionStart + uintptr(index/8)))
}

func (a *BitmapAllocator) isFree(index uint64) bool {
	b := *a.bitmapByte(index)
	return b&(1<<(index%8)) != 0
}

func (a *BitmapAllocator) setFreeBit(index uint64, free bool) {
	bytePtr := a.bitmapByte(index)
	mask := byte(1 << (index % 8))
	if free {
		*bytePtr |= mask
	} else {
		*bytePtr &^= mask
	}
}

func (a *BitmapAllocator) getPage(index uint64) uintptr {
	return a.regionStart + uintptr(index)*uintptr(mem.PageSize)
}

// getPageIndexOf recovers the page index for a page-start pointer within
// this region. Per spec.md §9, callers must always pass page-start
// pointers — passing an address that is not page-aligned rounds up to the
// next page index rather than rejecting the call.
func (a *BitmapAllocator) getPageIndexOf(ptr uintptr) uint64 {
	delta := ptr - a.regionStart
	return (uint64(delta) + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
}

// Contains reports whether addr falls within this region's page range.
// The range is half-open: [regionStart, regionStart+pageCount*PageSize).
func (a *BitmapAllocator) Contains(addr uintptr) bool {
	end := a.regionStart + uintptr(a.pageCount)*uintptr(mem.PageSize)
	return addr >= a.regionStart && addr < end
}

// FreeBytes returns the number of bytes currently free in this region,
// computed by scanning the bitmap.
func (a *BitmapAllocator) FreeBytes() mem.Size {
	var free uint64
	for i := uint64(0); i < a.pageCount; i++ {
		if a.isFree(i) {
			free++
		}
	}
	return mem.Size(free) * mem.PageSize
}

// Alloc reserves ceil(size/PageSize) contiguous pages and returns the
// virtual address of the first page, or 0 if the region has no run of
// free pages long enough.
func (a *BitmapAllocator) Alloc(size mem.Size) uintptr {
	need := size.Pages()
	if need == 0 {
		need = 1
	}

	for start := uint64(0); start+need <= a.pageCount; start++ {
		ok := true
		for i := uint64(0); i < need; i++ {
			if !a.isFree(start + i) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		for i := uint64(0); i < need; i++ {
			a.setFreeBit(start+i, false)
		}
		return a.getPage(start)
	}

	return 0
}

// Dealloc releases the pages occupied by a previous allocation of size
// bytes starting at ptr.
func (a *BitmapAllocator) Dealloc(ptr uintptr, size mem.Size) {
	need := size.Pages()
	if need == 0 {
		need = 1
	}
	start := a.getPageIndexOf(ptr)
	for i := uint64(0); i < need; i++ {
		a.setFreeBit(start+i, true)
	}
}

// Resize attempts to grow or shrink an allocation in place without moving
// it. It returns true on success; the caller must alloc+copy+dealloc on
// false.
func (a *BitmapAllocator) Resize(ptr uintptr, oldSize mem.Size, newSize mem.Size) bool {
	oldPages := oldSize.Pages()
	newPages := newSize.Pages()
	if oldPages == 0 {
		oldPages = 1
	}
	if newPages == 0 {
		newPages = 1
	}

	start := a.getPageIndexOf(ptr)

	switch {
	case newPages == oldPages:
		return true
	case newPages < oldPages:
		for i := start + newPages; i < start+oldPages; i++ {
			a.setFreeBit(i, true)
		}
		return true
	default:
		for i := start + oldPages; i < start+newPages; i++ {
			if i >= a.pageCount || !a.isFree(i) {
				return false
			}
		}
		for i := start + oldPages; i < start+newPages; i++ {
			a.setFreeBit(i, false)
		}
		return true
	}
}
