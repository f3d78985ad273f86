package vmm

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

// ReservedZeroedFrame is a special zero-cleared frame allocated by Init. Its
// purpose is to assist in implementing on-demand memory allocation when
// mapped in conjunction with FlagCopyOnWrite:
//
//	mapFlags := vmm.FlagPresent | vmm.FlagCopyOnWrite
//	for page := start; pageCount > 0; pageCount, page = pageCount-1, page+1 {
//	    if err := vmm.Map(page, vmm.ReservedZeroedFrame, mapFlags, allocFn); err != nil {
//	        return err
//	    }
//	}
//
// A write to any of the above pages triggers a page fault, causing a new
// frame to be allocated, the blank contents copied over, and the mapping
// updated in place with RW permissions.
var ReservedZeroedFrame pmm.Frame

var (
	// protectReservedZeroedPage is set to true once ReservedZeroedFrame
	// has been initialized, to prevent it from ever being mapped RW.
	protectReservedZeroedPage bool

	// flushTLBEntryFn is used by tests to override calls to flushTLBEntry
	// which will cause a fault if called in user-mode.
	flushTLBEntryFn = flushTLBEntry

	errNoHugePageSupport           = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}
	errAttemptToRWMapReservedFrame = &kernel.Error{Module: "vmm", Message: "reserved blank frame cannot be mapped with a RW flag"}
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// mapOn establishes a page mapping using rootFrame as the root page
// directory table, allocating and clearing any missing intermediate tables
// along the way via allocFn. Because intermediate tables are always
// accessed through the HHDM, this works identically whether rootFrame is
// the currently active PDT or not.
func mapOn(rootFrame pmm.Frame, page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	if protectReservedZeroedPage && frame == ReservedZeroedFrame && (flags&FlagRW) != 0 {
		return errAttemptToRWMapReservedFrame
	}

	var err *kernel.Error

	walkFrom(rootFrame, page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		// If we reached the last level all we need to do is map the
		// frame in place, flag it as present, and flush its TLB entry.
		if pteLevel == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(FlagPresent | flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		// Next table does not yet exist; allocate a physical frame for
		// it, map it, and clear its contents via its HHDM address.
		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = allocFn()
			if err != nil {
				return false
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)

			mem.Memset(physToVirt(newTableFrame.Address()), 0, mem.PageSize)
		}

		return true
	})

	return err
}

// Map establishes a mapping between a virtual page and a physical memory
// frame using the currently active page directory table. Calls to Map will
// use the supplied physical frame allocator to initialize missing page
// tables at each paging level supported by the MMU.
//
// Attempts to map ReservedZeroedFrame with a RW flag will result in an error.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	return mapOn(pmm.Frame(activePDTFn()>>mem.PageShift), page, frame, flags, allocFn)
}

// unmapOn removes a mapping previously installed via mapOn, using rootFrame
// as the root page directory table.
func unmapOn(rootFrame pmm.Frame, page Page) *kernel.Error {
	var err *kernel.Error

	walkFrom(rootFrame, page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		// If we reached the last level all we need to do is set the
		// page as non-present and flush its TLB entry.
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagPresent)
			flushTLBEntryFn(page.Address())
			return true
		}

		// Next table is not present; this is an invalid mapping.
		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		return true
	})

	return err
}

// Unmap removes a mapping previously installed via Map using the currently
// active page directory table.
func Unmap(page Page) *kernel.Error {
	return unmapOn(pmm.Frame(activePDTFn()>>mem.PageShift), page)
}
