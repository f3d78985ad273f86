package vmm

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

// ErrInvalidMapping is returned when trying to lookup a virtual memory
// address that is not yet mapped.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

// PageTableEntryFlag describes a flag that can be applied to a page table entry.
type PageTableEntryFlag uintptr

// pageTableEntry describes a page table entry. These entries encode a
// physical frame address and a set of flags. The actual format of the entry
// and flags is architecture-dependent.
type pageTableEntry uintptr

// HasFlags returns true if this entry has all the input flags set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) == uintptr(flags)
}

// HasAnyFlag returns true if this entry has at least one of the input flags set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) != 0
}

// SetFlags sets the input list of flags on the page table entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = (pageTableEntry)(uintptr(*pte) | uintptr(flags))
}

// ClearFlags unsets the input list of flags from the page table entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = (pageTableEntry)(uintptr(*pte) &^ uintptr(flags))
}

// Frame returns the physical page frame that this page table entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uintptr(pte) & ptePhysPageMask) >> mem.PageShift)
}

// SetFrame updates the page table entry to point to the given physical frame.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = (pageTableEntry)((uintptr(*pte) &^ ptePhysPageMask) | frame.Address())
}

// pteForAddress returns the page table entry that corresponds to a
// particular virtual address in the currently active page directory table,
// along with the page level it was found at. It performs a page table walk
// down to the final level, stopping early at a present huge-page entry at P2
// or P3, and returns ErrInvalidMapping if any level along the way is not
// present.
func pteForAddress(virtAddr uintptr) (*pageTableEntry, uint8, *kernel.Error) {
	var (
		err      *kernel.Error
		entry    *pageTableEntry
		entryLvl uint8
	)

	walk(virtAddr, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagPresent) {
			entry = nil
			err = ErrInvalidMapping
			return false
		}

		entry, entryLvl = pte, pteLevel

		// A huge entry at P2 (2 MiB) or P3 (1 GiB) is itself the leaf;
		// its frame field points at the mapped physical region, not at
		// another page table, so the walk must not descend further.
		if pteLevel < pageLevels-1 && pte.HasFlags(FlagHugePage) {
			return false
		}

		return true
	})

	return entry, entryLvl, err
}
