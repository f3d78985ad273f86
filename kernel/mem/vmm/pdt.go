package vmm

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

var (
	// activePDTFn is used by tests to override calls to activePDT which
	// will cause a fault if called in user-mode.
	activePDTFn = activePDT

	// switchPDTFn is used by tests to override calls to switchPDT which
	// will cause a fault if called in user-mode.
	switchPDTFn = switchPDT
)

// PageDirectoryTable describes the top-most table in a multi-level paging scheme.
type PageDirectoryTable struct {
	pdtFrame pmm.Frame
}

// Init sets up a fresh, all-zero page table directory at the supplied
// physical frame. Because every physical frame is reachable through the
// HHDM, Init can clear the frame directly without needing to establish a
// temporary mapping or a recursive self-reference first.
func (pdt *PageDirectoryTable) Init(pdtFrame pmm.Frame, _ FrameAllocatorFn) *kernel.Error {
	pdt.pdtFrame = pdtFrame
	mem.Memset(physToVirt(pdtFrame.Address()), 0, mem.PageSize)
	return nil
}

// Map establishes a mapping between a virtual page and a physical memory
// frame using this PDT as the root table, regardless of whether it is
// currently active.
func (pdt PageDirectoryTable) Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	return mapOn(pdt.pdtFrame, page, frame, flags, allocFn)
}

// Unmap removes a mapping previously installed by a call to Map on this PDT.
func (pdt PageDirectoryTable) Unmap(page Page) *kernel.Error {
	return unmapOn(pdt.pdtFrame, page)
}

// Activate enables this page directory table and flushes the TLB.
func (pdt PageDirectoryTable) Activate() {
	switchPDTFn(pdt.pdtFrame.Address())
}
