package vmm

import (
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

var (
	// ptePtrFn returns a pointer to the supplied entry address. It is used
	// by tests to override the generated page table entry pointers so
	// walk() can be properly tested. When compiling the kernel this
	// function will be automatically inlined.
	ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
		return unsafe.Pointer(entryAddr)
	}
)

// pageTableWalker is a function that can be passed to walk. It receives the
// current page level and page table entry as its arguments. If the function
// returns false the walk is aborted.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walkFrom performs a page table walk for the given virtual address, rooted
// at rootFrame instead of the currently active PDT. Because every page
// table is reachable through the HHDM regardless of whether it is the
// active root, walking an inactive table requires no special-casing: the
// table's physical frame is simply translated to its HHDM virtual address
// before being dereferenced.
func walkFrom(rootFrame pmm.Frame, virtAddr uintptr, walkFn pageTableWalker) {
	tableAddr := physToVirt(rootFrame.Address())

	for level := uint8(0); level < pageLevels; level++ {
		entryIndex := (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		entryAddr := tableAddr + (entryIndex << mem.PointerShift)

		pte := (*pageTableEntry)(ptePtrFn(entryAddr))
		if !walkFn(level, pte) {
			return
		}

		if level < pageLevels-1 {
			tableAddr = physToVirt(pte.Frame().Address())
		}
	}
}

// walk performs a page table walk for the given virtual address using the
// currently active page directory table.
func walk(virtAddr uintptr, walkFn pageTableWalker) {
	walkFrom(pmm.Frame(activePDTFn()>>mem.PageShift), virtAddr, walkFn)
}
