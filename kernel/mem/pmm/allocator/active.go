package allocator

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

var (
	// active points to the Chain backing AllocFrame, set up once physical
	// memory regions have been ingested from the boot loader's memory map.
	active *Chain

	// virtToPhysFn converts the HHDM virtual address a Chain hands back
	// into the physical frame AllocFrame must return. It is a var so
	// tests can supply an identity mapping instead of depending on the
	// real HHDM offset.
	virtToPhysFn func(uintptr) uintptr

	errNoActiveChain = &kernel.Error{Module: "pmm/allocator", Message: "no active frame chain registered"}
)

// SetActive registers the Chain and virtual-to-physical translator that
// AllocFrame draws single frames from. Callers that already hold a *Chain
// (such as kmain's region bring-up) should keep using its Alloc/Dealloc
// methods directly; AllocFrame exists for code that only needs one frame
// at a time and has no Chain reference of its own, such as the Go runtime
// bootstrap shims.
func SetActive(c *Chain, virtToPhys func(uintptr) uintptr) {
	active = c
	virtToPhysFn = virtToPhys
}

// AllocFrame reserves a single physical page frame from the active chain.
func AllocFrame() (pmm.Frame, *kernel.Error) {
	if active == nil {
		return pmm.InvalidFrame, errNoActiveChain
	}

	virtAddr, err := active.Alloc(mem.PageSize)
	if err != nil {
		return pmm.InvalidFrame, err
	}
	return pmm.FrameFromAddress(virtToPhysFn(virtAddr)), nil
}
