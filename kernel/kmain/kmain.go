// Package kmain wires together the boot-time bring-up sequence: paging,
// physical and heap allocators, the ACPI table walker, and SMP bring-up.
package kmain

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/acpi"
	"github.com/alkhizanah/fajr/kernel/apic"
	// Imported for its package init(), which wires up the Go runtime's
	// sysReserve/sysMap/sysAlloc hooks (see kernel/goruntime).
	_ "github.com/alkhizanah/fajr/kernel/goruntime"
	"github.com/alkhizanah/fajr/kernel/hal"
	"github.com/alkhizanah/fajr/kernel/hal/bootinfo"
	"github.com/alkhizanah/fajr/kernel/kfmt/early"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/heap"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
	"github.com/alkhizanah/fajr/kernel/mem/pmm/allocator"
	"github.com/alkhizanah/fajr/kernel/mem/vmm"
	"github.com/alkhizanah/fajr/kernel/smp"
)

const heapSize = 4 * mem.Mb

var (
	errKmainReturned  = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoUsableMemory = &kernel.Error{Module: "kmain", Message: "boot loader reported no usable memory regions"}

	frameChain allocator.Chain
)

// allocFrame adapts frameChain to vmm.FrameAllocatorFn, translating the
// HHDM virtual pointer the chain hands back into the physical frame index
// callers such as vmm.Map and apic.InitIOAPICs expect.
func allocFrame() (pmm.Frame, *kernel.Error) {
	virtAddr, err := frameChain.Alloc(mem.PageSize)
	if err != nil {
		return pmm.InvalidFrame, err
	}
	return pmm.FrameFromAddress(vmm.VirtToPhys(virtAddr)), nil
}

// initPhysicalMemory ingests every usable region from the boot loader's
// memory map into frameChain and registers it as the frame allocator for
// every package that needs one.
func initPhysicalMemory() *kernel.Error {
	vmm.SetHHDMOffset(bootinfo.HHDMOffset())

	usableRegions := 0
	for _, region := range bootinfo.MemoryMap() {
		if region.Type != bootinfo.MemUsable {
			continue
		}

		virtStart := vmm.PhysToVirt(uintptr(region.Base))
		if err := frameChain.AddRegion(virtStart, mem.Size(region.Length)); err != nil {
			// A region too small to host its own bitmap, or a full
			// chain; skip it rather than fail bring-up over what is
			// usually slack space at the end of the memory map.
			continue
		}
		usableRegions++
	}

	if usableRegions == 0 {
		return errNoUsableMemory
	}

	vmm.SetFrameAllocator(allocFrame)
	apic.SetFrameAllocator(allocFrame)
	allocator.SetActive(&frameChain, vmm.VirtToPhys)
	return nil
}

// initHeap carves heapSize bytes out of frameChain for the kernel heap
// allocator selected at build time (see kernel/mem/heap's select_*.go).
func initHeap() *kernel.Error {
	heapStart, err := frameChain.Alloc(heapSize)
	if err != nil {
		return err
	}
	heap.SetActive(heap.New(heapStart, heapSize))
	return nil
}

// bringUpCPUs walks the ACPI tables for the MADT, brings the bootstrap
// processor online, and releases every application processor the boot
// loader reported by writing the AP entry address into its trampoline slot.
func bringUpCPUs() *kernel.Error {
	rsdpPhysAddr, err := bootinfo.MustRSDP()
	if err != nil {
		return err
	}

	tables, err := acpi.Walk(rsdpPhysAddr)
	if err != nil {
		return err
	}

	if err := smp.BootBSP(tables); err != nil {
		return err
	}

	smp.WriteAPTrampolines()
	return nil
}

// Kmain is the kernel's entrypoint, invoked by the rt0 layer once it has
// called bootinfo.Init with the boot loader's responses. Parsing the boot
// protocol's wire structures themselves is an external collaborator's
// concern (see kernel/hal/bootinfo), so Kmain takes no arguments.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the
// CPU.
//
//go:noinline
func Kmain() {
	if err := bootinfo.CheckBaseRevision(); err != nil {
		kernel.Panic(err)
	}

	if err := hal.InitTerminal(); err != nil {
		kernel.Panic(err)
	}
	hal.ActiveTerminal.Clear()
	early.Printf("Starting fajr\n")

	var err *kernel.Error
	if err = initPhysicalMemory(); err != nil {
		kernel.Panic(err)
	} else if err = vmm.Init(); err != nil {
		kernel.Panic(err)
	} else if err = initHeap(); err != nil {
		kernel.Panic(err)
	} else if err = bringUpCPUs(); err != nil {
		kernel.Panic(err)
	}

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead-code and eliminating it.
	kernel.Panic(errKmainReturned)
}
