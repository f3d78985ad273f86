package apic

import (
	"sync"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/acpi"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
	"github.com/alkhizanah/fajr/kernel/mem/vmm"
)

// maxIOAPICCount bounds the fixed table InitIOAPICs populates.
const maxIOAPICCount = 128

var (
	errNoIOAPICs = &kernel.Error{Module: "apic", Message: "no I/O APICs found in the MADT"}

	ioAPICsMu   sync.Mutex
	ioAPICs     [maxIOAPICCount]IOAPIC
	ioAPICCount int

	frameAllocator vmm.FrameAllocatorFn
	mapFn          = vmm.Map
)

// SetFrameAllocator registers the frame allocator InitIOAPICs and
// InitLocalAPIC use to materialize intermediate page tables when mapping
// MMIO regions into the HHDM.
func SetFrameAllocator(allocFn vmm.FrameAllocatorFn) {
	frameAllocator = allocFn
}

// IOAPIC is a memory-mapped I/O Advanced Programmable Interrupt Controller,
// addressed through its indirect index/data register pair at base and
// base+0x10.
type IOAPIC struct {
	base uintptr
}

func (io IOAPIC) regRead(index uint32) uint32 {
	*(*uint32)(unsafe.Pointer(io.base)) = index
	return *(*uint32)(unsafe.Pointer(io.base + 0x10))
}

func (io IOAPIC) regWrite(index, value uint32) {
	*(*uint32)(unsafe.Pointer(io.base)) = index
	*(*uint32)(unsafe.Pointer(io.base + 0x10)) = value
}

// redirectionRegs returns the low/high redirection-entry register indexes
// for the given I/O-APIC-local IRQ line.
func redirectionRegs(ioapicIRQ uint32) (low, high uint32) {
	low = 0x10 + 2*ioapicIRQ
	return low, low + 1
}

// EnableIRQ clears the mask bit for ioapicIRQ, the redirection table index
// local to this I/O APIC (not the global system interrupt number).
func (io IOAPIC) EnableIRQ(ioapicIRQ uint32) {
	reg, _ := redirectionRegs(ioapicIRQ)
	io.regWrite(reg, io.regRead(reg)&^(1<<16))
}

// DisableIRQ sets the mask bit for ioapicIRQ.
func (io IOAPIC) DisableIRQ(ioapicIRQ uint32) {
	reg, _ := redirectionRegs(ioapicIRQ)
	io.regWrite(reg, io.regRead(reg)|(1<<16))
}

// SetIRQ routes ioapicIRQ to vector on the local APIC identified by
// lapicID, using physical destination mode and fixed delivery mode. The
// high (destination) word is written before the low (vector/mask) word so
// the entry never spends time partially active with a stale destination.
func (io IOAPIC) SetIRQ(ioapicIRQ, lapicID, vector uint32) {
	lowReg, highReg := redirectionRegs(ioapicIRQ)

	low := redirectionLowWord(io.regRead(lowReg), vector)
	high := redirectionHighWord(io.regRead(highReg), lapicID)

	io.regWrite(highReg, high)
	io.regWrite(lowReg, low)
}

// redirectionLowWord computes the low redirection-entry word that enables
// ioapicIRQ, selects physical destination mode and fixed delivery, and
// sets the target vector.
func redirectionLowWord(existing, vector uint32) uint32 {
	low := existing
	low &^= 1 << 16 // unmask
	low &^= 1 << 11 // physical destination mode
	low &^= 0x700   // fixed delivery mode
	low &^= 0xff
	low |= vector
	return low
}

// redirectionHighWord computes the high redirection-entry word that
// targets lapicID as the destination.
func redirectionHighWord(existing, lapicID uint32) uint32 {
	high := existing
	high &^= 0xff000000
	high |= lapicID << 24
	return high
}

// InitIOAPICs walks madt's I/O APIC entries, identity-maps each
// controller's containing page into the HHDM with writable, write-through,
// uncached attributes, and records its virtual base. It is invoked once,
// on the bootstrap processor, after the ACPI walk completes.
func InitIOAPICs(madt *acpi.MADT) *kernel.Error {
	ioAPICsMu.Lock()
	defer ioAPICsMu.Unlock()

	it := madt.IOAPICs()
	for ioAPICCount < maxIOAPICCount {
		entry, ok := it.Next()
		if !ok {
			break
		}

		virtAddr, err := mapMMIO(uintptr(entry.Address))
		if err != nil {
			return err
		}

		ioAPICs[ioAPICCount] = IOAPIC{base: virtAddr}
		ioAPICCount++
	}

	if ioAPICCount == 0 {
		return errNoIOAPICs
	}
	return nil
}

// IOAPICCount returns the number of I/O APICs discovered by InitIOAPICs.
func IOAPICCount() int {
	ioAPICsMu.Lock()
	defer ioAPICsMu.Unlock()
	return ioAPICCount
}

// IOAPICAt returns the I/O APIC at the given index into the table
// InitIOAPICs populated.
func IOAPICAt(index int) IOAPIC {
	ioAPICsMu.Lock()
	defer ioAPICsMu.Unlock()
	return ioAPICs[index]
}

// mapMMIO maps the 4 KiB page containing physAddr into the HHDM with the
// writable, write-through, uncached attributes every MMIO register window
// in this package needs, and returns its HHDM virtual address.
func mapMMIO(physAddr uintptr) (uintptr, *kernel.Error) {
	virtAddr := vmm.PhysToVirt(physAddr)
	page := vmm.PageFromAddress(virtAddr)
	frame := pmm.FrameFromAddress(physAddr)

	flags := vmm.FlagPresent | vmm.FlagRW | vmm.FlagWriteThroughCaching | vmm.FlagDoNotCache
	if err := mapFn(page, frame, flags, frameAllocator); err != nil {
		return 0, err
	}
	return virtAddr, nil
}
