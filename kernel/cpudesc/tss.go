package cpudesc

import (
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/cpu"
)

// istStackSize is the size of the dedicated stack used by the double-fault
// handler via IST 1 (InterruptStackTable[0]).
const istStackSize = 20 * 1024

// TaskStateSegment mirrors the x86_64 hardware TSS layout: reserved fields
// keep the struct packed exactly as the CPU expects it, even though Go never
// touches them.
type TaskStateSegment struct {
	reserved1           uint32
	PrivilegeStackTable [3]uint64
	reserved2           uint64
	InterruptStackTable [7]uint64
	reserved3           uint64
	reserved4           uint16
	IOMapBase           uint16
}

var (
	tssTable   [cpu.MaxCPUCount]TaskStateSegment
	istStacks  [cpu.MaxCPUCount][istStackSize]byte
)

// tssSize is the size in bytes of a single TaskStateSegment, used when
// constructing its GDT descriptor.
const tssSize = uint32(unsafe.Sizeof(TaskStateSegment{}))

// tssAddrOf returns the virtual address of the given CPU's TaskStateSegment.
func tssAddrOf(cpuID uint32) uintptr {
	return uintptr(unsafe.Pointer(&tssTable[cpuID]))
}

// initTSS prepares the given CPU's TaskStateSegment: it points IST 1
// (InterruptStackTable[0]) at a dedicated stack (so the double-fault handler never runs on a
// possibly-corrupt stack) and disables the I/O permission bitmap by pointing
// IOMapBase past the end of the structure.
func initTSS(cpuID uint32) {
	tss := &tssTable[cpuID]
	tss.InterruptStackTable[0] = uint64(uintptr(unsafe.Pointer(&istStacks[cpuID][0])) + istStackSize)
	tss.IOMapBase = uint16(tssSize)
}

// Load installs the current CPU's TSS selector with LTR. Init must have run
// first so the GDT contains a descriptor for this CPU.
func Load() {
	loadTR(uint16(TSSSelector(cpu.Get().ID)))
}

// loadTR issues LTR with the given selector.
func loadTR(selector uint16)
