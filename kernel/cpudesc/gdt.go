package cpudesc

import "github.com/alkhizanah/fajr/kernel/cpu"

// Selector identifies a segment selector installed in the GDT.
type Selector uint16

const (
	// NullSelector occupies slot 0; the CPU requires it to be present
	// and unused.
	NullSelector Selector = 0x00

	// KernelCodeSelector is the 64-bit kernel code segment.
	KernelCodeSelector Selector = 0x08

	// KernelDataSelector is the kernel data segment.
	KernelDataSelector Selector = 0x10

	// UserCodeSelector is the ring-3 code segment.
	UserCodeSelector Selector = 0x18

	// UserDataSelector is the ring-3 data segment.
	UserDataSelector Selector = 0x20

	// tssSelectorBase is the offset of CPU 0's TSS descriptor; each
	// subsequent CPU's descriptor follows at a 16-byte stride since a
	// TSS descriptor occupies two GDT slots.
	tssSelectorBase = 0x28
)

// TSSSelector returns the selector for the given CPU's TSS descriptor.
func TSSSelector(cpuID uint32) Selector {
	return Selector(tssSelectorBase + cpuID*16)
}

// gdtEntryFlags are the access/flag bits of a 64-bit GDT code/data
// descriptor, modeled after the teacher's page-table-entry flag idiom.
type gdtEntryFlags uint64

const (
	flagAccessed     gdtEntryFlags = 1 << 40
	flagWritable     gdtEntryFlags = 1 << 41
	flagExecutable   gdtEntryFlags = 1 << 43
	flagUserSegment  gdtEntryFlags = 1 << 44
	flagDPLRing3     gdtEntryFlags = 3 << 45
	flagPresent      gdtEntryFlags = 1 << 47
	flagLongMode     gdtEntryFlags = 1 << 53
	flagDefaultSize  gdtEntryFlags = 1 << 54
	flagGranularity  gdtEntryFlags = 1 << 55
	flagLimitLow     gdtEntryFlags = 0xffff
	flagLimitHigh    gdtEntryFlags = 0xf << 48
	flagBaseLow      gdtEntryFlags = 0xff_ffff << 16
	flagBaseHigh     gdtEntryFlags = 0xff << 56
	flagCommonFields = flagUserSegment | flagPresent | flagWritable | flagAccessed |
		flagLimitLow | flagLimitHigh | flagBaseLow | flagBaseHigh | flagGranularity

	kernelCodeFlags = flagCommonFields | flagLongMode | flagExecutable
	kernelDataFlags = flagCommonFields | flagDefaultSize
	userCodeFlags   = kernelCodeFlags | flagDPLRing3
	userDataFlags   = kernelDataFlags | flagDPLRing3
)

// sysDescFlags are the access bits of a 16-byte TSS system descriptor.
const (
	sysDescTypeAvailTSS = 0x9
	sysDescPresent      = 1 << 7
)

// maxGDTEntries bounds the table: null, 4 code/data segments, and a 2-slot
// TSS descriptor per CPU.
const maxGDTEntries = 5 + 2*cpu.MaxCPUCount

var gdtTable [maxGDTEntries]uint64

// tssDescriptor encodes a 16-byte TSS system descriptor spanning two GDT
// slots, given the virtual address and size of a TaskStateSegment.
func tssDescriptor(addr uintptr, size uint32) (low, high uint64) {
	limit := uint64(size - 1)
	base := uint64(addr)

	low = limit&0xffff | // limit 0:15
		(base&0xffffff)<<16 | // base 0:23
		uint64(sysDescTypeAvailTSS|sysDescPresent)<<40 |
		((limit>>16)&0xf)<<48 |
		((base >> 24) & 0xff) << 56

	high = (base >> 32) & 0xffffffff

	return low, high
}

// buildGDT populates gdtTable with the kernel/user code and data segments
// plus a TSS descriptor for every configured CPU, returning the number of
// populated 64-bit slots.
func buildGDT(tssAddr func(cpuID uint32) uintptr, tssSize uint32) int {
	gdtTable[0] = 0
	gdtTable[1] = uint64(kernelCodeFlags)
	gdtTable[2] = uint64(kernelDataFlags)
	gdtTable[3] = uint64(userCodeFlags)
	gdtTable[4] = uint64(userDataFlags)

	slot := 5
	for id := uint32(0); id < cpu.MaxCPUCount; id++ {
		low, high := tssDescriptor(tssAddr(id), tssSize)
		gdtTable[slot] = low
		gdtTable[slot+1] = high
		slot += 2
	}

	return slot
}

// Init builds the GDT and TSS descriptors for every CPU and loads the table
// with LGDT, reloading every segment register.
func Init() {
	for id := uint32(0); id < cpu.MaxCPUCount; id++ {
		initTSS(id)
	}

	buildGDT(tssAddrOf, tssSize)
	loadGDT(&gdtTable[0], uint16(maxGDTEntries*8-1))
}

// loadGDT issues LGDT against the table described by addr/limit, then
// performs a far return to reload CS with KernelCodeSelector and reloads the
// data segment registers with KernelDataSelector.
func loadGDT(addr *uint64, limit uint16)
