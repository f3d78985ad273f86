// Package bootinfo provides a read-mostly facade over the responses
// published by a Limine-class boot protocol. The boot loader fills in a
// fixed set of response structures before transferring control to the
// kernel entrypoint; this package exposes pure getters over them plus the
// one writable field the kernel hands back to the loader (the per-CPU AP
// trampoline target, see CPUDescriptors).
package bootinfo

import "github.com/alkhizanah/fajr/kernel"

var (
	errBaseRevisionUnsupported = &kernel.Error{Module: "bootinfo", Message: "boot loader does not support the requested base revision"}
	errResponseMissing         = &kernel.Error{Module: "bootinfo", Message: "boot protocol response missing"}

	baseRevisionSupported bool

	hhdmOffset uintptr

	memoryMap []MemoryMapEntry

	framebuffer FramebufferInfo
	haveFB      bool

	rsdpPhysAddr uintptr
	haveRSDP     bool

	cpuDescriptors []*CPUDescriptor

	requestedStackSize uint64 = 0x100000
)

// MemoryEntryType classifies a MemoryMapEntry the way the boot protocol
// reports it.
type MemoryEntryType uint32

const (
	MemUsable MemoryEntryType = iota
	MemReserved
	MemACPIReclaimable
	MemACPINVS
	MemBadMemory
	MemBootloaderReclaimable
	MemKernelAndModules
	MemFramebuffer
)

// String returns a human readable label for the memory entry type.
func (t MemoryEntryType) String() string {
	switch t {
	case MemUsable:
		return "usable"
	case MemReserved:
		return "reserved"
	case MemACPIReclaimable:
		return "acpi-reclaimable"
	case MemACPINVS:
		return "acpi-nvs"
	case MemBadMemory:
		return "bad"
	case MemBootloaderReclaimable:
		return "bootloader-reclaimable"
	case MemKernelAndModules:
		return "kernel-and-modules"
	case MemFramebuffer:
		return "framebuffer"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes a single physical memory region as reported by
// the boot loader.
type MemoryMapEntry struct {
	Base   uint64
	Length uint64
	Type   MemoryEntryType
}

// FramebufferInfo describes the first framebuffer initialized by the boot
// loader.
type FramebufferInfo struct {
	Addr   uintptr
	Width  uint64
	Height uint64
	Pitch  uint64
	Bpp    uint16
}

// CPUDescriptor is the boot loader's per-CPU handoff record. ID is read-only;
// GotoAddress is the only writable field exposed by the facade — writing it
// causes the boot loader to start the corresponding CPU executing at that
// address (see kernel/smp).
type CPUDescriptor struct {
	ID          uint32
	LAPICID     uint32
	GotoAddress uintptr
	ExtraArg    uint64
}

// Init records the boot protocol responses gathered by the rt0 entry code.
// It must be called exactly once, before any other function in this package
// is used. A nil/zero field for a mandatory response is a fatal
// configuration error per the kernel's error-handling design: callers are
// expected to check CheckBaseRevision before relying on any other getter.
func Init(hhdm uintptr, mmap []MemoryMapEntry, fb *FramebufferInfo, rsdp *uintptr, cpus []*CPUDescriptor, stackSize uint64, baseRevisionOK bool) {
	hhdmOffset = hhdm
	memoryMap = mmap
	if fb != nil {
		framebuffer = *fb
		haveFB = true
	}
	if rsdp != nil {
		rsdpPhysAddr = *rsdp
		haveRSDP = true
	}
	cpuDescriptors = cpus
	if stackSize != 0 {
		requestedStackSize = stackSize
	}
	baseRevisionSupported = baseRevisionOK
}

// CheckBaseRevision asserts that the boot loader understood the base
// revision probe the kernel shipped in its requests. Failure here is fatal
// and occurs before any console is available, so the caller must panic with
// this error rather than attempt to render it.
func CheckBaseRevision() *kernel.Error {
	if !baseRevisionSupported {
		return errBaseRevisionUnsupported
	}
	return nil
}

// HHDMOffset returns the constant added to a physical address to obtain its
// kernel-accessible virtual address in the higher-half direct map.
func HHDMOffset() uintptr {
	return hhdmOffset
}

// MemoryMap returns the ordered sequence of memory regions reported by the
// boot loader. The returned slice is read-only from the caller's
// perspective; the facade owns the backing array.
func MemoryMap() []MemoryMapEntry {
	return memoryMap
}

// Framebuffer returns the first framebuffer response. The second return
// value is false if the boot loader did not provide one.
func Framebuffer() (FramebufferInfo, bool) {
	return framebuffer, haveFB
}

// RSDPPhysAddr returns the physical address of the ACPI root system
// description pointer. The second return value is false if the boot loader
// did not provide one.
func RSDPPhysAddr() (uintptr, bool) {
	return rsdpPhysAddr, haveRSDP
}

// CPUDescriptors returns the mutable per-CPU trampoline descriptors
// supplied by the boot loader's MP response. Entry 0 is always the
// bootstrap processor (BSP); writing GotoAddress on any other entry causes
// the corresponding application processor (AP) to start executing there.
func CPUDescriptors() []*CPUDescriptor {
	return cpuDescriptors
}

// RequestedStackSize returns the stack size (in bytes) requested from the
// boot loader for the initial kernel stack and for each AP's entry stack.
func RequestedStackSize() uint64 {
	return requestedStackSize
}

// MustFramebuffer returns the framebuffer response or a configuration-absent
// error if the boot loader did not provide one (per the contract in
// spec.md §4.1: asserting presence of a mandatory response is fatal).
func MustFramebuffer() (FramebufferInfo, *kernel.Error) {
	fb, ok := Framebuffer()
	if !ok {
		return FramebufferInfo{}, errResponseMissing
	}
	return fb, nil
}

// MustRSDP returns the RSDP physical address or a configuration-absent error
// if the boot loader did not provide one.
func MustRSDP() (uintptr, *kernel.Error) {
	addr, ok := RSDPPhysAddr()
	if !ok {
		return 0, errResponseMissing
	}
	return addr, nil
}
