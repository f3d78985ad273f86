package cpu

// MSR identifies a model-specific register that can be read or written with
// ReadMSR/WriteMSR.
type MSR uint32

const (
	// ApicBase holds the physical base address of the local APIC's MMIO
	// region together with the APIC global-enable bit.
	ApicBase MSR = 0x0000001b

	// Efer is the extended feature enable register.
	Efer MSR = 0xc0000080

	// Star holds the segment selectors SYSCALL/SYSRET load into CS/SS.
	// Declared for completeness of the MSR seam; no current caller in
	// this kernel issues SYSCALL/SYSRET.
	Star MSR = 0xc0000081

	// LStar holds the 64-bit SYSCALL entry point. Unused by any current
	// caller, declared alongside Star/CStar/SfMask for completeness.
	LStar MSR = 0xc0000082

	// CStar holds the compatibility-mode SYSCALL entry point. Unused by
	// any current caller.
	CStar MSR = 0xc0000083

	// SfMask holds the RFLAGS mask applied on SYSCALL entry. Unused by
	// any current caller.
	SfMask MSR = 0xc0000084

	// GSBase holds the base address used by instructions that reference
	// the GS segment.
	GSBase MSR = 0xc0000101

	// KernelGSBase holds the value SWAPGS exchanges into GSBase. The
	// per-CPU control block table uses this register as a dedicated
	// slot for the current CPU's block pointer.
	KernelGSBase MSR = 0xc0000102
)

// ReadMSR returns the 64-bit value stored in the given model-specific
// register.
func ReadMSR(msr MSR) uint64

// WriteMSR stores value into the given model-specific register.
func WriteMSR(msr MSR, value uint64)
