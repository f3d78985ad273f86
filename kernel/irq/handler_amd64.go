package irq

// ExceptionNum defines an exception number that can be passed to the
// HandleException and HandleExceptionWithCode functions.
type ExceptionNum uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = ExceptionNum(0)

	// Debug is raised by single-step and breakpoint conditions managed
	// through the debug registers.
	Debug = ExceptionNum(1)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = ExceptionNum(3)

	// Overflow occurs when the INTO instruction is executed with the
	// overflow flag set.
	Overflow = ExceptionNum(4)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked
	// with an index out of range.
	BoundRangeExceeded = ExceptionNum(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid
	// or undefined instruction opcode.
	InvalidOpcode = ExceptionNum(6)

	// DeviceNotAvailable occurs when the CPU attempts to execute an
	// FPU/MMX/SSE instruction while no FPU is available.
	DeviceNotAvailable = ExceptionNum(7)

	// DoubleFault occurs when an exception is unhandled or when an
	// exception occurs while the CPU is trying to call an exception
	// handler.
	DoubleFault = ExceptionNum(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = ExceptionNum(10)

	// SegmentNotPresent occurs when the CPU attempts to invoke a present
	// gate with an invalid stack segment selector.
	SegmentNotPresent = ExceptionNum(11)

	// StackSegmentFault occurs when attempting to push/pop from a
	// non-canonical stack address or when the stack base/limit checks
	// fail.
	StackSegmentFault = ExceptionNum(12)

	// GPFException is raised when a general protection fault occurs.
	GPFException = ExceptionNum(13)

	// PageFaultException is raised when a PDT or PDT-entry is not
	// present or when a privilege and/or RW protection check fails.
	PageFaultException = ExceptionNum(14)

	// FloatingPointException occurs while invoking an FP instruction
	// while CR0.NE=1 or an unmasked FP exception is pending.
	FloatingPointException = ExceptionNum(16)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = ExceptionNum(17)

	// MachineCheck occurs when the CPU detects internal errors such as
	// memory-, bus- or cache-related errors.
	MachineCheck = ExceptionNum(18)

	// SIMDFloatingPointException occurs when an unmasked SSE exception
	// occurs while CR4.OSXMMEXCPT is set to 1.
	SIMDFloatingPointException = ExceptionNum(19)

	// VirtualizationException occurs on EPT violations when running as
	// a guest.
	VirtualizationException = ExceptionNum(20)

	// LocalAPICTimer is the vector the local APIC's timer fires once
	// programmed in periodic mode.
	LocalAPICTimer = ExceptionNum(32)
)

// ExceptionHandler is a function that handles an exception that does not push
// an error code to the stack. If the handler returns, any modifications to the
// supplied Frame and/or Regs pointers will be propagated back to the location
// where the exception occurred.
type ExceptionHandler func(*Frame, *Regs)

// ExceptionHandlerWithCode is a function that handles an exception that pushes
// an error code to the stack. If the handler returns, any modifications to the
// supplied Frame and/or Regs pointers will be propagated back to the location
// where the exception occurred.
type ExceptionHandlerWithCode func(uint64, *Frame, *Regs)

// HandleException registers an exception handler (without an error code) for
// the given interrupt number.
func HandleException(exceptionNum ExceptionNum, handler ExceptionHandler)

// HandleExceptionWithCode registers an exception handler (with an error code)
// for the given interrupt number.
func HandleExceptionWithCode(exceptionNum ExceptionNum, handler ExceptionHandlerWithCode)

// HandleExceptionOnStack registers an exception handler (with an error code)
// that always runs on the given interrupt-stack-table slot instead of the
// interrupted task's own stack. It is used for DoubleFault, since a fault
// caused by stack exhaustion must not also run its handler on that same
// exhausted stack.
func HandleExceptionOnStack(exceptionNum ExceptionNum, istOffset uint8, handler ExceptionHandlerWithCode)
