package cpudesc

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/irq"
	"github.com/alkhizanah/fajr/kernel/kfmt/early"
)

// istDoubleFault is the IST slot the double-fault gate runs on, so a stack
// overflow that caused the fault does not also corrupt the handler.
const istDoubleFault = 1

// faultNames maps the fixed architectural exception vectors to the label
// used when formatting a fatal fault.
var faultNames = map[irq.ExceptionNum]string{
	irq.DivideByZero:              "divide error",
	irq.Debug:                     "debug",
	irq.Breakpoint:                "breakpoint",
	irq.Overflow:                  "overflow",
	irq.BoundRangeExceeded:        "bound range exceeded",
	irq.InvalidOpcode:             "invalid opcode",
	irq.DeviceNotAvailable:        "device not available",
	irq.DoubleFault:               "double fault",
	irq.InvalidTSS:                "invalid TSS",
	irq.SegmentNotPresent:         "segment not present",
	irq.StackSegmentFault:         "stack segment fault",
	irq.GPFException:              "general protection fault",
	irq.PageFaultException:        "page fault",
	irq.FloatingPointException:    "x87 floating point exception",
	irq.AlignmentCheck:            "alignment check",
	irq.MachineCheck:              "machine check",
	irq.SIMDFloatingPointException: "SIMD floating point exception",
	irq.VirtualizationException:  "virtualization exception",
}

// withErrorCode lists the vectors whose exception pushes an error code. Page
// faults and general-protection faults install their own recoverable
// handlers elsewhere (kernel/mem/vmm); every other vector here is fatal.
var withErrorCode = map[irq.ExceptionNum]bool{
	irq.DoubleFault:       true,
	irq.InvalidTSS:        true,
	irq.SegmentNotPresent: true,
	irq.StackSegmentFault: true,
	irq.AlignmentCheck:    true,
}

// TimerTick is invoked on every local APIC timer interrupt. It defaults to a
// no-op and is overridden by the local APIC driver's Init, which needs to
// acknowledge the interrupt by writing to the EOI register.
var TimerTick = func(*irq.Frame, *irq.Regs) {}

// handleExceptionFn, handleExceptionWithCodeFn and handleExceptionOnStackFn
// are used by tests to override calls into the irq package.
var (
	handleExceptionFn         = irq.HandleException
	handleExceptionWithCodeFn = irq.HandleExceptionWithCode
	handleExceptionOnStackFn  = irq.HandleExceptionOnStack
)

func faultHandler(num irq.ExceptionNum) irq.ExceptionHandler {
	name := faultNames[num]
	return func(frame *irq.Frame, regs *irq.Regs) {
		early.Printf("\nUnhandled exception: %s\n", name)
		regs.Print()
		frame.Print()
		kernel.Panic(&kernel.Error{Module: "cpudesc", Message: name})
	}
}

func faultHandlerWithCode(num irq.ExceptionNum) irq.ExceptionHandlerWithCode {
	name := faultNames[num]
	return func(code uint64, frame *irq.Frame, regs *irq.Regs) {
		early.Printf("\nUnhandled exception: %s (code=0x%x)\n", name, code)
		regs.Print()
		frame.Print()
		kernel.Panic(&kernel.Error{Module: "cpudesc", Message: name})
	}
}

// installFaultHandlers registers the format-and-panic handler set for every
// fixed architectural exception vector this kernel does not handle
// elsewhere, plus the local APIC timer tick.
func installFaultHandlers() {
	for num := range faultNames {
		switch num {
		case irq.PageFaultException, irq.GPFException:
			// installed by kernel/mem/vmm.Init with recoverable semantics.
			continue
		case irq.DoubleFault:
			handleExceptionOnStackFn(num, istDoubleFault, faultHandlerWithCode(num))
			continue
		}

		if withErrorCode[num] {
			handleExceptionWithCodeFn(num, faultHandlerWithCode(num))
		} else {
			handleExceptionFn(num, faultHandler(num))
		}
	}

	handleExceptionFn(irq.LocalAPICTimer, func(frame *irq.Frame, regs *irq.Regs) {
		TimerTick(frame, regs)
	})
}

// InitIDT installs the fixed exception vectors and the local APIC timer
// vector, then loads the table with LIDT.
func InitIDT() {
	installFaultHandlers()
	loadIDT()
}

// loadIDT issues LIDT against the table irq's assembly layer maintains.
func loadIDT()
