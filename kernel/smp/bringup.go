package smp

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/acpi"
	"github.com/alkhizanah/fajr/kernel/apic"
	"github.com/alkhizanah/fajr/kernel/cpu"
	"github.com/alkhizanah/fajr/kernel/cpudesc"
)

// The following functions are mocked by tests and are automatically inlined
// by the compiler. Every external call BootBSP/BootAP makes is wrapped here
// so a test never has to exercise the ring-0-only primitives underneath
// cpu.Set/cpu.DetectFeatures/cpudesc.Init et al.
var (
	cpuSetFn         = cpu.Set
	detectFeaturesFn = cpu.DetectFeatures
	cpudescInitFn    = cpudesc.Init
	cpudescInitIDTFn = cpudesc.InitIDT
	cpudescLoadFn    = cpudesc.Load
	disablePICFn     = apic.DisablePIC
	initIOAPICsFn    = apic.InitIOAPICs
	initLocalAPICFn  = apic.InitLocalAPIC
	panicFn          = kernel.Panic
	haltFn           = cpu.Halt
)

// BootBSP brings the bootstrap processor online: establishes CPU[0]'s
// control block, loads its GDT/TSS/IDT, masks the legacy 8259 PIC, then
// programs every I/O APIC described by tables and this CPU's local APIC.
// It must run to completion before WriteAPTrampolines releases any
// application processor, since I/O APIC routing and the shared IDT both
// need to be in place first.
func BootBSP(tables *acpi.Tables) *kernel.Error {
	cpuSetFn(cpu.Cpu{ID: 0})
	detectFeaturesFn()

	cpudescInitFn()
	cpudescInitIDTFn()
	cpudescLoadFn()

	disablePICFn()

	if err := initIOAPICsFn(tables.MADT); err != nil {
		return err
	}
	return initLocalAPICFn()
}

// BootAP brings an application processor online: establishes its own CPU
// control block, reloads the (already built) GDT/TSS/IDT on this core,
// initializes its local APIC, then halts in a loop waiting for interrupts.
// It never returns. cpuID is whatever the rt0 trampoline recovered from the
// boot-provided CPU descriptor it was handed.
//
//go:noinline
func BootAP(cpuID uint32) {
	cpuSetFn(cpu.Cpu{ID: cpuID})

	cpudescInitFn()
	cpudescInitIDTFn()
	cpudescLoadFn()

	if err := initLocalAPICFn(); err != nil {
		panicFn(err)
	}

	for {
		haltFn()
	}
}
