// Package smp brings up every CPU the boot loader reports, mirroring
// spec.md's §4.11 BSP/AP sequencing: the bootstrap processor programs its
// own CPU state and the shared interrupt controllers, then releases every
// application processor by writing an entry address into its boot-provided
// trampoline slot.
package smp

import "github.com/alkhizanah/fajr/kernel/hal/bootinfo"

// apEntryAddrFn is mocked by tests and is automatically inlined by the
// compiler.
var apEntryAddrFn = apEntryAddr

// WriteAPTrampolines writes the application-processor entry address into
// every boot-provided CPU descriptor's trampoline slot. The boot loader
// ignores the value for whichever descriptor corresponds to the bootstrap
// processor, so every descriptor can be written uniformly without singling
// the BSP's out.
func WriteAPTrampolines() {
	entry := apEntryAddrFn()
	for _, desc := range bootinfo.CPUDescriptors() {
		desc.GotoAddress = entry
	}
}
