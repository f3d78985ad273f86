package smp

// apEntryAddr returns the address every application processor should begin
// executing at once the boot loader wakes it, the same way cpudesc/irq
// declare their LGDT/LIDT/LTR primitives as bodyless functions backed by the
// rt0 assembly layer.
func apEntryAddr() uintptr
