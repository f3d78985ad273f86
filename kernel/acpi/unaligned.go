package acpi

import "unsafe"

// readUint32 reads a little-endian u32 one byte at a time so the read never
// assumes addr is 4-byte aligned. ACPI's packed table layout gives no such
// guarantee: a 32-bit RSDT entry or a MADT payload field can land on any
// byte offset.
func readUint32(addr uintptr) uint32 {
	return uint32(*(*uint8)(unsafe.Pointer(addr))) |
		uint32(*(*uint8)(unsafe.Pointer(addr+1)))<<8 |
		uint32(*(*uint8)(unsafe.Pointer(addr+2)))<<16 |
		uint32(*(*uint8)(unsafe.Pointer(addr+3)))<<24
}
