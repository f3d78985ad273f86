// Package heap provides the kernel's general-purpose byte-range allocators:
// a power-of-two buddy allocator (buddy.go) and a first-fit free-list
// allocator (firstfit.go). Both carve blocks directly out of a caller
// supplied virtual memory range, rather than going through the physical
// frame allocator themselves, so callers decide how the backing pages are
// obtained and mapped.
package heap

import "github.com/alkhizanah/fajr/kernel/mem"

// Allocator is satisfied by both heap implementations, letting kmain select
// one as the active backing allocator for kernel data structures that need
// byte-granularity (rather than page-granularity) allocation.
type Allocator interface {
	Alloc(size mem.Size) uintptr
	Dealloc(ptr uintptr, size mem.Size)
	FreeBytes() mem.Size
}

// active is the allocator currently selected to service Alloc/Dealloc.
var active Allocator

// SetActive installs a as the active heap allocator.
func SetActive(a Allocator) {
	active = a
}

// Active returns the currently installed heap allocator, or nil if none has
// been installed yet.
func Active() Allocator {
	return active
}

// Alloc reserves size bytes from the active allocator. It panics if no
// allocator has been installed; this mirrors the teacher runtime's
// assumption that heap setup always precedes its first use.
func Alloc(size mem.Size) uintptr {
	return active.Alloc(size)
}

// Dealloc releases a previous allocation of size bytes at ptr back to the
// active allocator.
func Dealloc(ptr uintptr, size mem.Size) {
	active.Dealloc(ptr, size)
}
