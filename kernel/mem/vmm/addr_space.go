package vmm

import (
	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
)

// earlyReserveCeiling is the top of the address range EarlyReserveRegion
// bumps downward from. It sits well above any HHDM window Limine is
// expected to establish for a machine's physical memory size, so the two
// never collide.
const earlyReserveCeiling = uintptr(0xffffff0000000000)

var (
	// earlyReserveLastUsed tracks the last reserved address and is
	// decreased after each allocation request.
	earlyReserveLastUsed = earlyReserveCeiling

	errEarlyReserveNoSpace = &kernel.Error{Module: "vmm", Message: "remaining virtual address space not large enough to satisfy reservation request"}
)

// EarlyReserveRegion reserves a page-aligned contiguous virtual memory
// region of the requested size and returns its starting address, without
// establishing any page mapping for it. If size is not a multiple of
// mem.PageSize it is rounded up.
//
// Regions are handed out starting at earlyReserveCeiling and working down.
// This is only meant to be used by the Go runtime bootstrap shims, which
// call it to reserve address space ahead of mapping it page by page via
// Map.
func EarlyReserveRegion(size mem.Size) (uintptr, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)

	if uintptr(size) > earlyReserveLastUsed {
		return 0, errEarlyReserveNoSpace
	}

	earlyReserveLastUsed -= uintptr(size)
	return earlyReserveLastUsed, nil
}
