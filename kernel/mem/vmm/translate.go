package vmm

import "github.com/alkhizanah/fajr/kernel"

// Translate returns the physical address that corresponds to the supplied
// virtual address or ErrInvalidMapping if the virtual address does not
// correspond to a mapped physical address. A huge entry at P2 or P3 is
// honored by computing the in-page offset against that level's page size
// (2 MiB or 1 GiB) instead of the regular 4 KiB leaf's.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	pte, level, err := pteForAddress(virtAddr)
	if err != nil {
		return 0, err
	}

	// Calculate the physical address by taking the physical frame address and
	// appending the offset from the virtual address
	physAddr := pte.Frame().Address() + (virtAddr & ((1 << pageLevelShifts[level]) - 1))

	return physAddr, nil
}
