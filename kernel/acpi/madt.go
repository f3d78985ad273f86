package acpi

import "unsafe"

// MADTEntryType identifies the kind of record encoded in a MADT entry.
type MADTEntryType uint8

// The list of supported MADT entry types. Only MADTEntryTypeIOAPIC is
// decoded today; the others are named here so callers reading a raw type
// byte can recognize them.
const (
	MADTEntryTypeLocalAPIC MADTEntryType = iota
	MADTEntryTypeIOAPIC
	MADTEntryTypeIntSrcOverride
	MADTEntryTypeNMI
)

// MADTEntryIOAPIC describes a single I/O APIC: its MMIO physical base and
// the first global system interrupt it handles.
type MADTEntryIOAPIC struct {
	ID               uint8
	Address          uint32
	SysInterruptBase uint32
}

// IOAPICIterator walks the variable-length entry stream that follows a
// MADT's fixed header, yielding only the I/O APIC entries and skipping
// every other entry type.
type IOAPICIterator struct {
	entryPtr uintptr
	endPtr   uintptr
}

// IOAPICs returns an iterator over madt's I/O APIC entries.
func (madt *MADT) IOAPICs() IOAPICIterator {
	start := uintptr(unsafe.Pointer(madt))
	return IOAPICIterator{
		entryPtr: start + unsafe.Sizeof(MADT{}),
		endPtr:   start + uintptr(madt.Length),
	}
}

// Next returns the next I/O APIC entry and true, or a zero value and false
// once the entry stream is exhausted.
func (it *IOAPICIterator) Next() (MADTEntryIOAPIC, bool) {
	for it.entryPtr < it.endPtr {
		entryType := MADTEntryType(*(*uint8)(unsafe.Pointer(it.entryPtr)))
		entryLen := uintptr(*(*uint8)(unsafe.Pointer(it.entryPtr + 1)))
		if entryLen == 0 {
			// A zero-length entry would spin forever; treat it as the end
			// of a malformed table instead.
			break
		}

		if entryType == MADTEntryTypeIOAPIC {
			entry := MADTEntryIOAPIC{
				ID:               *(*uint8)(unsafe.Pointer(it.entryPtr + 2)),
				Address:          readUint32(it.entryPtr + 4),
				SysInterruptBase: readUint32(it.entryPtr + 8),
			}
			it.entryPtr += entryLen
			return entry, true
		}

		it.entryPtr += entryLen
	}

	return MADTEntryIOAPIC{}, false
}
