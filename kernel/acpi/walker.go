package acpi

import (
	"unsafe"

	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem/vmm"
)

const (
	rsdpSignature = "RSD PTR "
	dsdtSignature = "DSDT"
	fadtSignature = "FACP"
	madtSignature = "APIC"

	// supportedRevision is the only RSDP revision this walker understands.
	// ACPI 2.0+ systems report a higher revision and expose a wider XSDT
	// pointer instead of RSDTAddr; Walk treats that case as fatal rather
	// than carry a second entry-width code path for a table layout this
	// kernel never exercises.
	supportedRevision uint8 = 0
)

var (
	errMissingRSDP         = &kernel.Error{Module: "acpi", Message: "RSDP signature not found at the reported address"}
	errBadRSDPChecksum     = &kernel.Error{Module: "acpi", Message: "RSDP checksum mismatch"}
	errUnsupportedRevision = &kernel.Error{Module: "acpi", Message: "unsupported ACPI revision; only revision 0 is supported"}
	errBadDSDTSignature    = &kernel.Error{Module: "acpi", Message: "DSDT signature mismatch"}

	physToVirtFn = vmm.PhysToVirt
)

// Tables collects the pointers the rest of the kernel needs once the walk
// completes: the root table, the fixed and differentiated description
// tables, and the multiple APIC description table. FADT, DSDT and MADT are
// nil if the root table's entry list never named them.
type Tables struct {
	RSDT *SDTHeader
	FADT *FADT
	DSDT *SDTHeader
	MADT *MADT
}

// Walk maps and validates the ACPI table chain starting at the physical
// address of the root system description pointer reported by the boot
// loader. It is invoked once, on the bootstrap processor, before any other
// ACPI-derived code (the I/O APIC and local APIC drivers) runs.
func Walk(rsdpPhysAddr uintptr) (*Tables, *kernel.Error) {
	rsdp := (*RSDPDescriptor)(unsafe.Pointer(physToVirtFn(rsdpPhysAddr)))

	if string(rsdp.Signature[:]) != rsdpSignature {
		return nil, errMissingRSDP
	}

	if !validChecksum(uintptr(unsafe.Pointer(rsdp)), uint32(unsafe.Sizeof(RSDPDescriptor{}))) {
		return nil, errBadRSDPChecksum
	}

	if rsdp.Revision != supportedRevision {
		return nil, errUnsupportedRevision
	}

	rsdt := (*SDTHeader)(unsafe.Pointer(physToVirtFn(uintptr(rsdp.RSDTAddr))))
	tables := &Tables{RSDT: rsdt}

	entryCount := (rsdt.Length - uint32(unsafe.Sizeof(SDTHeader{}))) / 4
	entriesStart := uintptr(unsafe.Pointer(rsdt)) + unsafe.Sizeof(SDTHeader{})

	for i := uint32(0); i < entryCount; i++ {
		entryPhysAddr := uintptr(readUint32(entriesStart + uintptr(i)*4))
		header := (*SDTHeader)(unsafe.Pointer(physToVirtFn(entryPhysAddr)))

		switch string(header.Signature[:]) {
		case fadtSignature:
			fadt := (*FADT)(unsafe.Pointer(header))
			tables.FADT = fadt

			dsdt := (*SDTHeader)(unsafe.Pointer(physToVirtFn(uintptr(fadt.Dsdt))))
			if string(dsdt.Signature[:]) != dsdtSignature {
				return nil, errBadDSDTSignature
			}
			tables.DSDT = dsdt

		case madtSignature:
			tables.MADT = (*MADT)(unsafe.Pointer(header))
		}
	}

	return tables, nil
}

// validChecksum reports whether the sum of length bytes starting at ptr is
// zero modulo 256, as every ACPI table's checksum field requires.
func validChecksum(ptr uintptr, length uint32) bool {
	var sum uint8
	for i := uint32(0); i < length; i++ {
		sum += *(*uint8)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return sum == 0
}
