// Package acpi walks the ACPI table chain the boot loader hands the kernel:
// the root system description pointer, the root table it points at, and the
// fixed/differentiated/multiple-APIC tables reachable from there. It does
// not execute AML; DSDT and SSDT bytecode are left untouched, the walker
// only validates and exposes their headers.
package acpi

// SDTHeader is the common header prefixing every ACPI system description
// table. Its Length field bounds how many bytes the checksum covers and how
// far a variable-length entry stream (as in MADT) extends.
type SDTHeader struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       uint32
	CreatorRevision uint32
}

// RSDPDescriptor is the ACPI 1.0 root system description pointer, the entry
// point for locating every other ACPI table. Only this 20-byte layout is
// modeled: Walk treats any revision other than 0 as fatal, so the extended
// ACPI 2.0+ RSDP fields (XSDT address, extended checksum) never come into
// play.
type RSDPDescriptor struct {
	// Signature must read "RSD PTR " (note the trailing space).
	Signature [8]byte

	// Checksum makes the sum of this descriptor's 20 bytes equal 0 mod 256.
	Checksum uint8

	OEMID [6]byte

	// Revision is 0 for ACPI 1.0. Walk rejects every other value.
	Revision uint8

	// RSDTAddr is the physical address of the root system description
	// table.
	RSDTAddr uint32
}

// FADT (Fixed ACPI Description Table) carries the DSDT pointer and the
// fixed power-management register blocks. Only the ACPI 1.0 32-bit layout
// is modeled, consistent with RSDPDescriptor: a revision-0 RSDP never
// points at an extended (64-bit pointer) FADT.
type FADT struct {
	SDTHeader

	FirmwareCtrl uint32
	Dsdt         uint32

	reserved uint8

	PreferredPowerManagementProfile uint8
	SCIInterrupt                    uint16
	SMICommandPort                  uint32
	AcpiEnable                      uint8
	AcpiDisable                     uint8
	S4BIOSReq                       uint8
	PSTATEControl                   uint8
	PM1aEventBlock                  uint32
	PM1bEventBlock                  uint32
	PM1aControlBlock                uint32
	PM1bControlBlock                uint32
	PM2ControlBlock                 uint32
	PMTimerBlock                    uint32
	GPE0Block                       uint32
	GPE1Block                       uint32
	PM1EventLength                  uint8
	PM1ControlLength                uint8
	PM2ControlLength                uint8
	PMTimerLength                   uint8
	GPE0Length                      uint8
	GPE1Length                      uint8
	GPE1Base                        uint8
	CStateControl                   uint8
	WorstC2Latency                  uint16
	WorstC3Latency                  uint16
	FlushSize                       uint16
	FlushStride                     uint16
	DutyOffset                      uint8
	DutyWidth                       uint8
	DayAlarm                        uint8
	MonthAlarm                      uint8
	Century                         uint8

	reserved2 uint16
	reserved3 uint8
	Flags     uint32

	ResetReg [12]byte

	ResetValue uint8
	reserved4  uint16
	reserved5  uint8
}

// MADT (Multiple APIC Description Table) describes the interrupt
// controllers installed in the system. A variable-length entry stream
// follows immediately after Flags; see madt.go for the iterator that walks
// it.
type MADT struct {
	SDTHeader

	LocalControllerAddress uint32
	Flags                  uint32
}
