package acpi

import (
	"testing"
	"unsafe"
)

func TestIOAPICIteratorSkipsOtherEntryTypes(t *testing.T) {
	madt := &testMADT{}
	next := writeLocalAPICEntry(madt.entries[:], 0)
	next = writeIOAPICEntry(madt.entries[:], next, 2, 0xfec00000, 0)
	next = writeLocalAPICEntry(madt.entries[:], next)
	next = writeIOAPICEntry(madt.entries[:], next, 3, 0xfec01000, 24)
	madt.Length = uint32(unsafe.Sizeof(MADT{})) + uint32(next)

	it := madt.MADT.IOAPICs()

	first, ok := it.Next()
	if !ok {
		t.Fatal("expected a first I/O APIC entry")
	}
	if first.ID != 2 || first.Address != 0xfec00000 || first.SysInterruptBase != 0 {
		t.Errorf("unexpected first entry: %+v", first)
	}

	second, ok := it.Next()
	if !ok {
		t.Fatal("expected a second I/O APIC entry")
	}
	if second.ID != 3 || second.Address != 0xfec01000 || second.SysInterruptBase != 24 {
		t.Errorf("unexpected second entry: %+v", second)
	}

	if _, ok = it.Next(); ok {
		t.Error("expected the iterator to be exhausted")
	}
}

func TestIOAPICIteratorEmptyTable(t *testing.T) {
	madt := &testMADT{}
	madt.Length = uint32(unsafe.Sizeof(MADT{}))

	it := madt.MADT.IOAPICs()
	if _, ok := it.Next(); ok {
		t.Error("expected no entries from an empty MADT")
	}
}
