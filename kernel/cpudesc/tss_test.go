package cpudesc

import (
	"testing"
	"unsafe"
)

func TestInitTSS(t *testing.T) {
	const cpuID = 2
	initTSS(cpuID)

	tss := &tssTable[cpuID]
	if tss.IOMapBase != uint16(tssSize) {
		t.Fatalf("expected IOMapBase to equal TSS size %d; got %d", tssSize, tss.IOMapBase)
	}

	wantTop := uintptr(unsafe.Pointer(&istStacks[cpuID][0])) + istStackSize
	if uintptr(tss.InterruptStackTable[0]) != wantTop {
		t.Fatalf("expected IST slot 0 to point past the top of cpu %d's dedicated stack; got %#x, want %#x", cpuID, tss.InterruptStackTable[0], wantTop)
	}
}

func TestTSSAddrOf(t *testing.T) {
	for id := uint32(0); id < 3; id++ {
		if got, want := tssAddrOf(id), uintptr(unsafe.Pointer(&tssTable[id])); got != want {
			t.Errorf("cpu %d: expected address %#x; got %#x", id, want, got)
		}
	}
}
