package cpudesc

import "testing"

func TestBuildGDT(t *testing.T) {
	addrs := map[uint32]uintptr{}
	n := buildGDT(func(cpuID uint32) uintptr {
		addr := uintptr(0x1000 + cpuID*0x100)
		addrs[cpuID] = addr
		return addr
	}, 104)

	if gdtTable[0] != 0 {
		t.Fatalf("expected null descriptor to be zero; got %#x", gdtTable[0])
	}
	if gdtTable[1] != uint64(kernelCodeFlags) {
		t.Fatalf("expected kernel code descriptor at slot 1; got %#x", gdtTable[1])
	}
	if gdtTable[2] != uint64(kernelDataFlags) {
		t.Fatalf("expected kernel data descriptor at slot 2; got %#x", gdtTable[2])
	}
	if gdtTable[3] != uint64(userCodeFlags) {
		t.Fatalf("expected user code descriptor at slot 3; got %#x", gdtTable[3])
	}
	if gdtTable[4] != uint64(userDataFlags) {
		t.Fatalf("expected user data descriptor at slot 4; got %#x", gdtTable[4])
	}

	if n != maxGDTEntries {
		t.Fatalf("expected %d populated slots; got %d", maxGDTEntries, n)
	}
}

func TestTSSDescriptorEncodesAddressAndLimit(t *testing.T) {
	addr := uintptr(0x1122334455)
	low, high := tssDescriptor(addr, 104)

	if got := low & 0xffff; got != 103 {
		t.Fatalf("expected limit 103 in low word; got %d", got)
	}
	if got := (low >> 16) & 0xffffff; got != uint64(addr&0xffffff) {
		t.Fatalf("expected base bits 0:23 to match; got %#x", got)
	}
	if got := (low >> 56) & 0xff; got != uint64((addr>>24)&0xff) {
		t.Fatalf("expected base bits 24:31 to match; got %#x", got)
	}
	if got := high & 0xffffffff; got != uint64(addr>>32) {
		t.Fatalf("expected base bits 32:63 in high word; got %#x", got)
	}

	if low&(1<<47) == 0 {
		t.Fatal("expected present bit to be set")
	}
}

func TestTSSSelector(t *testing.T) {
	specs := []struct {
		cpuID uint32
		exp   Selector
	}{
		{0, 0x28},
		{1, 0x38},
		{2, 0x48},
	}

	for _, spec := range specs {
		if got := TSSSelector(spec.cpuID); got != spec.exp {
			t.Errorf("cpu %d: expected selector %#x; got %#x", spec.cpuID, spec.exp, got)
		}
	}
}
