package vmm

import "testing"

func TestPhysToVirtVirtToPhysRoundtrip(t *testing.T) {
	orig := hhdmOffset
	hhdmOffset = 0x1000_0000
	defer func() { hhdmOffset = orig }()

	const physAddr = uintptr(0x2000)

	virtAddr := PhysToVirt(physAddr)
	if virtAddr != physAddr+hhdmOffset {
		t.Fatalf("expected virt addr 0x%x, got 0x%x", physAddr+hhdmOffset, virtAddr)
	}

	if got := VirtToPhys(virtAddr); got != physAddr {
		t.Errorf("expected VirtToPhys to invert PhysToVirt, got 0x%x want 0x%x", got, physAddr)
	}
}

func TestSetHHDMOffset(t *testing.T) {
	orig := hhdmOffset
	defer func() { hhdmOffset = orig }()

	SetHHDMOffset(0x4000)
	if hhdmOffset != 0x4000 {
		t.Errorf("expected hhdmOffset to be set to 0x4000, got 0x%x", hhdmOffset)
	}
}
