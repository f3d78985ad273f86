package bootinfo

import "testing"

func resetState() {
	hhdmOffset = 0
	memoryMap = nil
	framebuffer = FramebufferInfo{}
	haveFB = false
	rsdpPhysAddr = 0
	haveRSDP = false
	cpuDescriptors = nil
	requestedStackSize = 0x100000
	baseRevisionSupported = false
}

func TestInitAndGetters(t *testing.T) {
	defer resetState()

	fb := FramebufferInfo{Addr: 0xb8000, Width: 800, Height: 600, Pitch: 3200, Bpp: 32}
	rsdp := uintptr(0xe0000)
	mmap := []MemoryMapEntry{{Base: 0, Length: 0x1000, Type: MemUsable}}
	cpus := []*CPUDescriptor{{ID: 0}, {ID: 1}}

	Init(0xffff800000000000, mmap, &fb, &rsdp, cpus, 0x200000, true)

	if err := CheckBaseRevision(); err != nil {
		t.Fatalf("expected base revision to be supported, got %v", err)
	}

	if got := HHDMOffset(); got != 0xffff800000000000 {
		t.Fatalf("unexpected hhdm offset: %x", got)
	}

	if got := MemoryMap(); len(got) != 1 || got[0].Type != MemUsable {
		t.Fatalf("unexpected memory map: %+v", got)
	}

	gotFB, ok := Framebuffer()
	if !ok || gotFB != fb {
		t.Fatalf("unexpected framebuffer: %+v ok=%v", gotFB, ok)
	}

	gotRSDP, ok := RSDPPhysAddr()
	if !ok || gotRSDP != rsdp {
		t.Fatalf("unexpected rsdp: %x ok=%v", gotRSDP, ok)
	}

	if got := CPUDescriptors(); len(got) != 2 {
		t.Fatalf("unexpected cpu descriptors: %+v", got)
	}

	if got := RequestedStackSize(); got != 0x200000 {
		t.Fatalf("unexpected stack size: %x", got)
	}
}

func TestCheckBaseRevisionFailure(t *testing.T) {
	defer resetState()

	Init(0, nil, nil, nil, nil, 0, false)

	if err := CheckBaseRevision(); err != errBaseRevisionUnsupported {
		t.Fatalf("expected errBaseRevisionUnsupported, got %v", err)
	}
}

func TestMustFramebufferAndRSDPMissing(t *testing.T) {
	defer resetState()

	Init(0, nil, nil, nil, nil, 0, true)

	if _, err := MustFramebuffer(); err != errResponseMissing {
		t.Fatalf("expected errResponseMissing, got %v", err)
	}

	if _, err := MustRSDP(); err != errResponseMissing {
		t.Fatalf("expected errResponseMissing, got %v", err)
	}
}

func TestCPUDescriptorGotoAddressIsWritable(t *testing.T) {
	defer resetState()

	cpus := []*CPUDescriptor{{ID: 0}, {ID: 1}}
	Init(0, nil, nil, nil, cpus, 0, true)

	CPUDescriptors()[1].GotoAddress = 0xdeadbeef
	if cpus[1].GotoAddress != 0xdeadbeef {
		t.Fatalf("expected GotoAddress write to be visible through original slice")
	}
}
