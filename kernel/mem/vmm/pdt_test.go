package vmm

import (
	"testing"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
)

func TestPageDirectoryTableInit(t *testing.T) {
	withZeroHHDM(t)

	var buf [mem.PageSize]byte
	frame := pmm.Frame(uintptr(unsafe.Pointer(&buf[0])) >> mem.PageShift)

	for i := range buf {
		buf[i] = 0xAA
	}

	var pdt PageDirectoryTable
	if err := pdt.Init(frame, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("expected byte %d of the new PDT frame to be cleared; got %#x", i, b)
		}
	}
}

func TestPageDirectoryTableMapUnmapRoundtrip(t *testing.T) {
	withZeroHHDM(t)

	defer func(origFlush func(uintptr)) { flushTLBEntryFn = origFlush }(flushTLBEntryFn)
	flushTLBEntryFn = func(_ uintptr) {}

	rootFrame, root := newFakeTable(t)
	l3Frame, l3 := newFakeTable(t)
	l2Frame, l2 := newFakeTable(t)
	_, l1 := newFakeTable(t)

	root[0].SetFlags(FlagPresent | FlagRW)
	root[0].SetFrame(l3Frame)
	l3[0].SetFlags(FlagPresent | FlagRW)
	l3[0].SetFrame(l2Frame)
	l2[0].SetFlags(FlagPresent | FlagRW)
	l2[0].SetFrame(pmm.Frame(uintptr(unsafe.Pointer(&l1[0])) >> mem.PageShift))

	pdt := PageDirectoryTable{pdtFrame: rootFrame}

	if err := pdt.Map(Page(0), pmm.Frame(55), FlagRW, nil); err != nil {
		t.Fatalf("unexpected error mapping: %v", err)
	}
	if got := l1[0].Frame(); got != pmm.Frame(55) {
		t.Fatalf("expected last-level entry to point to frame 55; got %v", got)
	}

	if err := pdt.Unmap(Page(0)); err != nil {
		t.Fatalf("unexpected error unmapping: %v", err)
	}
	if l1[0].HasFlags(FlagPresent) {
		t.Fatal("expected last-level entry to no longer be present after Unmap")
	}
}

func TestPageDirectoryTableActivate(t *testing.T) {
	defer func(orig func(uintptr)) { switchPDTFn = orig }(switchPDTFn)

	pdtFrame := pmm.Frame(123)
	pdt := PageDirectoryTable{pdtFrame: pdtFrame}

	callCount := 0
	switchPDTFn = func(addr uintptr) {
		callCount++
		if addr != pdtFrame.Address() {
			t.Fatalf("expected switchPDT to be called with %#x; got %#x", pdtFrame.Address(), addr)
		}
	}

	pdt.Activate()

	if callCount != 1 {
		t.Fatalf("expected switchPDT to be called once; called %d times", callCount)
	}
}
