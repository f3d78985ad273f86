package goruntime

import (
	"testing"
	"unsafe"

	"github.com/alkhizanah/fajr/kernel"
	"github.com/alkhizanah/fajr/kernel/mem"
	"github.com/alkhizanah/fajr/kernel/mem/pmm"
	"github.com/alkhizanah/fajr/kernel/mem/pmm/allocator"
	"github.com/alkhizanah/fajr/kernel/mem/vmm"
)

func TestSysReserve(t *testing.T) {
	defer func() { earlyReserveRegionFn = vmm.EarlyReserveRegion }()
	var reserved bool

	t.Run("success", func(t *testing.T) {
		specs := []struct {
			reqSize       mem.Size
			expRegionSize mem.Size
		}{
			{100 << mem.PageShift, 100 << mem.PageShift},
			{2*mem.PageSize - 1, 2 * mem.PageSize},
		}

		for specIndex, spec := range specs {
			earlyReserveRegionFn = func(rsvSize mem.Size) (uintptr, *kernel.Error) {
				if rsvSize != spec.expRegionSize {
					t.Errorf("[spec %d] expected reservation size to be %d; got %d", specIndex, spec.expRegionSize, rsvSize)
				}
				return 0xbadf00d, nil
			}

			if ptr := sysReserve(nil, uintptr(spec.reqSize), &reserved); uintptr(ptr) == 0 {
				t.Errorf("[spec %d] sysReserve returned 0", specIndex)
			}
		}
	})

	t.Run("fail", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected sysReserve to panic")
			}
		}()

		earlyReserveRegionFn = func(mem.Size) (uintptr, *kernel.Error) {
			return 0, &kernel.Error{Module: "test", Message: "consumed available address space"}
		}

		sysReserve(nil, uintptr(0xf00), &reserved)
	})
}

func TestSysMap(t *testing.T) {
	defer func() { mapFn = vmm.Map }()

	t.Run("success", func(t *testing.T) {
		specs := []struct {
			reqAddr         uintptr
			reqSize         mem.Size
			expRsvAddr      uintptr
			expMapCallCount int
		}{
			{100 << mem.PageShift, 4 * mem.PageSize, 100 << mem.PageShift, 4},
			{(100 << mem.PageShift) + 1, 4 * mem.PageSize, 101 << mem.PageShift, 4},
			{1 << mem.PageShift, (4 * mem.PageSize) + 1, 1 << mem.PageShift, 5},
		}

		for specIndex, spec := range specs {
			var sysStat uint64
			mapCallCount := 0
			mapFn = func(_ vmm.Page, _ pmm.Frame, flags vmm.PageTableEntryFlag, _ vmm.FrameAllocatorFn) *kernel.Error {
				if exp := vmm.FlagPresent | vmm.FlagCopyOnWrite | vmm.FlagNoExecute; flags != exp {
					t.Errorf("[spec %d] expected map flags to be %d; got %d", specIndex, exp, flags)
				}
				mapCallCount++
				return nil
			}

			rsvPtr := sysMap(unsafe.Pointer(spec.reqAddr), uintptr(spec.reqSize), true, &sysStat)
			if got := uintptr(rsvPtr); got != spec.expRsvAddr {
				t.Errorf("[spec %d] expected mapped address 0x%x; got 0x%x", specIndex, spec.expRsvAddr, got)
			}
			if mapCallCount != spec.expMapCallCount {
				t.Errorf("[spec %d] expected Map call count %d; got %d", specIndex, spec.expMapCallCount, mapCallCount)
			}
			if exp := uint64(spec.expMapCallCount << mem.PageShift); sysStat != exp {
				t.Errorf("[spec %d] expected stat counter %d; got %d", specIndex, exp, sysStat)
			}
		}
	})

	t.Run("map fails", func(t *testing.T) {
		mapFn = func(vmm.Page, pmm.Frame, vmm.PageTableEntryFlag, vmm.FrameAllocatorFn) *kernel.Error {
			return &kernel.Error{Module: "test", Message: "map failed"}
		}

		var sysStat uint64
		if got := sysMap(unsafe.Pointer(uintptr(0xbadf00d)), 1, true, &sysStat); got != unsafe.Pointer(uintptr(0)) {
			t.Fatalf("expected sysMap to return 0x0 if Map returns an error; got 0x%x", uintptr(got))
		}
	})

	t.Run("panic if not reserved", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected sysMap to panic")
			}
		}()

		sysMap(nil, 0, false, nil)
	})
}

func TestSysAlloc(t *testing.T) {
	defer func() {
		earlyReserveRegionFn = vmm.EarlyReserveRegion
		mapFn = vmm.Map
		frameAllocFn = allocator.AllocFrame
	}()

	t.Run("success", func(t *testing.T) {
		specs := []struct {
			reqSize         mem.Size
			expMapCallCount int
		}{
			{4 * mem.PageSize, 4},
			{(4 * mem.PageSize) + 1, 5},
		}

		expRegionStartAddr := uintptr(10 * mem.PageSize)
		earlyReserveRegionFn = func(mem.Size) (uintptr, *kernel.Error) { return expRegionStartAddr, nil }
		frameAllocFn = func() (pmm.Frame, *kernel.Error) { return pmm.Frame(0), nil }

		for specIndex, spec := range specs {
			var sysStat uint64
			mapCallCount := 0
			mapFn = func(_ vmm.Page, _ pmm.Frame, flags vmm.PageTableEntryFlag, _ vmm.FrameAllocatorFn) *kernel.Error {
				if exp := vmm.FlagPresent | vmm.FlagNoExecute | vmm.FlagRW; flags != exp {
					t.Errorf("[spec %d] expected map flags to be %d; got %d", specIndex, exp, flags)
				}
				mapCallCount++
				return nil
			}

			if got := sysAlloc(uintptr(spec.reqSize), &sysStat); uintptr(got) != expRegionStartAddr {
				t.Errorf("[spec %d] expected sysAlloc to return 0x%x; got 0x%x", specIndex, expRegionStartAddr, uintptr(got))
			}
			if mapCallCount != spec.expMapCallCount {
				t.Errorf("[spec %d] expected Map call count %d; got %d", specIndex, spec.expMapCallCount, mapCallCount)
			}
			if exp := uint64(spec.expMapCallCount << mem.PageShift); sysStat != exp {
				t.Errorf("[spec %d] expected stat counter %d; got %d", specIndex, exp, sysStat)
			}
		}
	})

	t.Run("earlyReserveRegion fails", func(t *testing.T) {
		earlyReserveRegionFn = func(mem.Size) (uintptr, *kernel.Error) {
			return 0, &kernel.Error{Module: "test", Message: "consumed available address space"}
		}

		var sysStat uint64
		if got := sysAlloc(1, &sysStat); got != unsafe.Pointer(uintptr(0)) {
			t.Fatalf("expected sysAlloc to return 0x0 if EarlyReserveRegion returns an error; got 0x%x", uintptr(got))
		}
	})

	t.Run("frame allocation fails", func(t *testing.T) {
		earlyReserveRegionFn = func(mem.Size) (uintptr, *kernel.Error) {
			return uintptr(10 * mem.PageSize), nil
		}
		frameAllocFn = func() (pmm.Frame, *kernel.Error) {
			return pmm.InvalidFrame, &kernel.Error{Module: "test", Message: "out of memory"}
		}

		var sysStat uint64
		if got := sysAlloc(1, &sysStat); got != unsafe.Pointer(uintptr(0)) {
			t.Fatalf("expected sysAlloc to return 0x0 if AllocFrame returns an error; got 0x%x", uintptr(got))
		}
	})

	t.Run("map fails", func(t *testing.T) {
		earlyReserveRegionFn = func(mem.Size) (uintptr, *kernel.Error) {
			return uintptr(10 * mem.PageSize), nil
		}
		frameAllocFn = func() (pmm.Frame, *kernel.Error) { return pmm.Frame(0), nil }
		mapFn = func(vmm.Page, pmm.Frame, vmm.PageTableEntryFlag, vmm.FrameAllocatorFn) *kernel.Error {
			return &kernel.Error{Module: "test", Message: "map failed"}
		}

		var sysStat uint64
		if got := sysAlloc(1, &sysStat); got != unsafe.Pointer(uintptr(0)) {
			t.Fatalf("expected sysAlloc to return 0x0 if Map returns an error; got 0x%x", uintptr(got))
		}
	})
}
