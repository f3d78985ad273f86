package cpu

// Features records the subset of CPUID-reported capabilities that the SMP
// and local APIC bring-up code needs to make decisions about.
type Features struct {
	// HasX2APIC reports whether the local APIC can be operated in x2APIC
	// (MSR-based) mode.
	HasX2APIC bool

	// HasInvariantTSC reports whether the time-stamp counter ticks at a
	// constant rate regardless of core power state, making it safe to
	// use as a wall-clock source across CPUs.
	HasInvariantTSC bool

	// HasRDRAND reports whether the on-chip random number generator
	// instruction is available.
	HasRDRAND bool
}

// DetectedFeatures holds the result of the most recent call to
// DetectFeatures. It is zero-valued until DetectFeatures runs during BSP
// bring-up.
var DetectedFeatures Features

// DetectFeatures queries CPUID and populates DetectedFeatures. It must be
// called once on the BSP before any code consults DetectedFeatures; every
// logical CPU on a system shares the same feature set so APs do not need to
// repeat it.
func DetectFeatures() {
	_, _, ecx, _ := cpuidFn(1)
	DetectedFeatures.HasX2APIC = ecx&(1<<21) != 0
	DetectedFeatures.HasRDRAND = ecx&(1<<30) != 0

	_, _, _, edx := cpuidFn(0x80000007)
	DetectedFeatures.HasInvariantTSC = edx&(1<<8) != 0
}
