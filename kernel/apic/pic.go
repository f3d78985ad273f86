package apic

const (
	masterCommandPort = 0x20
	masterDataPort    = masterCommandPort + 1

	slaveCommandPort = 0xA0
	slaveDataPort    = slaveCommandPort + 1
)

var outbFn = outb

// DisablePIC masks every legacy 8259 PIC line by writing 0xFF to both data
// ports, so interrupts reach the I/O APIC/local APIC path instead. It must
// run before InitIOAPICs and InitLocalAPIC, which is why kernel/smp calls it
// first on the bootstrap processor.
func DisablePIC() {
	outbFn(masterDataPort, 0xff)
	outbFn(slaveDataPort, 0xff)
}

// outb writes a byte to the given I/O port.
func outb(port uint16, value uint8)
