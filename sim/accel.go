package sim

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
)

// CMA3000 register addresses used by the simulator.
const (
	regWhoAmI = 0x00
	regRevID  = 0x01
	regStatus = 0x03
	regDoutX  = 0x06
	regCount  = 0x10
)

// Accelerometer simulates the register file of a CMA3000 behind a SPI link.
// Frames are 2 bytes: address<<2 with bit 1 set for writes, then the value.
// The first reply byte is the status register, the second the register read.
type Accelerometer struct {
	mu     sync.Mutex
	regs   [regCount]byte
	reads  int
	writes int
}

// NewAccelerometer returns a simulated CMA3000-D01.
func NewAccelerometer() *Accelerometer {
	a := &Accelerometer{}
	a.regs[regWhoAmI] = 0x10
	a.regs[regRevID] = 0x33
	return a
}

// String implements conn.Conn.
func (a *Accelerometer) String() string {
	return "sim-cma3000"
}

// Duplex implements conn.Conn.
func (a *Accelerometer) Duplex() conn.Duplex {
	return conn.Full
}

// Tx implements conn.Conn.
func (a *Accelerometer) Tx(w, r []byte) error {
	if len(w) != 2 {
		return fmt.Errorf("sim: cma3000 frame is %d bytes, want 2", len(w))
	}
	addr := int(w[0] >> 2)
	if addr >= regCount || w[0]&0x01 != 0 {
		return fmt.Errorf("sim: invalid cma3000 address byte %#02x", w[0])
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if w[0]&0x02 != 0 {
		a.regs[addr] = w[1]
		a.writes++
		return nil
	}
	a.reads++
	if len(r) == 2 {
		r[0] = a.regs[regStatus]
		r[1] = a.regs[addr]
	}
	return nil
}

// SetAxis sets the output register of axis 0 (X), 1 (Y) or 2 (Z).
func (a *Accelerometer) SetAxis(axis int, v int8) {
	a.Set(byte(regDoutX+axis), byte(v))
}

// Set writes a register directly.
func (a *Accelerometer) Set(reg, v byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.regs[reg] = v
}

// Register returns the value of a register.
func (a *Accelerometer) Register(reg byte) byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.regs[reg]
}

// Reads returns the number of read frames served.
func (a *Accelerometer) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// Writes returns the number of write frames served.
func (a *Accelerometer) Writes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writes
}
