// Package cma3000 reads a VTI CMA3000-D01 3-axis accelerometer over SPI.
//
// Every access is a 2-byte full duplex frame. The first byte carries the
// register address shifted left by two, with bit 1 set for writes; the second
// byte is the value to write or a dummy. The sensor answers with its status
// in the first reply byte and the register content in the second.
package cma3000

import (
	"errors"
	"fmt"
	"time"

	"github.com/flavioheleno/uc1701/spilink"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Register addresses.
const (
	WhoAmI    byte = 0x00
	RevID     byte = 0x01
	Ctrl      byte = 0x02
	Status    byte = 0x03
	Rstr      byte = 0x04
	IntStatus byte = 0x05
	DoutX     byte = 0x06
	DoutY     byte = 0x07
	DoutZ     byte = 0x08
	MDThr     byte = 0x09
	MDFFTmr   byte = 0x0A
	FFThr     byte = 0x0B
	I2CAddr   byte = 0x0C

	lastRegister = I2CAddr
)

// CTRL register bits.
const (
	Range2G  byte = 0x80 // ±2g range; ±8g when clear
	IntLevel byte = 0x40 // Interrupt active low
	MDetExit byte = 0x20 // Leave motion detection after an event
	I2CDis   byte = 0x10 // Disable the I2C interface
	IntDis   byte = 0x01 // Disable the interrupt output
)

// Mode is the measurement mode field of CTRL.
type Mode byte

// Measurement modes.
const (
	PowerDown     Mode = 0 << 1
	Measure100Hz  Mode = 1 << 1
	Measure400Hz  Mode = 2 << 1
	Measure40Hz   Mode = 3 << 1
	MotionDetect  Mode = 4 << 1
	FreeFall100Hz Mode = 5 << 1
	FreeFall400Hz Mode = 6 << 1

	modeMask byte = 0x0E
)

// Axis selects one of the output registers.
type Axis byte

// Axes.
const (
	X Axis = Axis(DoutX)
	Y Axis = Axis(DoutY)
	Z Axis = Axis(DoutZ)
)

func (a Axis) String() string {
	switch a {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	}
	return fmt.Sprintf("Axis(%#02x)", byte(a))
}

// ParseAxis parses "X", "Y" or "Z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "X", "x":
		return X, nil
	case "Y", "y":
		return Y, nil
	case "Z", "z":
		return Z, nil
	}
	return 0, fmt.Errorf("cma3000: unknown axis %q", s)
}

// ChipID is the WHO_AM_I value of a CMA3000-D01.
const ChipID = 0x10

// resetSequence unlocks and triggers a soft reset when written to RSTR.
var resetSequence = [...]byte{0x02, 0x0A, 0x04}

// ReadFrame returns the frame that reads register reg.
func ReadFrame(reg byte) [2]byte {
	return [2]byte{reg << 2, 0x00}
}

// WriteFrame returns the frame that writes v to register reg.
func WriteFrame(reg, v byte) [2]byte {
	return [2]byte{reg<<2 | 0x02, v}
}

// Opts is the configuration for the accelerometer.
type Opts struct {
	// Ctrl is written to the CTRL register by New. Zero selects the default:
	// ±2g range, 100Hz measurement.
	Ctrl byte

	// Axis is sampled by Sample (default: Y).
	Axis Axis

	// Optional control lines
	CS  gpio.PinOut // Chip select, active low (nil if handled by the port)
	PWR gpio.PinOut // Supply enable, active high (nil if always powered)

	// Timeout bounds every bus frame; 0 waits forever.
	Timeout time.Duration
}

// DefaultOpts is used when New or NewSPI receive nil options.
var DefaultOpts = Opts{
	Ctrl: Range2G | byte(Measure100Hz),
	Axis: Y,
}

// Dev is a handle to the accelerometer.
type Dev struct {
	link *spilink.Link
	pwr  gpio.PinOut
	axis Axis
	ctrl byte
}

// NewSPI returns a Dev on p clocked at 400kHz, Mode0.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	o, err := validate(opts)
	if err != nil {
		return nil, err
	}
	l, err := spilink.NewSPI(p, 400*physic.KiloHertz, spi.Mode0, &spilink.Opts{
		Name:    "cma3000",
		CS:      o.CS,
		Timeout: o.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("cma3000: %w", err)
	}
	return newDev(l, o)
}

// New returns a Dev on an existing link. The link's chip-select and timeout
// settings take precedence over opts.CS and opts.Timeout.
func New(l *spilink.Link, opts *Opts) (*Dev, error) {
	if l == nil {
		return nil, errors.New("cma3000: nil link")
	}
	o, err := validate(opts)
	if err != nil {
		return nil, err
	}
	return newDev(l, o)
}

func validate(opts *Opts) (Opts, error) {
	if opts == nil {
		return DefaultOpts, nil
	}
	o := *opts
	if o.Ctrl == 0 {
		o.Ctrl = DefaultOpts.Ctrl
	}
	if o.Axis == 0 {
		o.Axis = DefaultOpts.Axis
	}
	if o.Axis != X && o.Axis != Y && o.Axis != Z {
		return o, fmt.Errorf("cma3000: invalid axis %#02x", byte(o.Axis))
	}
	return o, nil
}

func newDev(l *spilink.Link, o Opts) (*Dev, error) {
	d := &Dev{link: l, pwr: o.PWR, axis: o.Axis}
	if d.pwr != nil {
		if err := d.pwr.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("cma3000: power on: %w", err)
		}
		// Turn-on time in measurement mode.
		time.Sleep(10 * time.Millisecond)
	}
	if err := d.Configure(o.Ctrl); err != nil {
		return nil, err
	}
	return d, nil
}

// ReadRegister returns the content of register reg.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	if reg > lastRegister {
		return 0, fmt.Errorf("cma3000: invalid register %#02x", reg)
	}
	w := ReadFrame(reg)
	var r [2]byte
	if err := d.link.Transact(w[:], r[:]); err != nil {
		return 0, fmt.Errorf("cma3000: read %#02x: %w", reg, err)
	}
	return r[1], nil
}

// WriteRegister writes v to register reg.
func (d *Dev) WriteRegister(reg, v byte) error {
	if reg > lastRegister {
		return fmt.Errorf("cma3000: invalid register %#02x", reg)
	}
	w := WriteFrame(reg, v)
	if err := d.link.Transact(w[:], nil); err != nil {
		return fmt.Errorf("cma3000: write %#02x: %w", reg, err)
	}
	return nil
}

// Configure writes ctrl to the CTRL register.
func (d *Dev) Configure(ctrl byte) error {
	if err := d.WriteRegister(Ctrl, ctrl); err != nil {
		return err
	}
	d.ctrl = ctrl
	return nil
}

// SetMode changes the measurement mode, keeping the other CTRL bits.
func (d *Dev) SetMode(m Mode) error {
	return d.Configure(d.ctrl&^modeMask | byte(m)&modeMask)
}

// WhoAmI returns the chip identification register.
func (d *Dev) WhoAmI() (byte, error) {
	return d.ReadRegister(WhoAmI)
}

// Sample returns the signed 8-bit output of the configured axis.
func (d *Dev) Sample() (int, error) {
	return d.SampleAxis(d.axis)
}

// SampleAxis returns the signed 8-bit output of axis a.
func (d *Dev) SampleAxis(a Axis) (int, error) {
	v, err := d.ReadRegister(byte(a))
	if err != nil {
		return 0, err
	}
	return int(int8(v)), nil
}

// Reset performs a soft reset and restores the last CTRL value.
func (d *Dev) Reset() error {
	for _, v := range resetSequence {
		if err := d.WriteRegister(Rstr, v); err != nil {
			return err
		}
	}
	time.Sleep(5 * time.Millisecond)
	return d.Configure(d.ctrl)
}

// Halt powers the sensor down.
func (d *Dev) Halt() error {
	if err := d.SetMode(PowerDown); err != nil {
		return err
	}
	if d.pwr != nil {
		if err := d.pwr.Out(gpio.Low); err != nil {
			return fmt.Errorf("cma3000: power off: %w", err)
		}
	}
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("cma3000.Dev{%s, axis %s}", d.link, d.axis)
}
