// Package tinyspi adapts TinyGo style buses and pins to the periph
// interfaces used by the drivers in this module.
//
// On a microcontroller the SPI peripheral is usually configured once at boot
// and handed around as a drivers.SPI (machine.SPI implements it), while
// control lines are plain machine.Pin values with High and Low methods.
// Conn and Out wrap those so a spilink.Link can drive them:
//
//	machine.SPI0.Configure(machine.SPIConfig{Frequency: 8 * machine.MHz})
//	c := tinyspi.New("spi0", machine.SPI0)
//	l, err := spilink.New(c, &spilink.Opts{
//		CS: tinyspi.Out("LCD_CS", machine.LCD_CS),
//		DC: tinyspi.Out("LCD_DC", machine.LCD_DC),
//	})
package tinyspi

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
	"tinygo.org/x/drivers"
)

// Conn is a conn.Conn over a configured drivers.SPI bus.
type Conn struct {
	name string
	bus  drivers.SPI
}

// New returns a Conn named name over bus.
func New(name string, bus drivers.SPI) *Conn {
	return &Conn{name: name, bus: bus}
}

// String implements conn.Conn.
func (c *Conn) String() string {
	return c.name
}

// Duplex implements conn.Conn.
func (c *Conn) Duplex() conn.Duplex {
	return conn.Full
}

// Tx implements conn.Conn. A nil r only transmits. Single byte frames use
// Transfer, which most bus implementations run without setting up a buffer.
func (c *Conn) Tx(w, r []byte) error {
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("tinyspi: %s: read buffer is %d bytes, want %d", c.name, len(r), len(w))
	}
	if len(w) == 1 {
		b, err := c.bus.Transfer(w[0])
		if err != nil {
			return fmt.Errorf("tinyspi: %s: %w", c.name, err)
		}
		if r != nil {
			r[0] = b
		}
		return nil
	}
	if err := c.bus.Tx(w, r); err != nil {
		return fmt.Errorf("tinyspi: %s: %w", c.name, err)
	}
	return nil
}

// Pin is an output line as exposed by machine.Pin.
type Pin interface {
	High()
	Low()
}

// Out returns a gpio.PinOut driving p.
func Out(name string, p Pin) gpio.PinOut {
	return &outPin{name: name, p: p}
}

type outPin struct {
	name string
	p    Pin
}

func (o *outPin) String() string   { return o.name }
func (o *outPin) Name() string     { return o.name }
func (o *outPin) Number() int      { return -1 }
func (o *outPin) Function() string { return string(o.Func()) }
func (o *outPin) Halt() error      { return nil }

// Func implements pin.PinFunc.
func (o *outPin) Func() pin.Func {
	return gpio.OUT
}

// SupportedFuncs implements pin.PinFunc.
func (o *outPin) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (o *outPin) SetFunc(f pin.Func) error {
	if f != gpio.OUT {
		return fmt.Errorf("tinyspi: %s: unsupported function %s", o.name, f)
	}
	return nil
}

// Out implements gpio.PinOut.
func (o *outPin) Out(l gpio.Level) error {
	if l {
		o.p.High()
	} else {
		o.p.Low()
	}
	return nil
}

// PWM implements gpio.PinOut.
func (o *outPin) PWM(gpio.Duty, physic.Frequency) error {
	return errors.New("tinyspi: PWM is not supported")
}
