// Package uc1701 controls a UC1701 monochrome LCD controller via SPI.
//
// The UC1701 drives passive matrix panels of up to 132×65 pixels, such as the
// EA DOGS102 module. This driver exposes the controller's native paged
// addressing: position the cursor, then stream column bytes.
//
// # Display Characteristics
//
// - 1 bit per pixel
// - 132 columns × 8 pages of display RAM, 8 pixel rows per page
// - Column address auto-increments after every data byte
// - Mirrored column (SEG) and row (COM) scan directions
// - Adjustable contrast (electronic volume 0-63)
// - Display inversion and all-pixels-on lamp test
//
// # Hardware Connection
//
// Connect the panel to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VDD         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDA         → SPI Data (MOSI)
//	CD          → GPIO (any available pin)
//	CS0         → SPI Chip Select, or a GPIO passed as Opts.CS
//	RST         → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	package main
//
//	import (
//		"github.com/flavioheleno/uc1701"
//		"github.com/flavioheleno/uc1701/render"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO25")
//
//		dev, _ := uc1701.NewSPI(spiBus, dcPin, nil)
//		defer dev.Halt()
//
//		// Draw "+ 3123" on pages 0 and 1
//		n, _ := render.NewNumeral(render.NewRenderer(dev, nil), nil)
//		n.Draw(3123)
//	}
//
// # Addressing
//
// Display RAM is written one column byte at a time. Bit 0 of a byte is the
// top row of its page:
//
//	dev.SetPosition(2, 40)                 // page 2, column 40
//	dev.WritePixels([]byte{0xFF, 0x81, 0xFF}) // columns 40, 41 and 42
//
// SetPosition must be called before every write that does not continue where
// the previous one stopped. Positions outside the configured geometry fail
// with ErrOutOfRange.
//
// # Initialization
//
// NewSPI and New run the bring-up sequence recommended for the EA DOGS102: an
// optional hardware reset through Opts.RST, scroll line 0, mirrored scan
// directions, all pixels on as a lamp test, normal polarity, contrast, full
// power control, resistor ratio, 1/9 bias, temperature compensation and
// display on. RAM is then cleared and the lamp test turned off, so a blank
// panel is the first thing the user sees.
//
// # Bus Access
//
// Every frame runs through a spilink.Link, which holds the link exclusively
// while the D/C line is set, chip-select is asserted and the bytes are
// clocked. With Opts.Timeout set, a panel that never completes a frame yields
// spilink.ErrUnresponsive instead of blocking forever.
//
// # Command Builders
//
// The controller's opcodes are available as functions returning the exact
// bytes to send, e.g. PositionFrame, Contrast and PowerControl. They make the
// protocol encoding testable without a device and can be sent on any link.
//
// # Datasheet
//
// https://www.lcd-module.de/eng/pdf/zubehoer/uc1701.pdf
package uc1701
