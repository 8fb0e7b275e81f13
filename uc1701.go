// Package uc1701 controls a UC1701 monochrome LCD controller via SPI.
//
// The UC1701 drives up to 132x65 pixels. Display RAM is organised in pages of
// 8 pixel rows; every data byte written is one column of one page, least
// significant bit on top, and the column address advances after each byte.
//
// See the examples for how to use this package.
package uc1701

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/flavioheleno/uc1701/spilink"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// MaxColumns is the number of columns of display RAM.
	MaxColumns = 132
	// MaxPages is the number of full 8-row pages of display RAM.
	MaxPages = 8
	// PageHeight is the number of pixel rows in a page.
	PageHeight = 8
)

var (
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("uc1701: halted")
	// ErrOutOfRange is returned for positions outside display RAM.
	ErrOutOfRange = errors.New("uc1701: position out of range")
)

// Opts is the configuration for the UC1701 display.
type Opts struct {
	// Display RAM geometry
	Columns int // Default: 132, must be ≤132
	Pages   int // Default: 8, must be ≤8

	// Orientation
	MirrorX bool // Mirror column order (SEG direction)
	MirrorY bool // Mirror row order (COM direction)

	// Analog settings
	Contrast      byte // Electronic volume 1-63 (default: 48)
	ResistorRatio byte // Regulator resistor ratio 0-7
	BiasSeventh   bool // 1/7 bias instead of 1/9
	TempComp      bool // -0.11%/°C temperature compensation

	// Optional control lines
	CS  gpio.PinOut // Chip select, active low (nil if handled by the port)
	RST gpio.PinOut // Reset, active low (nil if not used)

	// Timeout bounds every bus frame; 0 waits forever.
	Timeout time.Duration
}

// DefaultOpts matches the EA DOGS102 module wiring: mirrored columns and
// rows, contrast 48, resistor ratio 4, 1/9 bias, temperature compensation on.
var DefaultOpts = Opts{
	Columns:       MaxColumns,
	Pages:         MaxPages,
	MirrorX:       true,
	MirrorY:       true,
	Contrast:      0x30,
	ResistorRatio: 4,
	TempComp:      true,
}

// Dev is the device handle for the UC1701 display.
type Dev struct {
	// Communication
	link *spilink.Link
	rst  gpio.PinOut

	// Display geometry
	columns int
	pages   int

	opts Opts

	// State
	halted bool
}

// NewSPI creates a new UC1701 device connected via SPI.
//
// The SPI port is configured for 8MHz, Mode0 (CPOL=0, CPHA=0), 8-bit
// transfers. The dc (command/data) GPIO pin must be provided and configured
// as an output.
//
// opts can be nil to use DefaultOpts.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	o, err := validate(opts)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("uc1701: dc pin is required")
	}
	l, err := spilink.NewSPI(p, 8*physic.MegaHertz, spi.Mode0, &spilink.Opts{
		Name:    "uc1701",
		CS:      o.CS,
		DC:      dc,
		Timeout: o.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("uc1701: %w", err)
	}
	return newDev(l, o)
}

// New creates a new UC1701 device on an existing link. The link must have a
// D/C line; its chip-select and timeout settings take precedence over
// opts.CS and opts.Timeout.
func New(l *spilink.Link, opts *Opts) (*Dev, error) {
	if l == nil {
		return nil, errors.New("uc1701: nil link")
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
	if o.Columns <= 0 || o.Columns > MaxColumns {
		return o, fmt.Errorf("uc1701: columns must be between 1 and %d", MaxColumns)
	}
	if o.Pages <= 0 || o.Pages > MaxPages {
		return o, fmt.Errorf("uc1701: pages must be between 1 and %d", MaxPages)
	}
	if o.Contrast > 0x3f {
		return o, errors.New("uc1701: contrast must be ≤63")
	}
	if o.Contrast == 0 {
		o.Contrast = DefaultOpts.Contrast
	}
	if o.ResistorRatio > 7 {
		return o, errors.New("uc1701: resistor ratio must be ≤7")
	}
	return o, nil
}

func newDev(l *spilink.Link, o Opts) (*Dev, error) {
	d := &Dev{
		link:    l,
		rst:     o.RST,
		columns: o.Columns,
		pages:   o.Pages,
		opts:    o,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init() error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("uc1701: failed to pull RST low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("uc1701: failed to pull RST high: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	contrast := Contrast(d.opts.Contrast)
	var adv byte
	if d.opts.TempComp {
		adv |= TempComp
	}
	advanced := AdvancedControl(adv)

	cmds := []byte{
		ScrollLine(0),
		SEGDirection(d.opts.MirrorX),
		COMDirection(d.opts.MirrorY),
		AllPixelsOn(true), // Lamp test while RAM is cleared
		Inverse(false),
		contrast[0], contrast[1],
		PowerControl(PowerAll),
		ResistorRatio(d.opts.ResistorRatio),
		BiasRatio(d.opts.BiasSeventh),
		advanced[0], advanced[1],
		DisplayEnable(true),
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}

	if err := d.clearRAM(); err != nil {
		return err
	}

	return d.sendCommand(AllPixelsOn(false))
}

// clearRAM blanks every page of display RAM.
func (d *Dev) clearRAM() error {
	zeros := make([]byte, d.columns)
	for page := 0; page < d.pages; page++ {
		if err := d.setPosition(page, 0); err != nil {
			return err
		}
		if err := d.sendData(zeros); err != nil {
			return err
		}
	}
	return nil
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	return d.sendCommands([]byte{cmd})
}

// sendCommands sends a slice of command bytes.
func (d *Dev) sendCommands(cmds []byte) error {
	if err := d.link.Command(cmds); err != nil {
		return fmt.Errorf("uc1701: %w", err)
	}
	return nil
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.link.Data(data); err != nil {
		return fmt.Errorf("uc1701: %w", err)
	}
	return nil
}

func (d *Dev) setPosition(page, col int) error {
	f := PositionFrame(page, col)
	return d.sendCommands(f[:])
}

// SetPosition moves the write cursor to column col of page page.
func (d *Dev) SetPosition(page, col int) error {
	if d.halted {
		return ErrHalted
	}
	if page < 0 || page >= d.pages || col < 0 || col >= d.columns {
		return fmt.Errorf("%w: page %d, column %d", ErrOutOfRange, page, col)
	}
	return d.setPosition(page, col)
}

// WritePixels writes column bytes at the cursor. The controller advances the
// column after every byte; the cursor is not moved otherwise.
func (d *Dev) WritePixels(pixels []byte) error {
	if d.halted {
		return ErrHalted
	}
	return d.sendData(pixels)
}

// Clear blanks the whole display RAM.
func (d *Dev) Clear() error {
	if d.halted {
		return ErrHalted
	}
	return d.clearRAM()
}

// Bounds returns the image bounds of the display in pixels.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.columns, d.pages*PageHeight)
}

// Columns returns the number of addressable columns.
func (d *Dev) Columns() int {
	return d.columns
}

// Pages returns the number of addressable pages.
func (d *Dev) Pages() int {
	return d.pages
}

// SetContrast sets the electronic volume (0-63).
func (d *Dev) SetContrast(pm byte) error {
	if d.halted {
		return ErrHalted
	}
	if pm > 0x3f {
		return errors.New("uc1701: contrast must be ≤63")
	}
	c := Contrast(pm)
	return d.sendCommands(c[:])
}

// Invert inverts the display pixels (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return ErrHalted
	}
	return d.sendCommand(Inverse(invert))
}

// AllPixelsOn forces every pixel on (true) or shows RAM content (false).
func (d *Dev) AllPixelsOn(on bool) error {
	if d.halted {
		return ErrHalted
	}
	return d.sendCommand(AllPixelsOn(on))
}

// SetScrollLine selects the RAM line shown on the top display row (0-63).
func (d *Dev) SetScrollLine(line int) error {
	if d.halted {
		return ErrHalted
	}
	if line < 0 || line > 63 {
		return errors.New("uc1701: scroll line must be between 0 and 63")
	}
	return d.sendCommand(ScrollLine(line))
}

// Reset resets the controller and runs the initialization sequence again.
// The hardware reset line is used when present, the system reset command
// otherwise.
func (d *Dev) Reset() error {
	if d.halted {
		return ErrHalted
	}
	if d.rst == nil {
		if err := d.sendCommand(SystemReset()); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return d.init()
}

// Halt turns the display off.
// After calling Halt, the display will not respond to further commands.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommand(DisplayEnable(false))
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("uc1701.Dev{%dx%d}", d.columns, d.pages*PageHeight)
}
