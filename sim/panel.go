// Package sim provides simulated peripherals that plug in where a periph
// conn.Conn is expected: a UC1701 panel that keeps its display RAM in an
// image1bit.VerticalLSB and a CMA3000 accelerometer register file.
package sim

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Frame is one transaction seen by the panel.
type Frame struct {
	Command bool
	Bytes   []byte
}

// PanelState is a snapshot of the panel's command registers.
type PanelState struct {
	Page, Column  int
	ScrollLine    int
	Contrast      byte
	Power         byte
	ResistorRatio byte
	Advanced      byte
	MirrorX       bool
	MirrorY       bool
	AllPixelsOn   bool
	Inverted      bool
	BiasSeventh   bool
	Enabled       bool
	Resets        int
}

// Panel simulates a UC1701 controller behind a D/C line.
type Panel struct {
	columns, pages int
	dc             *gpiotest.Pin

	mu      sync.Mutex
	ram     *image1bit.VerticalLSB
	state   PanelState
	pending byte
	frames  []Frame
}

// NewPanel returns a panel with the given RAM geometry.
func NewPanel(columns, pages int) *Panel {
	return &Panel{
		columns: columns,
		pages:   pages,
		dc:      &gpiotest.Pin{N: "DC"},
		ram:     image1bit.NewVerticalLSB(image.Rect(0, 0, columns, pages*8)),
	}
}

// DC returns the command/data input of the panel.
func (p *Panel) DC() gpio.PinIO {
	return p.dc
}

// String implements conn.Conn.
func (p *Panel) String() string {
	return "sim-uc1701"
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// Tx implements conn.Conn. The D/C level at the time of the call decides
// whether w holds commands or pixel data.
func (p *Panel) Tx(w, r []byte) error {
	for i := range r {
		r[i] = 0
	}
	command := p.dc.Read() == gpio.Low

	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, Frame{Command: command, Bytes: append([]byte(nil), w...)})
	if !command {
		for _, b := range w {
			p.write(b)
		}
		return nil
	}
	for _, b := range w {
		if err := p.command(b); err != nil {
			return err
		}
	}
	return nil
}

func (p *Panel) write(b byte) {
	s := &p.state
	if s.Page < p.pages && s.Column < p.columns {
		for bit := 0; bit < 8; bit++ {
			p.ram.SetBit(s.Column, s.Page*8+bit, image1bit.Bit(b&(1<<bit) != 0))
		}
	}
	s.Column++
}

func (p *Panel) command(b byte) error {
	s := &p.state
	if p.pending != 0 {
		switch p.pending {
		case 0x81:
			s.Contrast = b & 0x3f
		case 0xFA:
			s.Advanced = b
		}
		p.pending = 0
		return nil
	}
	switch {
	case b&0xF0 == 0x00:
		s.Column = s.Column&0xF0 | int(b&0x0F)
	case b&0xF0 == 0x10:
		s.Column = int(b&0x0F)<<4 | s.Column&0x0F
	case b&0xF8 == 0x20:
		s.ResistorRatio = b & 0x07
	case b&0xF8 == 0x28:
		s.Power = b & 0x07
	case b&0xC0 == 0x40:
		s.ScrollLine = int(b & 0x3F)
	case b == 0x81, b == 0xFA:
		p.pending = b
	case b&0xFE == 0xA0:
		s.MirrorX = b&1 != 0
	case b&0xFE == 0xA2:
		s.BiasSeventh = b&1 != 0
	case b&0xFE == 0xA4:
		s.AllPixelsOn = b&1 != 0
	case b&0xFE == 0xA6:
		s.Inverted = b&1 != 0
	case b&0xFE == 0xAE:
		s.Enabled = b&1 != 0
	case b&0xF0 == 0xB0:
		s.Page = int(b & 0x0F)
	case b&0xF0 == 0xC0:
		s.MirrorY = b&0x08 != 0
	case b == 0xE2:
		*s = PanelState{Resets: s.Resets + 1}
	case b == 0xE3:
		// NOP
	default:
		return fmt.Errorf("sim: unknown UC1701 command %#02x", b)
	}
	return nil
}

// State returns a snapshot of the command registers.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Frames returns every transaction seen so far.
func (p *Panel) Frames() []Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Frame(nil), p.frames...)
}

// ResetFrames forgets the recorded transactions.
func (p *Panel) ResetFrames() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = nil
}

// Byte returns the RAM byte at column col of page page.
func (p *Panel) Byte(page, col int) byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b byte
	for bit := 0; bit < 8; bit++ {
		if p.ram.BitAt(col, page*8+bit) {
			b |= 1 << bit
		}
	}
	return b
}

// Bytes returns n RAM bytes of page page starting at column col.
func (p *Panel) Bytes(page, col, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = p.Byte(page, col+i)
	}
	return out
}

// Image returns a copy of the display RAM.
func (p *Panel) Image() *image1bit.VerticalLSB {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image1bit.NewVerticalLSB(p.ram.Bounds())
	copy(img.Pix, p.ram.Pix)
	return img
}

// Render draws the pixel rows of pages [from, to) as text, '#' for lit
// pixels.
func (p *Panel) Render(from, to, columns int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	for y := from * 8; y < to*8; y++ {
		for x := 0; x < columns; x++ {
			if p.ram.BitAt(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
