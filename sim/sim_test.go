package sim

import (
	"bytes"
	"testing"

	"periph.io/x/conn/v3/gpio"
)

func TestPanelAddressing(t *testing.T) {
	p := NewPanel(132, 8)
	dc := p.DC()

	_ = dc.Out(gpio.Low)
	if err := p.Tx([]byte{0x18, 0x04, 0xB3}, nil); err != nil {
		t.Fatal(err)
	}
	s := p.State()
	if s.Page != 3 || s.Column != 0x84 {
		t.Fatalf("cursor = (%d, %d), want (3, 132)", s.Page, s.Column)
	}

	_ = dc.Out(gpio.Low)
	if err := p.Tx([]byte{0x10, 0x05, 0xB2}, nil); err != nil {
		t.Fatal(err)
	}
	_ = dc.Out(gpio.High)
	if err := p.Tx([]byte{0x81, 0x42, 0xFF}, nil); err != nil {
		t.Fatal(err)
	}
	if got := p.Bytes(2, 5, 3); !bytes.Equal(got, []byte{0x81, 0x42, 0xFF}) {
		t.Errorf("RAM = %#v", got)
	}
	if got := p.State().Column; got != 8 {
		t.Errorf("column after write = %d, want 8", got)
	}
	if n := len(p.Frames()); n != 3 {
		t.Errorf("frames = %d, want 3", n)
	}
}

func TestPanelWriteBeyondLastColumn(t *testing.T) {
	p := NewPanel(4, 1)
	_ = p.DC().Out(gpio.Low)
	if err := p.Tx([]byte{0x10, 0x02, 0xB0}, nil); err != nil {
		t.Fatal(err)
	}
	_ = p.DC().Out(gpio.High)
	if err := p.Tx([]byte{1, 2, 3, 4}, nil); err != nil {
		t.Fatal(err)
	}
	if got := p.Bytes(0, 0, 4); !bytes.Equal(got, []byte{0, 0, 1, 2}) {
		t.Errorf("RAM = %#v", got)
	}
}

func TestPanelCommands(t *testing.T) {
	p := NewPanel(132, 8)
	_ = p.DC().Out(gpio.Low)
	cmds := []byte{0x40, 0xA1, 0xC8, 0xA5, 0xA6, 0x81, 0x30, 0x2F, 0x24, 0xA2, 0xFA, 0x90, 0xAF}
	if err := p.Tx(cmds, nil); err != nil {
		t.Fatal(err)
	}
	want := PanelState{
		Contrast:      0x30,
		Power:         0x07,
		ResistorRatio: 4,
		Advanced:      0x90,
		MirrorX:       true,
		MirrorY:       true,
		AllPixelsOn:   true,
		Enabled:       true,
	}
	if got := p.State(); got != want {
		t.Errorf("State() = %+v\nwant %+v", got, want)
	}
	if err := p.Tx([]byte{0xE2}, nil); err != nil {
		t.Fatal(err)
	}
	if got := p.State(); got != (PanelState{Resets: 1}) {
		t.Errorf("State() after reset = %+v", got)
	}
	if err := p.Tx([]byte{0xD0}, nil); err == nil {
		t.Error("unknown command should fail")
	}
}

func TestPanelRender(t *testing.T) {
	p := NewPanel(2, 1)
	_ = p.DC().Out(gpio.High)
	if err := p.Tx([]byte{0x01, 0x80}, nil); err != nil {
		t.Fatal(err)
	}
	want := "#.\n..\n..\n..\n..\n..\n..\n.#\n"
	if got := p.Render(0, 1, 2); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestAccelerometer(t *testing.T) {
	a := NewAccelerometer()
	a.SetAxis(1, -3)

	r := make([]byte, 2)
	if err := a.Tx([]byte{0x07 << 2, 0x00}, r); err != nil {
		t.Fatal(err)
	}
	if int8(r[1]) != -3 {
		t.Errorf("DOUTY = %d, want -3", int8(r[1]))
	}
	if err := a.Tx([]byte{0x02<<2 | 0x02, 0x92}, nil); err != nil {
		t.Fatal(err)
	}
	if got := a.Register(0x02); got != 0x92 {
		t.Errorf("CTRL = %#x, want 0x92", got)
	}
	if a.Reads() != 1 || a.Writes() != 1 {
		t.Errorf("reads=%d writes=%d, want 1 and 1", a.Reads(), a.Writes())
	}
	if err := a.Tx([]byte{0x00}, nil); err == nil {
		t.Error("short frame should fail")
	}
	if err := a.Tx([]byte{0xFC, 0x00}, make([]byte, 2)); err == nil {
		t.Error("out of range address should fail")
	}
}
