// Package font holds the fixed numeral font used on the paged LCD.
//
// Each glyph is 6 columns wide and 2 pages (16 pixel rows) tall. The 12 bytes
// of a glyph are two vertical strips of 6 column bytes: the first strip is the
// lower page, the second strip the upper page. Within a byte the least
// significant bit is the top pixel row of that page.
package font

import "fmt"

const (
	// Width is the number of columns covered by a glyph.
	Width = 6
	// Advance is the column distance between two consecutive glyphs.
	Advance = 8
	// Pages is the number of display pages covered by a glyph.
	Pages = 2
	// Size is the number of bytes in a glyph.
	Size = Width * Pages
)

// Glyph is a 2-page, 6-column bitmap.
type Glyph [Size]byte

// Lower returns the strip drawn on the lower of the two pages.
func (g *Glyph) Lower() []byte {
	return g[:Width]
}

// Upper returns the strip drawn on the upper of the two pages.
func (g *Glyph) Upper() []byte {
	return g[Width:]
}

// Index selects a glyph in a Font.
type Index uint8

// Glyph indices.
const (
	Zero Index = iota
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Plus
	Minus
	Space
	Degree
	Dot

	// Count is the number of glyphs in a Font.
	Count = int(Dot) + 1
)

// Blank is the glyph used to clear display memory.
const Blank = Space

// Digit returns the glyph index for decimal digit d.
func Digit(d int) Index {
	if d < 0 || d > 9 {
		panic(fmt.Sprintf("font: %d is not a decimal digit", d))
	}
	return Index(d)
}

// Valid reports whether i selects a glyph.
func (i Index) Valid() bool {
	return int(i) < Count
}

// String returns the character represented by i.
func (i Index) String() string {
	switch {
	case i <= Nine:
		return string(rune('0' + i))
	case i == Plus:
		return "+"
	case i == Minus:
		return "-"
	case i == Space:
		return " "
	case i == Degree:
		return "°"
	case i == Dot:
		return "."
	}
	return fmt.Sprintf("Index(%d)", uint8(i))
}

// Font is a complete glyph table.
type Font [Count]Glyph

// Glyph returns the glyph for i.
func (f *Font) Glyph(i Index) (*Glyph, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("font: invalid glyph index %d", uint8(i))
	}
	return &f[i], nil
}

// Default is the 6x9 numeral font.
var Default = Font{
	Zero: {
		0x00, 0x01, 0x01, 0x01, 0x01, 0x00,
		0xfe, 0x05, 0x09, 0x11, 0x21, 0xfe,
	},
	One: {
		0x00, 0x00, 0x00, 0x01, 0x01, 0x00,
		0x01, 0x01, 0x81, 0x01, 0xff, 0x01,
	},
	Two: {
		0x00, 0x00, 0x01, 0x01, 0x01, 0x00,
		0x03, 0xc5, 0x09, 0x11, 0x21, 0xc1,
	},
	Three: {
		0x00, 0x01, 0x01, 0x01, 0x01, 0x01,
		0x03, 0x01, 0x91, 0x32, 0x4a, 0x8c,
	},
	Four: {
		0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
		0x78, 0x88, 0x08, 0x09, 0x3f, 0x09,
	},
	Five: {
		0x00, 0x01, 0x01, 0x01, 0x01, 0x00,
		0x72, 0xa1, 0x21, 0x11, 0x1b, 0x0e,
	},
	Six: {
		0x00, 0x00, 0x01, 0x01, 0x01, 0x00,
		0x7c, 0xca, 0x91, 0x11, 0x13, 0x8e,
	},
	Seven: {
		0x01, 0x01, 0x01, 0x01, 0x01, 0x01,
		0x00, 0x80, 0x03, 0x0c, 0x30, 0xc0,
	},
	Eight: {
		0x00, 0x00, 0x01, 0x01, 0x00, 0x00,
		0x0e, 0xd1, 0x21, 0x21, 0xd1, 0x0e,
	},
	Nine: {
		0x00, 0x00, 0x01, 0x01, 0x01, 0x00,
		0x61, 0x91, 0x12, 0x14, 0x18, 0xe0,
	},
	Plus: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x10, 0x10, 0xfe, 0x10, 0x10, 0x00,
	},
	Minus: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x08, 0x08, 0x08, 0x08, 0x08, 0x08,
	},
	Space: {},
	Degree: {
		0x00, 0x00, 0x01, 0x01, 0x00, 0x00,
		0x00, 0xc0, 0x20, 0x20, 0xc0, 0x00,
	},
	Dot: {
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x03, 0x03, 0x00, 0x00,
	},
}
