package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flavioheleno/uc1701/font"
)

// ErrValueTooLarge is returned when a value has more digits than a line can
// hold and the overflow policy is Reject.
var ErrValueTooLarge = errors.New("render: value too large")

// ErrOutOfBounds is returned by NewNumeral when a line would not fit on the
// display.
var ErrOutOfBounds = errors.New("render: line does not fit the display")

// DefaultLength is the number of glyphs in a line: a sign and 5 digits.
const DefaultLength = 6

// Overflow selects what happens to values with more digits than fit.
type Overflow int

const (
	// Reject fails with ErrValueTooLarge and draws nothing.
	Reject Overflow = iota
	// Wrap keeps writing digits backwards through the slots modulo their
	// count, so more significant digits overwrite less significant ones.
	Wrap
	// Truncate keeps the least significant digits that fit.
	Truncate
	// Saturate shows the largest magnitude that fits, keeping the sign.
	Saturate
)

func (o Overflow) String() string {
	switch o {
	case Reject:
		return "reject"
	case Wrap:
		return "wrap"
	case Truncate:
		return "truncate"
	case Saturate:
		return "saturate"
	}
	return fmt.Sprintf("Overflow(%d)", int(o))
}

// ParseOverflow parses the String form of an Overflow.
func ParseOverflow(s string) (Overflow, error) {
	for o := Reject; o <= Saturate; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return Reject, fmt.Errorf("render: unknown overflow policy %q", s)
}

// Line is a sign glyph followed by the digit slots, most significant first.
type Line []font.Index

func (l Line) String() string {
	var b strings.Builder
	for _, i := range l {
		b.WriteString(i.String())
	}
	return b.String()
}

// Format converts v into a line of exactly length glyphs: a sign followed by
// length-1 digit slots, left padded with spaces.
func Format(v, length int, policy Overflow) (Line, error) {
	if length < 2 {
		return nil, fmt.Errorf("render: line length %d is too short", length)
	}
	line := make(Line, length)
	line[0] = font.Plus
	mag := uint64(v)
	if v < 0 {
		line[0] = font.Minus
		mag = -mag
	}

	slots := line[1:]
	for i := range slots {
		slots[i] = font.Space
	}
	n := len(slots)

	pos := n
	for {
		pos--
		if pos < 0 {
			switch policy {
			case Reject:
				return nil, fmt.Errorf("%w: %d does not fit in %d digits", ErrValueTooLarge, v, n)
			case Truncate:
				return line, nil
			case Saturate:
				for i := range slots {
					slots[i] = font.Nine
				}
				return line, nil
			case Wrap:
				pos += n
			default:
				return nil, fmt.Errorf("render: unknown overflow policy %d", int(policy))
			}
		}
		slots[pos] = font.Digit(int(mag % 10))
		mag /= 10
		if mag == 0 {
			return line, nil
		}
	}
}

// Numeral draws formatted numbers at a fixed origin.
type Numeral struct {
	r        *Renderer
	page     int
	col      int
	length   int
	overflow Overflow
}

// NumeralOpts is the configuration for a Numeral.
type NumeralOpts struct {
	Page     int      // Upper page of the line
	Column   int      // Column of the sign glyph
	Length   int      // Glyphs per line (default: DefaultLength)
	Overflow Overflow // Overflow policy (default: Reject)
}

// NewNumeral returns a Numeral drawing through r. opts can be nil to draw a
// DefaultLength line at page 0, column 0.
func NewNumeral(r *Renderer, opts *NumeralOpts) (*Numeral, error) {
	if opts == nil {
		opts = &NumeralOpts{}
	}
	n := &Numeral{
		r:        r,
		page:     opts.Page,
		col:      opts.Column,
		length:   opts.Length,
		overflow: opts.Overflow,
	}
	if n.length == 0 {
		n.length = DefaultLength
	}
	if n.length < 2 {
		return nil, fmt.Errorf("render: line length %d is too short", n.length)
	}
	if n.page < 0 || n.col < 0 {
		return nil, errors.New("render: origin must not be negative")
	}
	if n.overflow < Reject || n.overflow > Saturate {
		return nil, fmt.Errorf("render: unknown overflow policy %d", int(n.overflow))
	}
	if g, ok := r.w.(Geometry); ok {
		if n.page+font.Pages > g.Pages() {
			return nil, fmt.Errorf("%w: pages %d-%d past page %d", ErrOutOfBounds, n.page, n.page+font.Pages-1, g.Pages()-1)
		}
		if end := n.col + (n.length-1)*font.Advance + font.Width; end > g.Columns() {
			return nil, fmt.Errorf("%w: columns %d-%d past column %d", ErrOutOfBounds, n.col, end-1, g.Columns()-1)
		}
	}
	return n, nil
}

// Length returns the number of glyphs per line.
func (n *Numeral) Length() int {
	return n.length
}

// Draw formats v and draws it. Nothing is drawn when formatting fails.
func (n *Numeral) Draw(v int) error {
	line, err := Format(v, n.length, n.overflow)
	if err != nil {
		return err
	}
	return n.DrawLine(line)
}

// DrawLine draws a preformatted line.
func (n *Numeral) DrawLine(line Line) error {
	return n.r.DrawGlyphs(line, n.page, n.col)
}
