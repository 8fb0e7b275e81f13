// Package render draws font glyphs and signed decimal numbers on a
// page-addressed display.
package render

import (
	"github.com/flavioheleno/uc1701/font"
)

// PixelWriter is the part of a paged display the renderer needs. It is
// implemented by *uc1701.Dev.
type PixelWriter interface {
	SetPosition(page, col int) error
	WritePixels(pixels []byte) error
}

// Geometry is implemented by writers that know their addressable area, such
// as *uc1701.Dev. Layouts drawn on them are checked up front.
type Geometry interface {
	Pages() int
	Columns() int
}

// Renderer draws glyphs of one font.
type Renderer struct {
	w    PixelWriter
	font *font.Font
}

// NewRenderer returns a Renderer drawing with f, or font.Default when f is
// nil.
func NewRenderer(w PixelWriter, f *font.Font) *Renderer {
	if f == nil {
		f = &font.Default
	}
	return &Renderer{w: w, font: f}
}

// DrawGlyph draws glyph i with its upper strip at (page, col) and its lower
// strip at (page+1, col).
func (r *Renderer) DrawGlyph(i font.Index, page, col int) error {
	g, err := r.font.Glyph(i)
	if err != nil {
		return err
	}
	if err := r.w.SetPosition(page+1, col); err != nil {
		return err
	}
	if err := r.w.WritePixels(g.Lower()); err != nil {
		return err
	}
	if err := r.w.SetPosition(page, col); err != nil {
		return err
	}
	return r.w.WritePixels(g.Upper())
}

// DrawGlyphs draws a run of glyphs starting at (page, col), one glyph
// advance apart.
func (r *Renderer) DrawGlyphs(glyphs []font.Index, page, col int) error {
	for _, i := range glyphs {
		if err := r.DrawGlyph(i, page, col); err != nil {
			return err
		}
		col += font.Advance
	}
	return nil
}
