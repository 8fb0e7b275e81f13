// Package spilink provides exclusive, framed access to a point-to-point SPI
// link.
//
// A Link owns one connection plus the optional chip-select and command/data
// lines wired next to it. Every frame runs inside the link's critical section:
// the D/C line is set, chip-select is asserted, the bytes are clocked and
// chip-select is released before any other caller may touch the link.
package spilink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ErrUnresponsive is returned when a frame could not start or complete
// within the link's Timeout.
var ErrUnresponsive = errors.New("spilink: device unresponsive")

// Opts is the configuration for a Link.
type Opts struct {
	// Name is used in errors and String. Defaults to the connection's name.
	Name string

	// CS is an optional chip-select output, active low. When nil the port's
	// own chip-select handling is relied upon.
	CS gpio.PinOut

	// DC is an optional command/data output. It is required to use Command
	// and Data.
	DC gpio.PinOut

	// Timeout bounds how long a frame may wait for the link and run.
	// Zero waits forever: a peripheral that never completes stalls the
	// caller.
	Timeout time.Duration
}

// Link is a SPI connection used one frame at a time.
type Link struct {
	c       conn.Conn
	cs      gpio.PinOut
	dc      gpio.PinOut
	name    string
	timeout time.Duration
	sem     *semaphore.Weighted
}

// NewSPI connects to p with 8-bit words and returns a Link over it.
func NewSPI(p spi.Port, f physic.Frequency, mode spi.Mode, opts *Opts) (*Link, error) {
	c, err := p.Connect(f, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("spilink: %w", err)
	}
	return New(c, opts)
}

// New returns a Link over an established connection.
//
// The chip-select line, when present, is driven inactive immediately.
func New(c conn.Conn, opts *Opts) (*Link, error) {
	if c == nil {
		return nil, errors.New("spilink: nil connection")
	}
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Timeout < 0 {
		return nil, errors.New("spilink: timeout must not be negative")
	}
	l := &Link{
		c:       c,
		cs:      opts.CS,
		dc:      opts.DC,
		name:    opts.Name,
		timeout: opts.Timeout,
		sem:     semaphore.NewWeighted(1),
	}
	if l.name == "" {
		l.name = c.String()
	}
	if l.cs != nil {
		if err := l.cs.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("spilink: %s: release CS: %w", l.name, err)
		}
	}
	return l, nil
}

// Transact clocks out w. When r is not nil it must be as long as w and
// receives one byte per byte sent.
func (l *Link) Transact(w, r []byte) error {
	return l.frame(nil, w, r)
}

// Command sends w with the D/C line low.
func (l *Link) Command(w []byte) error {
	if l.dc == nil {
		return fmt.Errorf("spilink: %s: no D/C line", l.name)
	}
	lvl := gpio.Low
	return l.frame(&lvl, w, nil)
}

// Data sends w with the D/C line high.
func (l *Link) Data(w []byte) error {
	if l.dc == nil {
		return fmt.Errorf("spilink: %s: no D/C line", l.name)
	}
	lvl := gpio.High
	return l.frame(&lvl, w, nil)
}

// String returns the link name.
func (l *Link) String() string {
	return l.name
}

// Duplex returns the duplex mode of the underlying connection.
func (l *Link) Duplex() conn.Duplex {
	return l.c.Duplex()
}

// frame runs one transaction in the critical section. The frame works on
// private copies so a caller that gave up on a stalled frame never sees its
// buffers written later.
func (l *Link) frame(dc *gpio.Level, w, r []byte) error {
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("spilink: %s: read buffer is %d bytes, want %d", l.name, len(r), len(w))
	}
	if len(w) == 0 {
		return nil
	}

	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: %s: link busy", ErrUnresponsive, l.name)
	}

	out := make([]byte, len(w))
	copy(out, w)
	var in []byte
	if r != nil {
		in = make([]byte, len(r))
	}

	if l.timeout == 0 {
		defer l.sem.Release(1)
		return l.finish(l.tx(dc, out, in), r, in)
	}

	done := make(chan error, 1)
	go func() {
		defer l.sem.Release(1)
		done <- l.tx(dc, out, in)
	}()
	return l.await(ctx, done, r, in)
}

// await waits for the result of a frame running in the background.
func (l *Link) await(ctx context.Context, done <-chan error, r, in []byte) error {
	select {
	case err := <-done:
		return l.finish(err, r, in)
	case <-ctx.Done():
		// A frame that completed as the deadline hit is not a timeout.
		select {
		case err := <-done:
			return l.finish(err, r, in)
		default:
		}
		return fmt.Errorf("%w: %s: frame did not complete", ErrUnresponsive, l.name)
	}
}

// finish copies the reply of a completed frame into r.
func (l *Link) finish(err error, r, in []byte) error {
	if err != nil {
		return err
	}
	copy(r, in)
	return nil
}

// tx drives the control lines around a single Tx. Chip-select is released on
// every path once it was asserted.
func (l *Link) tx(dc *gpio.Level, w, r []byte) (err error) {
	if dc != nil {
		if err := l.dc.Out(*dc); err != nil {
			return fmt.Errorf("spilink: %s: set D/C: %w", l.name, err)
		}
	}
	if l.cs != nil {
		if err := l.cs.Out(gpio.Low); err != nil {
			return fmt.Errorf("spilink: %s: assert CS: %w", l.name, err)
		}
		defer func() {
			if cerr := l.cs.Out(gpio.High); cerr != nil && err == nil {
				err = fmt.Errorf("spilink: %s: release CS: %w", l.name, cerr)
			}
		}()
	}
	if err = l.c.Tx(w, r); err != nil {
		return fmt.Errorf("spilink: %s: %w", l.name, err)
	}
	return nil
}
