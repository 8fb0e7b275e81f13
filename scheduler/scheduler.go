// Package scheduler turns button and accelerometer edges into rate limited
// redraws.
//
// A Scheduler is a plain state object. It is driven by three kinds of events:
// a button edge, an accelerometer edge and the passing of time (Expire). All
// of them must come from a single goroutine; Runner provides one.
//
// Every button edge that is accepted starts a cooldown for that button during
// which further edges are counted as bounce and dropped. A press on an armed
// button, or any accelerometer edge, requests a redraw: the sensor is sampled
// and the value drawn, unless a previous redraw is still inside its holdoff
// window, in which case the request is dropped without touching either bus.
package scheduler

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// Ticks is a free running 32-bit time base. Comparisons are wrap safe as long
// as the compared instants are less than half the range apart.
type Ticks uint32

// Before reports whether t is strictly earlier than u.
func (t Ticks) Before(u Ticks) bool {
	return int32(t-u) < 0
}

const (
	// DefaultButtonCooldown is the bounce rejection window.
	DefaultButtonCooldown Ticks = 0x0300
	// DefaultRedrawHoldoff is a quarter of a 16-bit timer overflow period.
	DefaultRedrawHoldoff Ticks = 0x10000 / 4
	// PressLevel is the level of a pressed pull-up button.
	PressLevel = gpio.Low
)

// Sampler reads the value to display. *cma3000.Dev implements it.
type Sampler interface {
	Sample() (int, error)
}

// Display draws a value. *render.Numeral implements it.
type Display interface {
	Draw(v int) error
}

// Opts is the configuration for a Scheduler.
type Opts struct {
	Buttons        int   // Number of buttons (default: 1)
	ButtonCooldown Ticks // Default: DefaultButtonCooldown
	RedrawHoldoff  Ticks // Default: DefaultRedrawHoldoff
}

// Stats counts what the scheduler did with its events.
type Stats struct {
	Redraws int // Redraws started
	Dropped int // Redraw requests dropped while busy
	Bounced int // Button edges dropped during cooldown
	Ignored int // Button edges not matching the expected direction
	Errors  int // Redraws that failed to sample or draw
	Last    int // Last value drawn
}

// timer is an entry of the scheduler's sorted timer list.
type timer struct {
	wake    Ticks
	pending bool
	next    *timer
	fire    func(now Ticks)
}

type button struct {
	armed    bool
	sense    gpio.Level // Level of the next edge that is acted upon
	level    gpio.Level // Last level seen
	cooldown timer
}

// Scheduler is the redraw state machine.
type Scheduler struct {
	sampler Sampler
	display Display

	cooldown Ticks
	holdoff  Ticks

	buttons []button
	busy    bool
	redraw  timer
	timers  *timer

	stats Stats
}

// New returns a Scheduler sampling from s and drawing on d.
//
// opts can be nil to use one button and the default windows.
func New(s Sampler, d Display, opts *Opts) (*Scheduler, error) {
	if s == nil || d == nil {
		return nil, errors.New("scheduler: sampler and display are required")
	}
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.Buttons == 0 {
		o.Buttons = 1
	}
	if o.ButtonCooldown == 0 {
		o.ButtonCooldown = DefaultButtonCooldown
	}
	if o.RedrawHoldoff == 0 {
		o.RedrawHoldoff = DefaultRedrawHoldoff
	}
	if o.Buttons < 0 {
		return nil, errors.New("scheduler: negative button count")
	}
	if int32(o.ButtonCooldown) < 0 || int32(o.RedrawHoldoff) < 0 {
		return nil, errors.New("scheduler: windows must be shorter than half the tick range")
	}

	sc := &Scheduler{
		sampler:  s,
		display:  d,
		cooldown: o.ButtonCooldown,
		holdoff:  o.RedrawHoldoff,
		buttons:  make([]button, o.Buttons),
	}
	for i := range sc.buttons {
		b := &sc.buttons[i]
		b.armed = true
		b.sense = PressLevel
		b.level = !PressLevel
		b.cooldown.fire = func(Ticks) { b.rearm() }
	}
	sc.redraw.fire = func(Ticks) { sc.busy = false }
	return sc, nil
}

// ButtonEdge handles an edge of button id that left the line at level.
//
// An edge in the direction opposite to the one expected is ignored. A
// matching edge on an armed button flips the expected direction and, when it
// is a press, requests a redraw. Any matching edge restarts the button's
// cooldown.
func (s *Scheduler) ButtonEdge(id int, level gpio.Level, now Ticks) error {
	if id < 0 || id >= len(s.buttons) {
		return fmt.Errorf("scheduler: unknown button %d", id)
	}
	b := &s.buttons[id]
	b.level = level
	if level != b.sense {
		s.stats.Ignored++
		return nil
	}

	armed := b.armed
	b.armed = false
	s.schedule(&b.cooldown, now+s.cooldown)
	if !armed {
		s.stats.Bounced++
		return nil
	}
	b.sense = !b.sense
	if level == PressLevel {
		return s.Request(now)
	}
	return nil
}

// AccelEdge handles an accelerometer interrupt. It has no cooldown.
func (s *Scheduler) AccelEdge(now Ticks) error {
	return s.Request(now)
}

// Request asks for a redraw. It is dropped while a previous redraw is within
// its holdoff window. A failed redraw still holds the scheduler busy.
func (s *Scheduler) Request(now Ticks) error {
	if s.busy {
		s.stats.Dropped++
		return nil
	}
	s.busy = true
	s.schedule(&s.redraw, now+s.holdoff)
	s.stats.Redraws++

	v, err := s.sampler.Sample()
	if err != nil {
		s.stats.Errors++
		return fmt.Errorf("scheduler: sample: %w", err)
	}
	if err := s.display.Draw(v); err != nil {
		s.stats.Errors++
		return fmt.Errorf("scheduler: draw %d: %w", v, err)
	}
	s.stats.Last = v
	return nil
}

// Expire runs every timer due at now.
func (s *Scheduler) Expire(now Ticks) {
	for s.timers != nil && !now.Before(s.timers.wake) {
		t := s.timers
		s.timers = t.next
		t.next = nil
		t.pending = false
		t.fire(now)
	}
}

// Next returns the wake time of the earliest pending timer.
func (s *Scheduler) Next() (Ticks, bool) {
	if s.timers == nil {
		return 0, false
	}
	return s.timers.wake, true
}

// Busy reports whether a redraw holdoff is running.
func (s *Scheduler) Busy() bool {
	return s.busy
}

// Armed reports whether button id accepts edges.
func (s *Scheduler) Armed(id int) bool {
	return id >= 0 && id < len(s.buttons) && s.buttons[id].armed
}

// Buttons returns the number of buttons.
func (s *Scheduler) Buttons() int {
	return len(s.buttons)
}

// Stats returns the event counters.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// rearm ends the cooldown. The expected direction follows the last level
// seen, so a release that completed during the cooldown does not swallow the
// next press.
func (b *button) rearm() {
	b.armed = true
	b.sense = !b.level
}

// schedule (re)arms t to fire at wake.
func (s *Scheduler) schedule(t *timer, wake Ticks) {
	if t.pending {
		s.unlink(t)
	}
	t.wake = wake
	t.pending = true

	if s.timers == nil || wake.Before(s.timers.wake) {
		t.next = s.timers
		s.timers = t
		return
	}
	cur := s.timers
	for cur.next != nil && !wake.Before(cur.next.wake) {
		cur = cur.next
	}
	t.next = cur.next
	cur.next = t
}

func (s *Scheduler) unlink(t *timer) {
	for p := &s.timers; *p != nil; p = &(*p).next {
		if *p == t {
			*p = t.next
			t.next = nil
			t.pending = false
			return
		}
	}
}
