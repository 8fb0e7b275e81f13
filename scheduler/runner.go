package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Kind identifies the source of an Event.
type Kind int

const (
	// Button is an edge on a button line.
	Button Kind = iota
	// Accel is an accelerometer interrupt.
	Accel
	// Redraw is an explicit redraw request.
	Redraw
)

func (k Kind) String() string {
	switch k {
	case Button:
		return "button"
	case Accel:
		return "accel"
	case Redraw:
		return "redraw"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is an input for the Runner.
type Event struct {
	Kind   Kind
	Button int        // Button index, for Button events
	Level  gpio.Level // Line level after the edge, for Button events
}

// DefaultTickRate matches a 32768Hz crystal timer.
const DefaultTickRate = 32768 * physic.Hertz

// RunnerOpts is the configuration for a Runner.
type RunnerOpts struct {
	// Clock is the time source (default: the real clock).
	Clock clockwork.Clock
	// TickRate converts elapsed time to Ticks (default: DefaultTickRate).
	TickRate physic.Frequency
	// Poll bounds how long expired timers may go unnoticed and how long pin
	// watchers block between checks for cancellation (default: 10ms).
	Poll time.Duration

	// Buttons are watched on both edges with a pull-up; the slice index is
	// the button index. There must not be more than the Scheduler's buttons.
	Buttons []gpio.PinIn
	// Accel is the accelerometer interrupt line, watched on rising edges.
	Accel gpio.PinIn

	// OnError receives handler errors (default: log.Printf).
	OnError func(error)
}

type message struct {
	ev    Event
	stats chan<- Stats
}

// Runner feeds a Scheduler from a single goroutine.
type Runner struct {
	s       *Scheduler
	clock   clockwork.Clock
	period  time.Duration
	poll    time.Duration
	buttons []gpio.PinIn
	accel   gpio.PinIn
	onError func(error)

	in    chan message
	start time.Time
}

// NewRunner returns a Runner driving s.
func NewRunner(s *Scheduler, opts *RunnerOpts) (*Runner, error) {
	if s == nil {
		return nil, errors.New("scheduler: nil scheduler")
	}
	var o RunnerOpts
	if opts != nil {
		o = *opts
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.TickRate == 0 {
		o.TickRate = DefaultTickRate
	}
	if o.Poll == 0 {
		o.Poll = 10 * time.Millisecond
	}
	if o.OnError == nil {
		o.OnError = func(err error) { log.Printf("scheduler: %v", err) }
	}
	period := o.TickRate.Period()
	if o.TickRate < 0 || period <= 0 {
		return nil, fmt.Errorf("scheduler: invalid tick rate %s", o.TickRate)
	}
	if o.Poll < 0 {
		return nil, errors.New("scheduler: poll interval must not be negative")
	}
	if len(o.Buttons) > s.Buttons() {
		return nil, fmt.Errorf("scheduler: %d button pins for %d buttons", len(o.Buttons), s.Buttons())
	}
	return &Runner{
		s:       s,
		clock:   o.Clock,
		period:  period,
		poll:    o.Poll,
		buttons: o.Buttons,
		accel:   o.Accel,
		onError: o.OnError,
		in:      make(chan message, 16),
	}, nil
}

// Run configures the pins, then processes events until ctx is done. It
// returns nil on cancellation. Run must only be called once.
func (r *Runner) Run(ctx context.Context) error {
	for i, p := range r.buttons {
		if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
			return fmt.Errorf("scheduler: button %d: %w", i, err)
		}
	}
	if r.accel != nil {
		if err := r.accel.In(gpio.PullUp, gpio.RisingEdge); err != nil {
			return fmt.Errorf("scheduler: accelerometer: %w", err)
		}
	}

	r.start = r.clock.Now()
	ticker := r.clock.NewTicker(r.poll)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer ticker.Stop()
		return r.loop(gctx, ticker)
	})
	for i, p := range r.buttons {
		i, p := i, p
		g.Go(func() error {
			return r.watch(gctx, p, func(l gpio.Level) Event {
				return Event{Kind: Button, Button: i, Level: l}
			})
		})
	}
	if r.accel != nil {
		g.Go(func() error {
			return r.watch(gctx, r.accel, func(gpio.Level) Event {
				return Event{Kind: Accel}
			})
		})
	}
	return g.Wait()
}

// Post queues ev. It blocks until the event is queued or ctx is done.
func (r *Runner) Post(ctx context.Context, ev Event) error {
	select {
	case r.in <- message{ev: ev}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the scheduler counters once every event posted before the
// call has been handled.
func (r *Runner) Stats(ctx context.Context) (Stats, error) {
	c := make(chan Stats, 1)
	select {
	case r.in <- message{stats: c}:
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case st := <-c:
		return st, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (r *Runner) loop(ctx context.Context, t clockwork.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.Chan():
			r.s.Expire(r.now())
		case m := <-r.in:
			now := r.now()
			r.s.Expire(now)
			if m.stats != nil {
				m.stats <- r.s.Stats()
				continue
			}
			if err := r.dispatch(m.ev, now); err != nil {
				r.onError(err)
			}
		}
	}
}

func (r *Runner) dispatch(ev Event, now Ticks) error {
	switch ev.Kind {
	case Button:
		return r.s.ButtonEdge(ev.Button, ev.Level, now)
	case Accel:
		return r.s.AccelEdge(now)
	case Redraw:
		return r.s.Request(now)
	}
	return fmt.Errorf("scheduler: unknown event %s", ev.Kind)
}

// watch posts an event for every edge on p.
func (r *Runner) watch(ctx context.Context, p gpio.PinIn, ev func(gpio.Level) Event) error {
	for ctx.Err() == nil {
		if !p.WaitForEdge(r.poll) {
			continue
		}
		if err := r.Post(ctx, ev(p.Read())); err != nil {
			return nil
		}
	}
	return nil
}

// now converts the time elapsed since Run started to Ticks. The counter
// wraps like a hardware timer.
func (r *Runner) now() Ticks {
	return r.ticks(r.clock.Since(r.start))
}

func (r *Runner) ticks(d time.Duration) Ticks {
	return Ticks(uint64(d / r.period))
}
