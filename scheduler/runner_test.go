package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

// chanDisplay reports drawn values on a channel.
type chanDisplay struct {
	drawn chan int
}

func (c *chanDisplay) Draw(v int) error {
	c.drawn <- v
	return nil
}

// countSensor returns 1, 2, 3, ...
type countSensor struct {
	mu sync.Mutex
	n  int
}

func (c *countSensor) Sample() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n, nil
}

type runnerTest struct {
	r      *Runner
	clock  *clockwork.FakeClock
	drawn  chan int
	cancel context.CancelFunc
	done   chan error
}

func startRunner(t *testing.T, opts *RunnerOpts) *runnerTest {
	t.Helper()
	rt := &runnerTest{
		clock: clockwork.NewFakeClock(),
		drawn: make(chan int, 16),
		done:  make(chan error, 1),
	}
	s, err := New(&countSensor{}, &chanDisplay{drawn: rt.drawn}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts == nil {
		opts = &RunnerOpts{}
	}
	opts.Clock = rt.clock
	rt.r, err = NewRunner(s, opts)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt.cancel = cancel
	go func() { rt.done <- rt.r.Run(ctx) }()
	t.Cleanup(rt.stop)
	// The poll ticker exists once Run has configured the pins.
	wait, cancelWait := context.WithTimeout(ctx, 5*time.Second)
	defer cancelWait()
	if err := rt.clock.BlockUntilContext(wait, 1); err != nil {
		t.Fatalf("runner did not start its ticker: %v", err)
	}
	return rt
}

func (rt *runnerTest) stop() {
	rt.cancel()
	<-rt.done
}

func (rt *runnerTest) stats(t *testing.T) Stats {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := rt.r.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func (rt *runnerTest) post(t *testing.T, ev Event) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.r.Post(ctx, ev); err != nil {
		t.Fatal(err)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	s, err := New(&countSensor{}, &fakeDisplay{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		s       *Scheduler
		opts    *RunnerOpts
		wantErr bool
	}{
		{"defaults", s, nil, false},
		{"nil scheduler", nil, nil, true},
		{"negative rate", s, &RunnerOpts{TickRate: -physic.Hertz}, true},
		{"rate too high", s, &RunnerOpts{TickRate: 10 * physic.GigaHertz}, true},
		{"negative poll", s, &RunnerOpts{Poll: -time.Second}, true},
		{"too many pins", s, &RunnerOpts{Buttons: []gpio.PinIn{&gpiotest.Pin{}, &gpiotest.Pin{}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(tt.s, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRunner() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunnerTicks(t *testing.T) {
	s, err := New(&countSensor{}, &fakeDisplay{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewRunner(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := r.ticks(1000 * DefaultTickRate.Period()); got != 1000 {
		t.Errorf("ticks = %d, want 1000", got)
	}
	// The tick counter wraps like a 32-bit hardware timer.
	if got := r.ticks((1<<32 + 5) * DefaultTickRate.Period()); got != 5 {
		t.Errorf("ticks = %d, want 5", got)
	}
}

func TestRunnerEvents(t *testing.T) {
	rt := startRunner(t, nil)
	period := DefaultTickRate.Period()

	rt.post(t, Event{Kind: Button, Level: gpio.Low})
	if v := <-rt.drawn; v != 1 {
		t.Fatalf("drawn %d, want 1", v)
	}
	rt.post(t, Event{Kind: Button, Level: gpio.High})
	rt.post(t, Event{Kind: Accel})
	if st := rt.stats(t); st.Redraws != 1 || st.Bounced != 1 || st.Dropped != 1 {
		t.Fatalf("Stats() = %+v", st)
	}

	rt.clock.Advance(time.Duration(DefaultRedrawHoldoff) * period)
	rt.post(t, Event{Kind: Accel})
	if v := <-rt.drawn; v != 2 {
		t.Fatalf("drawn %d, want 2", v)
	}

	rt.clock.Advance(time.Duration(DefaultRedrawHoldoff) * period)
	rt.post(t, Event{Kind: Redraw})
	if v := <-rt.drawn; v != 3 {
		t.Fatalf("drawn %d, want 3", v)
	}
	if st := rt.stats(t); st.Redraws != 3 || st.Last != 3 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestRunnerExpiresOnTicker(t *testing.T) {
	rt := startRunner(t, nil)
	rt.post(t, Event{Kind: Accel})
	<-rt.drawn
	rt.clock.Advance(time.Second)
	// Stats is answered after the loop drained the ticker or the event, and
	// both expire due timers first.
	if st := rt.stats(t); st.Redraws != 1 {
		t.Fatalf("Stats() = %+v", st)
	}
	rt.post(t, Event{Kind: Accel})
	if v := <-rt.drawn; v != 2 {
		t.Errorf("drawn %d, want 2", v)
	}
}

func TestRunnerErrors(t *testing.T) {
	errs := make(chan error, 4)
	rt := startRunner(t, &RunnerOpts{OnError: func(err error) { errs <- err }})
	rt.post(t, Event{Kind: Button, Button: 3})
	rt.post(t, Event{Kind: Kind(42)})
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err == nil {
				t.Error("nil error reported")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("error not reported")
		}
	}
}

func TestRunnerWatchesPins(t *testing.T) {
	btn := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level, 4)}
	acc := &gpiotest.Pin{N: "INT", EdgesChan: make(chan gpio.Level, 4)}
	rt := startRunner(t, &RunnerOpts{
		Buttons: []gpio.PinIn{btn},
		Accel:   acc,
		Poll:    time.Millisecond,
	})
	if btn.Pull() != gpio.PullUp {
		t.Errorf("button pull = %s, want PullUp", btn.Pull())
	}

	btn.EdgesChan <- gpio.Low
	select {
	case v := <-rt.drawn:
		if v != 1 {
			t.Errorf("drawn %d, want 1", v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("button press did not redraw")
	}

	// The accelerometer edge arrives within the holdoff.
	acc.EdgesChan <- gpio.High
	deadline := time.Now().Add(5 * time.Second)
	for {
		st := rt.stats(t)
		if st.Dropped == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("accelerometer edge not handled: %+v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunnerPinError(t *testing.T) {
	s, err := New(&countSensor{}, &fakeDisplay{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// gpiotest refuses edge detection without an edge channel.
	r, err := NewRunner(s, &RunnerOpts{Buttons: []gpio.PinIn{&gpiotest.Pin{N: "BTN"}}})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Error("Run() should fail to configure the pin")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	s, err := New(&countSensor{}, &fakeDisplay{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	btn := &gpiotest.Pin{N: "BTN", EdgesChan: make(chan gpio.Level)}
	r, err := NewRunner(s, &RunnerOpts{Buttons: []gpio.PinIn{btn}, Poll: time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
	}
	// The queue may still have room; either way Post must not block.
	if err := r.Post(ctx, Event{Kind: Accel}); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Post() = %v", err)
	}
}
