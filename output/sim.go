// Package output contains transfer engines that take committed frames from
// the LED driver and put them somewhere: real strings, a simulator or an
// observer such as the preview stream.
package output

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jvanderberg/pixelblit/pbled"
)

// WireTime returns how long clocking out pixels at freq Hz takes.
func WireTime(pixels, freq int) time.Duration {
	if freq <= 0 {
		freq = pbled.DefaultFrequency
	}
	return time.Duration(int64(pixels) * 24 * int64(time.Second) / int64(freq))
}

// SimOpts are options for a simulated engine.
type SimOpts struct {
	// Frequency is the simulated bit rate. Zero means the driver default.
	Frequency int
	// ResetDelay is the simulated latch time. Zero means the driver default.
	ResetDelay time.Duration
	// Realtime holds every frame for as long as real strings would.
	Realtime bool
	// Logger is the logger to use for the engine.
	Logger *slog.Logger
}

// Sim is a transfer engine without hardware. It completes each frame on
// its own goroutine.
type Sim struct {
	opts   SimOpts
	logger *slog.Logger
	frames atomic.Uint64
	wg     sync.WaitGroup
}

var _ pbled.TransferEngine = (*Sim)(nil)

// NewSim creates a simulated engine.
func NewSim(opts SimOpts) *Sim {
	if opts.Frequency == 0 {
		opts.Frequency = pbled.DefaultFrequency
	}
	if opts.ResetDelay == 0 {
		opts.ResetDelay = pbled.DefaultResetDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Sim{
		opts:   opts,
		logger: opts.Logger.With("component", "output.sim"),
	}
}

// Transmit implements pbled.TransferEngine.
func (s *Sim) Transmit(f pbled.Frame, done func()) error {
	hold := time.Duration(0)
	if s.opts.Realtime {
		hold = WireTime(f.Pixels(), s.opts.Frequency) + s.opts.ResetDelay
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer done()

		if hold > 0 {
			time.Sleep(hold)
		}

		if n := s.frames.Add(1); n%1000 == 0 {
			s.logger.Debug(
				"simulated frames sent",
				"frames", n)
		}
	}()

	return nil
}

// Frames returns the number of completed frames.
func (s *Sim) Frames() uint64 { return s.frames.Load() }

// Close waits for the frame in flight.
func (s *Sim) Close() error {
	s.wg.Wait()
	return nil
}
