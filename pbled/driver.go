// Package pbled drives up to 32 parallel LED strings from bit-plane encoded
// buffers and maps 2D rasters onto them.
package pbled

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jvanderberg/pixelblit/errcode"
)

// handoff states of the transmission buffer.
const (
	writableIdle int32 = iota
	transferInFlight
)

// inUse guards the single driver slot.
var inUse atomic.Bool

// Driver encodes pixels into a back buffer and commits it to a transfer
// engine. Pixel and show methods must be called from a single goroutine;
// the statistics, brightness and busy accessors are safe from any goroutine.
type Driver struct {
	cfg    Config
	engine TransferEngine
	logger *slog.Logger

	bufs [2][]uint32
	back int

	// token holds one value while no transfer is in flight.
	token chan struct{}
	state atomic.Int32

	brightness atomic.Uint32
	frames     atomic.Uint64
	fps        atomic.Uint32

	lastShow    time.Time
	fpsWindow   time.Time
	fpsInWindow int

	rasters rasterPool
	closed  bool
}

// New creates the driver. Only one driver may exist at a time; the slot is
// released by Close.
func New(cfg Config) (*Driver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !inUse.CompareAndSwap(false, true) {
		return nil, errcode.New(errcode.InUse, "pbled.New", "a driver already exists")
	}

	engine := cfg.Engine
	if engine == nil {
		engine = immediateEngine{}
	}

	size := cfg.MaxPixelLength * planeWords
	d := &Driver{
		cfg:    cfg,
		engine: engine,
		logger: cfg.Logger.With("component", "pbled"),
		bufs:   [2][]uint32{make([]uint32, size), make([]uint32, size)},
		token:  make(chan struct{}, 1),
	}
	d.token <- struct{}{}
	d.brightness.Store(255)

	d.logger.Debug(
		"driver created",
		"board", cfg.BoardID,
		"strings", cfg.NumStrings,
		"pixels", cfg.MaxPixelLength,
		"order", cfg.ColorOrder.String(),
		"frequency", cfg.Frequency)

	return d, nil
}

// Config returns the driver configuration with defaults applied.
func (d *Driver) Config() Config { return d.cfg }

// SetBrightness sets the global brightness applied when pixels are encoded.
func (d *Driver) SetBrightness(b uint8) { d.brightness.Store(uint32(b)) }

// Brightness returns the global brightness.
func (d *Driver) Brightness() uint8 { return uint8(d.brightness.Load()) }

// SetPixel encodes c into the back buffer. Out of range coordinates are
// ignored.
func (d *Driver) SetPixel(str, pixel int, c Color) {
	if str < 0 || str >= d.cfg.NumStrings || pixel < 0 || pixel >= d.cfg.MaxPixelLength {
		return
	}

	w := d.cfg.ColorOrder.Wire(c.Scale(d.Brightness()))
	mask := uint32(1) << str
	buf := d.bufs[d.back][pixel*planeWords : (pixel+1)*planeWords]

	for ch, v := range w {
		planes := buf[ch*8 : ch*8+8]
		for bit := range planes {
			if v>>(7-bit)&1 != 0 {
				planes[bit] |= mask
			} else {
				planes[bit] &^= mask
			}
		}
	}
}

// SetAddress sets the pixel at a, ignoring addresses on other boards.
func (d *Driver) SetAddress(a Address, c Color) {
	if a.Board != d.cfg.BoardID {
		return
	}
	d.SetPixel(a.String, a.Pixel, c)
}

// GetPixel decodes a pixel from the back buffer. Out of range coordinates
// read as black.
func (d *Driver) GetPixel(str, pixel int) Color {
	return d.view(d.back).Color(str, pixel)
}

// Clear sets every pixel slot of every string to c.
func (d *Driver) Clear(c Color) {
	for s := 0; s < d.cfg.NumStrings; s++ {
		for p := 0; p < d.cfg.MaxPixelLength; p++ {
			d.SetPixel(s, p, c)
		}
	}
}

func (d *Driver) view(buf int) Frame {
	return Frame{
		planes:  d.bufs[buf],
		strings: d.cfg.NumStrings,
		pixels:  d.cfg.MaxPixelLength,
		order:   d.cfg.ColorOrder,
		cfg:     &d.cfg,
	}
}

// Show commits the back buffer, waiting for any transfer in flight.
// Engine failures are logged.
func (d *Driver) Show() {
	if err := d.ShowContext(context.Background()); err != nil {
		d.logger.Warn(
			"failed to show frame",
			"error", err.Error())
	}
}

// ShowContext is Show with cancellation while waiting for the engine.
func (d *Driver) ShowContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.token:
	}
	return d.commit()
}

// ShowAsync commits the back buffer only if no transfer is in flight. It
// returns false, leaving the buffers untouched, when the engine is busy or
// refuses the frame.
func (d *Driver) ShowAsync() bool {
	select {
	case <-d.token:
	default:
		return false
	}
	if err := d.commit(); err != nil {
		d.logger.Debug(
			"async show refused",
			"error", err.Error())
		return false
	}
	return true
}

// ShowWait blocks until no transfer is in flight.
func (d *Driver) ShowWait() {
	<-d.token
	d.token <- struct{}{}
}

// ShowBusy reports whether a transfer is in flight.
func (d *Driver) ShowBusy() bool {
	return d.state.Load() == transferInFlight
}

// commit must be called holding the token.
func (d *Driver) commit() error {
	d.state.Store(transferInFlight)

	front := d.back
	d.back ^= 1
	// The writable buffer starts out as the committed frame so that
	// incremental updates and GetPixel keep working across shows.
	copy(d.bufs[d.back], d.bufs[front])

	frame := d.view(front)
	frame.Seq = d.frames.Load() + 1

	// The token goes back exactly once, even if the engine completes the
	// frame and then reports an error anyway.
	var once atomic.Bool
	release := func() {
		if once.CompareAndSwap(false, true) {
			d.state.Store(writableIdle)
			d.token <- struct{}{}
		}
	}

	if err := d.engine.Transmit(frame, release); err != nil {
		d.back = front
		release()
		return fmt.Errorf("failed to transmit frame %d: %w", frame.Seq, err)
	}

	d.frames.Add(1)
	d.recordShow(time.Now())
	return nil
}

func (d *Driver) recordShow(now time.Time) {
	d.lastShow = now
	d.fpsInWindow++
	if d.fpsWindow.IsZero() {
		d.fpsWindow = now
	}
	if elapsed := now.Sub(d.fpsWindow); elapsed >= time.Second {
		d.fps.Store(uint32(int64(d.fpsInWindow) * int64(time.Second) / int64(elapsed)))
		d.fpsInWindow = 0
		d.fpsWindow = now
	}
}

// ShowWithFPS paces commits to fps. It sleeps in short steps until close to
// the deadline computed from the previous commit, spins the rest of the way
// and then shows. A non-positive fps does nothing.
func (d *Driver) ShowWithFPS(ctx context.Context, fps int) error {
	if fps <= 0 {
		return nil
	}

	if !d.lastShow.IsZero() {
		deadline := d.lastShow.Add(time.Second / time.Duration(fps))
		for time.Until(deadline) > 200*time.Microsecond {
			if err := ctx.Err(); err != nil {
				return err
			}
			time.Sleep(100 * time.Microsecond)
		}
		for time.Now().Before(deadline) {
			runtime.Gosched()
		}
	}

	return d.ShowContext(ctx)
}

// FrameCount returns the number of committed frames.
func (d *Driver) FrameCount() uint64 { return d.frames.Load() }

// FPS returns the commit rate measured over the last full second.
func (d *Driver) FPS() int { return int(d.fps.Load()) }

// Close destroys all rasters, waits for the transfer in flight and releases
// the driver slot. The driver must not be used afterwards.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	d.DestroyAllRasters()
	d.ShowWait()
	inUse.Store(false)

	d.logger.Debug(
		"driver closed",
		"frames", d.frames.Load())
	return nil
}

// Address is a physical pixel location.
type Address struct {
	Board  int
	String int
	Pixel  int
}
