package output

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jvanderberg/pixelblit/pbled"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
)

// DefaultNRZFrequency is the SPI clock used to emit the NRZ bit stream.
const DefaultNRZFrequency = 2500 * physic.KiloHertz

// NRZOpts are options for an NRZ engine.
type NRZOpts struct {
	// String is the string of each frame sent over the port.
	String int
	// NumPixels is the number of pixels on the string.
	NumPixels int
	// Frequency is the SPI clock. Zero means DefaultNRZFrequency.
	Frequency physic.Frequency
	// ResetDelay is the latch time held after each frame.
	ResetDelay time.Duration
	// Logger is the logger to use for the engine.
	Logger *slog.Logger
}

// NRZ sends one string of every frame as a WS281x bit stream over an SPI
// port.
type NRZ struct {
	dev    *nrzled.Dev
	port   io.Closer
	opts   NRZOpts
	logger *slog.Logger

	buf []byte
	wg  sync.WaitGroup
}

var _ pbled.TransferEngine = (*NRZ)(nil)

// OpenNRZ opens the named SPI port from the periph registry. An empty name
// picks the first port. host.Init must have been called.
func OpenNRZ(name string, opts NRZOpts) (*NRZ, error) {
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", name, err)
	}

	n, err := NewNRZ(port, opts)
	if err != nil {
		port.Close()
		return nil, err
	}
	n.port = port
	return n, nil
}

// NewNRZ creates an NRZ engine on port.
func NewNRZ(port spi.Port, opts NRZOpts) (*NRZ, error) {
	if opts.NumPixels <= 0 || opts.NumPixels > pbled.MaxPixels {
		return nil, fmt.Errorf("invalid pixel count %d", opts.NumPixels)
	}
	if opts.Frequency == 0 {
		opts.Frequency = DefaultNRZFrequency
	}
	if opts.ResetDelay == 0 {
		opts.ResetDelay = pbled.DefaultResetDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: opts.NumPixels,
		Channels:  3,
		Freq:      opts.Frequency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nrzled device: %w", err)
	}

	return &NRZ{
		dev:    dev,
		opts:   opts,
		logger: opts.Logger.With("component", "output.nrz", "device", dev.String()),
		buf:    make([]byte, 0, opts.NumPixels*3),
	}, nil
}

// Transmit implements pbled.TransferEngine. The wire bytes are copied out
// before Transmit returns, so the frame is released after the latch delay.
func (n *NRZ) Transmit(f pbled.Frame, done func()) error {
	n.buf = nrzledInput(f.AppendWire(n.buf[:0], n.opts.String, n.opts.NumPixels))

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer done()

		if _, err := n.dev.Write(n.buf); err != nil {
			n.logger.Warn(
				"failed to write frame",
				"seq", f.Seq,
				"error", err.Error())
		}
		time.Sleep(n.opts.ResetDelay)
	}()

	return nil
}

// nrzledInput rearranges wire bytes into what nrzled.Dev.Write expects. The
// device takes RGB and always sends G, R, B, so swapping the first two bytes
// of each pixel puts the strip's own wire order on the line for any
// ColorOrder.
func nrzledInput(wire []byte) []byte {
	for i := 0; i+2 < len(wire); i += 3 {
		wire[i], wire[i+1] = wire[i+1], wire[i]
	}
	return wire
}

// String implements fmt.Stringer.
func (n *NRZ) String() string { return n.dev.String() }

// Close turns the string off and releases the port.
func (n *NRZ) Close() error {
	n.wg.Wait()

	if err := n.dev.Halt(); err != nil {
		return fmt.Errorf("failed to halt nrzled device: %w", err)
	}
	if n.port != nil {
		if err := n.port.Close(); err != nil {
			return fmt.Errorf("failed to close SPI port: %w", err)
		}
	}
	return nil
}
