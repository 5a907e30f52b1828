package pixelblit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/fseq"
	"github.com/jvanderberg/pixelblit/pbled"
)

// PlayerOpts are options for a Player.
type PlayerOpts struct {
	// Board is the string layout of the board. Decoded pixels outside of it
	// are dropped.
	Board boardconfig.Config
	// OnLoop is called from the playing goroutine every time the sequence
	// restarts from the top.
	OnLoop func()
	// Logger is the logger to use for the player.
	Logger *slog.Logger
}

// Player streams sequence files into a driver.
type Player struct {
	driver *pbled.Driver
	opts   PlayerOpts
	logger *slog.Logger

	loops  atomic.Uint64
	frames atomic.Uint64
}

// NewPlayer creates a player that renders into d.
func NewPlayer(d *pbled.Driver, opts PlayerOpts) *Player {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Player{
		driver: d,
		opts:   opts,
		logger: opts.Logger.With("component", "player"),
	}
}

// Loops returns the number of times the current sequence has restarted.
func (p *Player) Loops() uint64 { return p.loops.Load() }

// Frames returns the number of frames shown by the current sequence.
func (p *Player) Frames() uint64 { return p.frames.Load() }

// Play renders the sequence at path until ctx is done, looping it forever.
// The sequence loops after its declared frame count or on a short read,
// whichever comes first. When ctx is done the strings are blanked and
// ctx.Err() is returned.
func (p *Player) Play(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open sequence: %w", err)
	}
	defer f.Close()

	h, err := fseq.ReadHeader(f)
	if err != nil {
		return fmt.Errorf("failed to read sequence header: %w", err)
	}
	if err := h.CheckPlayable(); err != nil {
		return err
	}
	if h.ChannelCount == 0 {
		return fmt.Errorf("sequence %q has no channels", path)
	}

	p.loops.Store(0)
	p.frames.Store(0)

	board := p.opts.Board
	dec := fseq.NewDecoder(fseq.PixelSinkFunc(func(str, pixel int, color uint32) {
		if board.Contains(str, pixel) {
			p.driver.SetPixel(str, pixel, pbled.Color(color))
		}
	}), board.Layout())
	dec.SetHeader(h)

	logger := p.logger.With("sequence", path)
	logger.Info(
		"playing sequence",
		"frames", h.FrameCount,
		"fps", h.FPS(),
		"channels", h.ChannelCount,
		"layout_channels", dec.Layout().Channels())

	err = p.run(ctx, f, dec)

	stats := dec.Stats()
	logger.Debug(
		"sequence stopped",
		"loops", p.loops.Load(),
		"frames", stats.Frames,
		"dropped_pixels", stats.DroppedPixels,
		"truncated_bytes", stats.TruncatedBytes)

	p.blank()
	return err
}

func (p *Player) run(ctx context.Context, f io.ReadSeeker, dec *fseq.Decoder) error {
	h := dec.Header()
	fps := h.FPS()
	chunk := make([]byte, min(int(h.ChannelCount), fseq.OverflowSize))

	rewind := func() error {
		if _, err := f.Seek(int64(h.ChannelDataOffset), io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to channel data: %w", err)
		}
		dec.Reset()
		return nil
	}

	if err := rewind(); err != nil {
		return err
	}

	var played uint32
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if h.FrameCount > 0 && played >= h.FrameCount {
			if err := p.loop(rewind); err != nil {
				return err
			}
			played = 0
			continue
		}

		_, err := io.ReadFull(f, chunk)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("failed to read channel data: %w", err)
			}
			if played == 0 {
				return fmt.Errorf("sequence ends before its first frame")
			}
			if err := p.loop(rewind); err != nil {
				return err
			}
			played = 0
			continue
		}

		if dec.Push(chunk) {
			if err := p.driver.ShowWithFPS(ctx, fps); err != nil {
				return err
			}
			played++
			p.frames.Add(1)
		}
	}
}

func (p *Player) loop(rewind func() error) error {
	if err := rewind(); err != nil {
		return err
	}
	p.loops.Add(1)
	if p.opts.OnLoop != nil {
		p.opts.OnLoop()
	}
	return nil
}

// blank leaves the strings dark once the last transfer has finished.
func (p *Player) blank() {
	p.driver.ShowWait()
	p.driver.Clear(0)
	p.driver.Show()
	p.driver.ShowWait()
}
