// Command fseqgen writes test-pattern sequence files for a board layout.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/fseq"
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

var (
	output      = "test.fseq"
	boardConfig = ""
	boardID     = 0
	numStrings  = boardconfig.MaxStrings
	numPixels   = boardconfig.DefaultPixelCount
	pattern     = "rainbow"
	frames      = 300
	fps         = 40
	value       = 64
	verbose     = false
)

func init() {
	pflag.StringVarP(&output, "output", "o", output, "sequence file to write")
	pflag.StringVar(&boardConfig, "board-config", boardConfig, "CSV board config to take the layout from")
	pflag.IntVar(&boardID, "board-id", boardID, "board section of the board config")
	pflag.IntVar(&numStrings, "strings", numStrings, "number of strings without a board config")
	pflag.IntVar(&numPixels, "pixels", numPixels, "pixels per string without a board config")
	pflag.StringVarP(&pattern, "pattern", "p", pattern, "pattern: rainbow, chase or strings")
	pflag.IntVarP(&frames, "frames", "n", frames, "number of frames")
	pflag.IntVar(&fps, "fps", fps, "frame rate")
	pflag.IntVar(&value, "value", value, "brightness of the pattern, 0-255")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:   level,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		log.Fatal(err)
	}
}

func run(logger *slog.Logger) error {
	layout, err := loadLayout()
	if err != nil {
		return err
	}

	gen, ok := patterns[pattern]
	if !ok {
		return fmt.Errorf("unknown pattern %q", pattern)
	}
	if fps <= 0 || fps > 1000 {
		return fmt.Errorf("fps %d out of range", fps)
	}
	if value < 0 || value > 255 {
		return fmt.Errorf("value %d out of range", value)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create sequence file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := generate(bw, layout, gen, frames, fps, uint8(value)); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close sequence file: %w", err)
	}

	logger.Info(
		"sequence written",
		"path", output,
		"pattern", pattern,
		"frames", frames,
		"fps", fps,
		"channels", layout.Channels())

	return nil
}

func loadLayout() (fseq.Layout, error) {
	if boardConfig != "" {
		board, err := boardconfig.Load(boardConfig, boardID)
		if err != nil {
			return nil, fmt.Errorf("failed to load board config: %w", err)
		}
		return board.Layout(), nil
	}

	if numStrings <= 0 || numStrings > boardconfig.MaxStrings {
		return nil, fmt.Errorf("string count %d out of range", numStrings)
	}
	layout := make(fseq.Layout, numStrings)
	for i := range layout {
		layout[i] = numPixels
	}
	return layout, nil
}

// patternFunc returns the color of a pixel in a frame.
type patternFunc func(frame, str, pixel, pixels int, v uint8) pbled.Color

var patterns = map[string]patternFunc{
	// rainbow scrolls a hue gradient along every string.
	"rainbow": func(frame, str, pixel, pixels int, v uint8) pbled.Color {
		return pbled.HSV(uint8(pixel*255/pixels+frame*2), 255, v)
	},
	// chase moves one white pixel along every string.
	"chase": func(frame, str, pixel, pixels int, v uint8) pbled.Color {
		if pixel == frame%pixels {
			return pbled.RGB(v, v, v)
		}
		return 0
	},
	// strings gives each string its own steady hue, to check the wiring.
	"strings": func(frame, str, pixel, pixels int, v uint8) pbled.Color {
		return pbled.HSV(uint8(str*255/boardconfig.MaxStrings), 255, v)
	},
}

func generate(w io.Writer, layout fseq.Layout, gen patternFunc, frames, fps int, v uint8) error {
	channels := layout.Channels()
	if channels == 0 {
		return fmt.Errorf("layout has no pixels")
	}

	sw, err := fseq.NewWriter(w, fseq.NewHeader(uint32(channels), uint32(frames), uint8(1000/fps)))
	if err != nil {
		return err
	}

	buf := make([]byte, 0, channels)
	for frame := 0; frame < frames; frame++ {
		buf = buf[:0]
		for str, pixels := range layout {
			for pixel := 0; pixel < pixels; pixel++ {
				c := gen(frame, str, pixel, pixels, v)
				buf = append(buf, c.R(), c.G(), c.B())
			}
		}
		if err := sw.WriteFrame(buf); err != nil {
			return err
		}
	}
	return nil
}
