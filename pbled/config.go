package pbled

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jvanderberg/pixelblit/errcode"
)

// Hard limits of the output hardware.
const (
	MaxBoards  = 4
	MaxPixels  = 256
	MaxStrings = 32
)

// Defaults applied by New for zero config fields.
const (
	DefaultFrequency  = 800_000
	DefaultResetDelay = 300 * time.Microsecond
)

// StringConfig describes one physical string.
type StringConfig struct {
	Length  int
	Enabled bool
}

// Config is the driver configuration. It is copied by New and never changes
// afterwards.
type Config struct {
	// BoardID is the board this driver outputs for. Addresses for other
	// boards are ignored.
	BoardID int
	// NumBoards is the number of boards in the system. Zero means 1.
	NumBoards int
	// NumStrings is the number of parallel strings driven by this board.
	NumStrings int
	// Strings optionally describes each string. Missing entries are treated
	// as enabled strings of MaxPixelLength pixels.
	Strings []StringConfig
	// MaxPixelLength is the length of the longest string. Every string is
	// clocked out for this many pixels.
	MaxPixelLength int
	// Frequency is the bit rate in Hz.
	Frequency int
	// ColorOrder is the wire order of the color channels.
	ColorOrder ColorOrder
	// ResetDelay is the latch time held after every frame.
	ResetDelay time.Duration
	// Engine transmits committed frames. Nil selects an engine that completes
	// immediately.
	Engine TransferEngine
	// Logger is the logger to use for the driver.
	Logger *slog.Logger
}

// StringAt returns the configuration of str, falling back to an enabled string
// of MaxPixelLength pixels.
func (c Config) StringAt(str int) StringConfig {
	if str >= 0 && str < len(c.Strings) {
		return c.Strings[str]
	}
	return StringConfig{Length: c.MaxPixelLength, Enabled: true}
}

func (c *Config) validate() error {
	invalid := func(format string, args ...any) error {
		return errcode.New(errcode.InvalidConfig, "pbled.New", fmt.Sprintf(format, args...))
	}

	if c.NumStrings <= 0 || c.NumStrings > MaxStrings {
		return invalid("string count %d outside 1..%d", c.NumStrings, MaxStrings)
	}
	if c.MaxPixelLength <= 0 || c.MaxPixelLength > MaxPixels {
		return invalid("max pixel length %d outside 1..%d", c.MaxPixelLength, MaxPixels)
	}
	if c.NumBoards == 0 {
		c.NumBoards = 1
	}
	if c.NumBoards < 0 || c.NumBoards > MaxBoards {
		return invalid("board count %d outside 1..%d", c.NumBoards, MaxBoards)
	}
	if c.BoardID < 0 || c.BoardID >= c.NumBoards {
		return invalid("board id %d outside 0..%d", c.BoardID, c.NumBoards-1)
	}
	if len(c.Strings) > c.NumStrings {
		return invalid("%d string entries for %d strings", len(c.Strings), c.NumStrings)
	}
	if int(c.ColorOrder) >= len(permutations) {
		return invalid("unknown color order %d", c.ColorOrder)
	}

	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}
	if c.ResetDelay == 0 {
		c.ResetDelay = DefaultResetDelay
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Strings = append([]StringConfig(nil), c.Strings...)
	return nil
}
