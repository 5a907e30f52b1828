package pbled

import (
	"fmt"

	"github.com/jvanderberg/pixelblit/errcode"
)

// WrapMode decides how raster rows are laid onto the physical strings.
type WrapMode uint8

const (
	// WrapNone walks the pixels sequentially, moving to the next string only
	// when a string is exhausted.
	WrapNone WrapMode = iota
	// WrapClip puts every row on its own string.
	WrapClip
	// WrapZigzag folds rows back and forth along one string.
	WrapZigzag
	// WrapChain splits the canvas into fixed segments, one per string.
	WrapChain
)

var wrapModeNames = [...]string{
	WrapNone:   "none",
	WrapClip:   "clip",
	WrapZigzag: "zigzag",
	WrapChain:  "chain",
}

func (m WrapMode) String() string {
	if int(m) >= len(wrapModeNames) {
		return fmt.Sprintf("WrapMode(%d)", uint8(m))
	}
	return wrapModeNames[m]
}

// RasterConfig describes a raster and where it starts on the strings.
type RasterConfig struct {
	Width       int
	Height      int
	Board       int
	StartString int
	StartPixel  int
	Wrap        WrapMode
	// ChainLength is the number of pixels per string in WrapChain mode.
	// Zero means the driver's max pixel length.
	ChainLength int
}

// geometry is the part of the driver configuration that mappings depend on.
type geometry struct {
	strings int
	boards  int
	pixels  int
}

func (g geometry) validate(rc RasterConfig) error {
	invalid := func(format string, args ...any) error {
		return errcode.New(errcode.InvalidConfig, "pbled.CreateRaster", fmt.Sprintf(format, args...))
	}

	if rc.Width <= 0 || rc.Height <= 0 {
		return invalid("raster size %dx%d", rc.Width, rc.Height)
	}
	if rc.Wrap > WrapChain {
		return invalid("unknown wrap mode %d", rc.Wrap)
	}
	if rc.Wrap != WrapChain {
		return nil
	}

	chain := rc.chainLength(g)
	if chain <= 0 || rc.Width%chain != 0 {
		return invalid("width %d is not a multiple of chain length %d", rc.Width, chain)
	}
	needed := (rc.Width*rc.Height + chain - 1) / chain
	if rc.StartString+needed > g.strings {
		return invalid("chain needs %d strings from string %d, have %d", needed, rc.StartString, g.strings)
	}
	return nil
}

func (rc RasterConfig) chainLength(g geometry) int {
	if rc.ChainLength > 0 {
		return rc.ChainLength
	}
	return g.pixels
}

// cursor walks physical strings, rolling over to the next board.
type cursor struct {
	g      geometry
	board  int
	string int
}

func (c *cursor) nextString() {
	c.string++
	if c.string >= c.g.strings {
		c.string = 0
		c.board++
		if c.board >= c.g.boards {
			c.board = 0
		}
	}
}

// buildMapping fills dst, which holds Width*Height entries, with the
// physical address of every cell in row-major order.
func buildMapping(dst []Address, rc RasterConfig, g geometry) {
	if rc.Wrap == WrapChain {
		buildChain(dst, rc, g)
		return
	}

	cur := cursor{g: g, board: rc.Board, string: rc.StartString}
	pixel := 0
	fold := 0

	for y := 0; y < rc.Height; y++ {
		for x := 0; x < rc.Width; x++ {
			if x == 0 {
				if rc.Wrap == WrapZigzag {
					fold++
				} else {
					fold = 0
				}
			}

			var offset int
			switch rc.Wrap {
			case WrapZigzag:
				if fold%2 == 0 {
					// Walk the fold backwards over the same run of pixels.
					offset = rc.Width*fold - (pixel + 1 - rc.Width*(fold-1))
				} else {
					offset = pixel
				}
			case WrapClip:
				if pixel >= rc.Width {
					pixel = 0
					fold = 0
					cur.nextString()
				}
				offset = pixel
			default:
				offset = pixel
			}

			dst[y*rc.Width+x] = Address{
				Board:  cur.board,
				String: cur.string,
				Pixel:  offset + rc.StartPixel,
			}

			pixel++
			if pixel >= g.pixels {
				pixel = 0
				fold = 0
				cur.nextString()
			}
		}
	}
}

func buildChain(dst []Address, rc RasterConfig, g geometry) {
	chain := rc.chainLength(g)
	for i := range dst {
		board := rc.Board
		str := rc.StartString + i/chain
		for str >= g.strings {
			str -= g.strings
			board = (board + 1) % g.boards
		}
		dst[i] = Address{
			Board:  board,
			String: str,
			Pixel:  i%chain + rc.StartPixel,
		}
	}
}
