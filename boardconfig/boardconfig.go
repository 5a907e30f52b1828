// Package boardconfig parses the config.csv file that describes the strings
// attached to each board.
//
// Every data line is "pixel_count,color_order". Lines are grouped into
// sections of 32 rows, one section per board. Blank lines and lines starting
// with '#' are skipped and do not count as rows.
package boardconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jvanderberg/pixelblit/fseq"
	"github.com/jvanderberg/pixelblit/pbled"
)

// MaxStrings is the number of rows per board section.
const MaxStrings = pbled.MaxStrings

// DefaultPixelCount is the per-string length used by Defaults.
const DefaultPixelCount = 50

// String is one row of a board section.
type String struct {
	PixelCount int
	ColorOrder pbled.ColorOrder
}

// Config is the configuration of one board.
type Config struct {
	BoardID int
	Strings [MaxStrings]String
	// StringCount is the index of the last string with pixels, plus one.
	StringCount int
	// MaxPixelCount is the longest string.
	MaxPixelCount int
	// Loaded is true when the configuration came from a file.
	Loaded bool
}

// ParseError reports a malformed row.
type ParseError struct {
	// Line is the 1-based data row, not counting skipped lines.
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Defaults returns a configuration of 32 strings of 50 GRB pixels.
func Defaults(boardID int) Config {
	c := Config{
		BoardID:       boardID,
		StringCount:   MaxStrings,
		MaxPixelCount: DefaultPixelCount,
	}
	for i := range c.Strings {
		c.Strings[i] = String{PixelCount: DefaultPixelCount, ColorOrder: pbled.GRBOrder}
	}
	return c
}

// Load parses the file at path.
func Load(path string, boardID int) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open board config: %w", err)
	}
	defer f.Close()

	return Parse(f, boardID)
}

// Parse reads the section of r belonging to boardID.
func Parse(r io.Reader, boardID int) (Config, error) {
	if boardID < 0 {
		return Config{}, &ParseError{Msg: fmt.Sprintf("invalid board id %d", boardID)}
	}

	c := Config{BoardID: boardID}
	for i := range c.Strings {
		c.Strings[i].ColorOrder = pbled.GRBOrder
	}

	startRow := boardID * MaxStrings
	endRow := startRow + MaxStrings - 1

	scanner := bufio.NewScanner(r)
	scanner.Split(scanLines)

	row := 0
	for scanner.Scan() {
		line := scanner.Text()
		if !isDataLine(line) {
			continue
		}

		if row >= startRow {
			pixels, order, ok := ParseLine(line)
			if !ok {
				return Config{}, &ParseError{Line: row + 1, Msg: "invalid format"}
			}

			ix := row - startRow
			c.Strings[ix] = String{PixelCount: pixels, ColorOrder: order}
			c.MaxPixelCount = max(c.MaxPixelCount, pixels)
			if pixels > 0 {
				c.StringCount = ix + 1
			}
		}

		row++
		if row > endRow {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("failed to read board config: %w", err)
	}

	if row < startRow {
		return Config{}, &ParseError{Msg: "board section not found"}
	}

	c.Loaded = true
	return c, nil
}

func isDataLine(line string) bool {
	line = strings.TrimLeft(line, " \t")
	return line != "" && line[0] != '#'
}

// ParseLine parses one data row. A row that is just "0" disables the string.
func ParseLine(line string) (pixels int, order pbled.ColorOrder, ok bool) {
	line = strings.TrimLeft(line, " \t")
	if !isDataLine(line) {
		return 0, pbled.GRBOrder, false
	}

	if line[0] == '0' && (len(line) == 1 || strings.ContainsRune(", \t\r\n", rune(line[1]))) {
		return 0, pbled.GRBOrder, true
	}

	num, rest, found := strings.Cut(line, ",")
	if !found {
		return 0, pbled.GRBOrder, false
	}

	num = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, num)
	if num == "" || strings.Trim(num, "0123456789") != "" {
		return 0, pbled.GRBOrder, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, pbled.GRBOrder, false
	}

	return n, pbled.ParseColorOrder(rest), true
}

// scanLines splits on "\n", "\r\n" or a lone "\r".
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// Need more data to tell "\r" from "\r\n".
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// PixelCount returns the pixel count of str, or 0 when out of range.
func (c Config) PixelCount(str int) int {
	if str < 0 || str >= MaxStrings {
		return 0
	}
	return c.Strings[str].PixelCount
}

// ColorOrder returns the color order of str, or GRB when out of range.
func (c Config) ColorOrder(str int) pbled.ColorOrder {
	if str < 0 || str >= MaxStrings {
		return pbled.GRBOrder
	}
	return c.Strings[str].ColorOrder
}

// Layout returns the decoder layout for the active strings.
func (c Config) Layout() fseq.Layout {
	layout := make(fseq.Layout, c.StringCount)
	for i := range layout {
		layout[i] = c.Strings[i].PixelCount
	}
	return layout
}

// Contains reports whether pixel exists on str.
func (c Config) Contains(str, pixel int) bool {
	return pixel >= 0 && pixel < c.PixelCount(str)
}

// DriverConfig returns a driver configuration for the active strings. The
// color order is taken from the first string; the caller may override it.
// It fails when no string has pixels.
func (c Config) DriverConfig() (pbled.Config, error) {
	if c.StringCount == 0 || c.MaxPixelCount == 0 {
		return pbled.Config{}, fmt.Errorf("no strings configured for board %d", c.BoardID)
	}

	cfg := pbled.Config{
		BoardID:        0,
		NumBoards:      1,
		NumStrings:     c.StringCount,
		MaxPixelLength: min(c.MaxPixelCount, pbled.MaxPixels),
		ColorOrder:     c.ColorOrder(0),
		Strings:        make([]pbled.StringConfig, c.StringCount),
	}
	for i := range cfg.Strings {
		n := c.Strings[i].PixelCount
		cfg.Strings[i] = pbled.StringConfig{Length: n, Enabled: n > 0}
	}
	return cfg, nil
}
