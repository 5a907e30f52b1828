package fseq

// OverflowSize is the capacity of the region holding bytes that arrive after
// a frame boundary inside a single Push. Callers that keep chunks at or below
// this size never lose data.
const OverflowSize = 512

// Layout lists the pixel count of each physical string in channel order.
// A zero entry is a disabled string and takes no channel bytes, so the
// channel count of a frame is exactly the sum of the lengths times three.
// Files exported for firmware that spends one pixel on each disabled string
// do not line up with such a layout.
type Layout []int

// Channels returns the number of channel bytes the layout consumes per frame.
func (l Layout) Channels() int {
	var n int
	for _, px := range l {
		n += px * 3
	}
	return n
}

// PixelSink receives decoded pixels.
type PixelSink interface {
	OnPixel(str, pixel int, color uint32)
}

// PixelSinkFunc adapts a function to a PixelSink.
type PixelSinkFunc func(str, pixel int, color uint32)

// OnPixel implements PixelSink.
func (f PixelSinkFunc) OnPixel(str, pixel int, color uint32) { f(str, pixel, color) }

// Stats are diagnostic counters kept by a Decoder.
type Stats struct {
	// Frames is the number of completed frames.
	Frames uint64
	// DroppedPixels counts pixels decoded outside the layout.
	DroppedPixels uint64
	// TruncatedBytes counts bytes lost because the overflow region was full.
	TruncatedBytes uint64
}

// Decoder reassembles pixels from sequence channel data delivered in
// arbitrarily sized chunks. A Decoder is not safe for concurrent use.
type Decoder struct {
	sink   PixelSink
	layout Layout
	header Header

	acc    [3]byte
	accN   int
	chanIx uint32
	str    int
	pixel  int

	overflow  [OverflowSize]byte
	overflowN int
	scratch   [OverflowSize]byte

	stats Stats
}

// NewDecoder creates a decoder that reports pixels to sink according to
// layout. A nil sink discards pixels.
func NewDecoder(sink PixelSink, layout Layout) *Decoder {
	if sink == nil {
		sink = PixelSinkFunc(func(int, int, uint32) {})
	}
	d := &Decoder{
		sink:   sink,
		layout: append(Layout(nil), layout...),
	}
	d.skipDisabled()
	return d
}

// ParseHeader parses b and keeps the header for frame accounting.
func (d *Decoder) ParseHeader(b []byte) (Header, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Header{}, err
	}
	d.header = h
	return h, nil
}

// SetHeader installs an already parsed header.
func (d *Decoder) SetHeader(h Header) { d.header = h }

// Header returns the header used for frame accounting.
func (d *Decoder) Header() Header { return d.header }

// Layout returns a copy of the decoder's layout.
func (d *Decoder) Layout() Layout { return append(Layout(nil), d.layout...) }

// Stats returns the diagnostic counters.
func (d *Decoder) Stats() Stats { return d.stats }

// Reset clears the cursors, the partial pixel and the overflow region. The
// header, layout and counters are kept.
func (d *Decoder) Reset() {
	d.accN = 0
	d.chanIx = 0
	d.str = 0
	d.pixel = 0
	d.overflowN = 0
	d.skipDisabled()
}

// Push feeds chunk to the decoder and reports whether a frame completed.
// Bytes carried over from the previous call are consumed first. At most one
// completion is reported per call; bytes after the boundary are carried over
// to the next call.
func (d *Decoder) Push(chunk []byte) bool {
	if d.overflowN > 0 {
		// The carried bytes are copied out so that the overflow region can
		// be refilled while they are processed.
		n := copy(d.scratch[:], d.overflow[:d.overflowN])
		d.overflowN = 0

		carried := d.scratch[:n]
		if i, done := d.consume(carried); done {
			d.carry(carried[i:], chunk)
			return true
		}
	}

	if i, done := d.consume(chunk); done {
		d.carry(chunk[i:])
		return true
	}
	return false
}

// consume runs bytes through the accumulator until the input is exhausted or
// a frame completes. It returns the number of bytes used.
func (d *Decoder) consume(b []byte) (int, bool) {
	for i, c := range b {
		d.acc[d.accN] = c
		d.accN++
		if d.accN < 3 {
			continue
		}
		d.accN = 0

		if d.emit() {
			return i + 1, true
		}
	}
	return len(b), false
}

// emit handles one assembled pixel and reports whether it ended the frame.
func (d *Decoder) emit() bool {
	color := uint32(d.acc[0])<<16 | uint32(d.acc[1])<<8 | uint32(d.acc[2])

	if d.str < len(d.layout) {
		d.sink.OnPixel(d.str, d.pixel, color)
		d.pixel++
		// Disabled strings are skipped so that they consume no channels.
		for d.str < len(d.layout) && d.pixel >= d.layout[d.str] {
			d.pixel = 0
			d.str++
		}
	} else {
		d.stats.DroppedPixels++
	}

	d.chanIx += 3
	if d.header.ChannelCount > 0 && d.chanIx >= d.header.ChannelCount {
		d.chanIx = 0
		d.str = 0
		d.pixel = 0
		d.skipDisabled()
		d.stats.Frames++
		return true
	}
	return false
}

func (d *Decoder) skipDisabled() {
	for d.str < len(d.layout) && d.layout[d.str] <= 0 {
		d.str++
	}
}

// carry stores the remaining parts in the overflow region, dropping whatever
// does not fit.
func (d *Decoder) carry(parts ...[]byte) {
	for _, p := range parts {
		n := copy(d.overflow[d.overflowN:], p)
		d.overflowN += n
		d.stats.TruncatedBytes += uint64(len(p) - n)
	}
}
