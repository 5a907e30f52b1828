package pbled

// planeWords is the number of 32-bit plane words per pixel.
const planeWords = 3 * 8

// TransferEngine shifts committed frames out to the strings.
//
// Transmit must not block for the duration of the transfer. It calls done
// exactly once when the frame's buffer is no longer being read, including
// the latch delay. A non-nil error means the transfer was never started and
// done will not be called.
type TransferEngine interface {
	Transmit(f Frame, done func()) error
}

// TransferEngineFunc adapts a function to a TransferEngine.
type TransferEngineFunc func(f Frame, done func()) error

// Transmit implements TransferEngine.
func (fn TransferEngineFunc) Transmit(f Frame, done func()) error { return fn(f, done) }

// immediateEngine completes every transfer before returning.
type immediateEngine struct{}

func (immediateEngine) Transmit(_ Frame, done func()) error {
	done()
	return nil
}

// Frame is a read-only view of a committed bit-plane buffer. It is only
// valid until the engine calls done.
type Frame struct {
	// Seq is the frame number, starting at 1.
	Seq uint64

	planes  []uint32
	strings int
	pixels  int
	order   ColorOrder
	cfg     *Config
}

// Strings returns the number of parallel strings in the frame.
func (f Frame) Strings() int { return f.strings }

// Pixels returns the number of pixel slots clocked out per string.
func (f Frame) Pixels() int { return f.pixels }

// Order returns the wire color order.
func (f Frame) Order() ColorOrder { return f.order }

// Planes returns the raw plane words, indexed by (pixel*3+channel)*8+bit with
// bit 0 being the most significant. Bit s of each word belongs to string s.
func (f Frame) Planes() []uint32 { return f.planes }

// StringLength returns the configured length of str.
func (f Frame) StringLength(str int) int {
	if f.cfg == nil {
		return f.pixels
	}
	sc := f.cfg.StringAt(str)
	if !sc.Enabled {
		return 0
	}
	return min(sc.Length, f.pixels)
}

// Wire returns the three bytes sent for a pixel, in wire order.
func (f Frame) Wire(str, pixel int) [3]byte {
	var w [3]byte
	if str < 0 || str >= f.strings || pixel < 0 || pixel >= f.pixels {
		return w
	}
	mask := uint32(1) << str
	base := pixel * planeWords
	for ch := 0; ch < 3; ch++ {
		var v byte
		for bit := 0; bit < 8; bit++ {
			if f.planes[base+ch*8+bit]&mask != 0 {
				v |= 1 << (7 - bit)
			}
		}
		w[ch] = v
	}
	return w
}

// Color returns the encoded color of a pixel as 0xRRGGBB.
func (f Frame) Color(str, pixel int) Color {
	return f.order.FromWire(f.Wire(str, pixel))
}

// AppendWire appends the wire bytes of str to dst, for n pixels.
func (f Frame) AppendWire(dst []byte, str, n int) []byte {
	for p := 0; p < n; p++ {
		w := f.Wire(str, p)
		dst = append(dst, w[:]...)
	}
	return dst
}

// AppendRGB appends every pixel of every string to dst as R, G, B bytes,
// string by string.
func (f Frame) AppendRGB(dst []byte) []byte {
	for s := 0; s < f.strings; s++ {
		for p := 0; p < f.pixels; p++ {
			c := f.Color(s, p)
			dst = append(dst, c.R(), c.G(), c.B())
		}
	}
	return dst
}
