package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/spi/spitest"
)

func newDriver(t *testing.T, engine pbled.TransferEngine, strings, pixels int) *pbled.Driver {
	t.Helper()

	d, err := pbled.New(pbled.Config{
		NumStrings:     strings,
		MaxPixelLength: pixels,
		ColorOrder:     pbled.GRBOrder,
		Engine:         engine,
		Logger:         slogt.New(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestWireTime(t *testing.T) {
	assert.Equal(t, 3*time.Millisecond, WireTime(100, 800_000))
	assert.Equal(t, 30*time.Microsecond, WireTime(1, 0))
}

func TestSimRealtime(t *testing.T) {
	sim := NewSim(SimOpts{
		Realtime:   true,
		ResetDelay: 5 * time.Millisecond,
		Logger:     slogt.New(t),
	})
	d := newDriver(t, sim, 2, 10)

	start := time.Now()
	d.Show()
	d.Show()
	d.ShowWait()

	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	require.NoError(t, sim.Close())
	assert.Equal(t, uint64(2), sim.Frames())
	assert.Equal(t, uint64(2), d.FrameCount())
}

func TestTee(t *testing.T) {
	var seen []pbled.Color
	var seqs []uint64

	sim := NewSim(SimOpts{Logger: slogt.New(t)})
	tee := NewTee(sim, func(f pbled.Frame) {
		seen = append(seen, f.Color(1, 2))
		seqs = append(seqs, f.Seq)
	})
	d := newDriver(t, tee, 2, 4)

	d.SetPixel(1, 2, 0x102030)
	d.Show()
	d.SetPixel(1, 2, 0x405060)
	d.Show()
	d.ShowWait()

	assert.Equal(t, []pbled.Color{0x102030, 0x405060}, seen)
	assert.Equal(t, []uint64{1, 2}, seqs)
}

func TestNRZ(t *testing.T) {
	tests := []struct {
		name  string
		order pbled.ColorOrder
		color pbled.Color
		wire  []byte
	}{
		{"GRB red", pbled.GRBOrder, 0xFF0000, []byte{0x00, 0xFF, 0x00}},
		{"GRB mixed", pbled.GRBOrder, 0x123456, []byte{0x34, 0x12, 0x56}},
		{"RGB red", pbled.RGBOrder, 0xFF0000, []byte{0xFF, 0x00, 0x00}},
		{"RGB mixed", pbled.RGBOrder, 0x123456, []byte{0x12, 0x34, 0x56}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer

			nrz, err := NewNRZ(spitest.NewRecordRaw(&buf), NRZOpts{
				String:     1,
				NumPixels:  2,
				ResetDelay: time.Microsecond,
				Logger:     slogt.New(t),
			})
			require.NoError(t, err)
			assert.Equal(t, "nrzled{recordraw}", nrz.String())

			d, err := pbled.New(pbled.Config{
				NumStrings:     2,
				MaxPixelLength: 2,
				ColorOrder:     test.order,
				Engine:         nrz,
				Logger:         slogt.New(t),
			})
			require.NoError(t, err)

			d.SetPixel(1, 0, test.color)
			d.SetPixel(0, 1, 0xFFFFFF)
			d.Show()
			d.ShowWait()
			assert.Equal(t, uint64(1), d.FrameCount())

			// Two pixels of four SPI bytes per channel, then the latch.
			require.GreaterOrEqual(t, buf.Len(), 2*3*4)
			want := append(append([]byte(nil), test.wire...), 0, 0, 0)
			assert.Equal(t, want, decodeNRZ(buf.Bytes()[:2*3*4]))

			require.NoError(t, d.Close())
			require.NoError(t, nrz.Close())
		})
	}
}

// decodeNRZ turns the MSB-first SPI symbols sent by nrzled back into data
// bytes. Every nibble is one bit: 0xE is a one and 0x8 a zero.
func decodeNRZ(spi []byte) []byte {
	out := make([]byte, 0, len(spi)/4)
	for i := 0; i+4 <= len(spi); i += 4 {
		var v byte
		for _, b := range spi[i : i+4] {
			for _, nibble := range [2]byte{b >> 4, b & 0x0F} {
				v <<= 1
				if nibble == 0x0E {
					v |= 1
				}
			}
		}
		out = append(out, v)
	}
	return out
}

func TestNRZInvalidPixels(t *testing.T) {
	var buf bytes.Buffer

	_, err := NewNRZ(spitest.NewRecordRaw(&buf), NRZOpts{NumPixels: 0})
	assert.Error(t, err)

	_, err = NewNRZ(spitest.NewRecordRaw(&buf), NRZOpts{NumPixels: pbled.MaxPixels + 1})
	assert.Error(t, err)
}

func TestFrameWireOrder(t *testing.T) {
	var wire [][]byte

	sim := NewSim(SimOpts{Logger: slogt.New(t)})
	tee := NewTee(sim, func(f pbled.Frame) {
		wire = append(wire, f.AppendWire(nil, 0, 2))
	})
	d := newDriver(t, tee, 1, 2)

	d.SetPixel(0, 1, 0x112233)
	d.Show()
	d.ShowWait()

	require.Len(t, wire, 1)
	assert.Equal(t, []byte{0, 0, 0, 0x22, 0x11, 0x33}, wire[0])
}
