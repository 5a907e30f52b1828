package pixelblit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jvanderberg/pixelblit/boardconfig"
	"github.com/jvanderberg/pixelblit/errcode"
	"github.com/jvanderberg/pixelblit/fseq"
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/neilotoole/slogt"
	"google.golang.org/protobuf/testing/protocmp"
)

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	opts = append(opts, protocmp.Transform())
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func parseBoard(t *testing.T, csv string) boardconfig.Config {
	t.Helper()

	board, err := boardconfig.Parse(strings.NewReader(csv), 0)
	if err != nil {
		t.Fatal("invalid board config:", err)
	}
	return board
}

// writeSequence writes frames to dir/name and returns the path. frameCount
// is what the header declares.
func writeSequence(t *testing.T, dir, name string, channels, frameCount uint32, frames [][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	w, err := fseq.NewWriter(&buf, fseq.NewHeader(channels, frameCount, 1))
	if err != nil {
		t.Fatal("failed to create writer:", err)
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatal("failed to write frame:", err)
		}
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// frameRecorder is a transfer engine that remembers the colors it is asked
// to send.
type frameRecorder struct {
	mu     sync.Mutex
	pixels [][2]int
	frames [][]pbled.Color
}

func (r *frameRecorder) Transmit(f pbled.Frame, done func()) error {
	defer done()

	colors := make([]pbled.Color, len(r.pixels))
	for i, p := range r.pixels {
		colors[i] = f.Color(p[0], p[1])
	}

	r.mu.Lock()
	r.frames = append(r.frames, colors)
	r.mu.Unlock()
	return nil
}

func (r *frameRecorder) Frames() [][]pbled.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]pbled.Color(nil), r.frames...)
}

func newSequenceDriver(t *testing.T, board boardconfig.Config, engine pbled.TransferEngine) *pbled.Driver {
	t.Helper()

	cfg, err := board.DriverConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.ColorOrder = pbled.RGBOrder
	cfg.Engine = engine
	cfg.Logger = slogt.New(t)

	d, err := pbled.New(cfg)
	if err != nil {
		t.Fatal("failed to create driver:", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// The test board has a disabled middle string, so a frame is 3 pixels: two
// on string 0 and one on string 2.
const testBoard = "2,RGB\n0\n1,GRB\n"

var testPixels = [][2]int{{0, 0}, {0, 1}, {2, 0}}

var testFrames = [][]byte{
	{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80, 0x90},
	{0xFF, 0x00, 0x00, 0x00, 0xFF, 0x00, 0x00, 0x00, 0xFF},
	{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09},
}

var testColors = [][]pbled.Color{
	{0x102030, 0x405060, 0x708090},
	{0xFF0000, 0x00FF00, 0x0000FF},
	{0x010203, 0x040506, 0x070809},
}

func TestPlayerLoops(t *testing.T) {
	tests := []struct {
		name       string
		frameCount uint32
	}{
		{"declared frame count", 3},
		{"short read", 10},
		{"unknown frame count", 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			board := parseBoard(t, testBoard)
			path := writeSequence(t, t.TempDir(), "test.fseq", 9, test.frameCount, testFrames)

			rec := &frameRecorder{pixels: testPixels}
			d := newSequenceDriver(t, board, rec)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var loops int
			player := NewPlayer(d, PlayerOpts{
				Board:  board,
				Logger: slogt.New(t),
				OnLoop: func() {
					if loops++; loops == 2 {
						cancel()
					}
				},
			})

			err := player.Play(ctx, path)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("Play() = %v, want context.Canceled", err)
			}

			assertEq(t, uint64(2), player.Loops())
			assertEq(t, uint64(6), player.Frames())

			frames := rec.Frames()
			black := []pbled.Color{0, 0, 0}
			want := append(append(append([][]pbled.Color{}, testColors...), testColors...), black)
			assertEq(t, want, frames)
		})
	}
}

func TestPlayerDropsPixelsOutsideBoard(t *testing.T) {
	// The sequence has a fourth pixel the board does not have.
	board := parseBoard(t, testBoard)
	frame := append(append([]byte{}, testFrames[0]...), 0xAA, 0xBB, 0xCC)
	path := writeSequence(t, t.TempDir(), "wide.fseq", 12, 1, [][]byte{frame})

	rec := &frameRecorder{pixels: append(testPixels, [2]int{2, 1})}
	d := newSequenceDriver(t, board, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := NewPlayer(d, PlayerOpts{
		Board:  board,
		Logger: slogt.New(t),
		OnLoop: cancel,
	})
	player.Play(ctx, path)

	frames := rec.Frames()
	if len(frames) == 0 {
		t.Fatal("no frames shown")
	}
	assertEq(t, []pbled.Color{0x102030, 0x405060, 0x708090, 0}, frames[0])
}

func TestPlayerErrors(t *testing.T) {
	dir := t.TempDir()

	compressed := fseq.NewHeader(9, 1, 25)
	compressed.CompressionType = 1
	b, _ := compressed.MarshalBinary()
	compressedPath := filepath.Join(dir, "compressed.fseq")
	if err := os.WriteFile(compressedPath, b, 0o644); err != nil {
		t.Fatal(err)
	}

	badMagicPath := filepath.Join(dir, "bad.fseq")
	if err := os.WriteFile(badMagicPath, make([]byte, fseq.HeaderSize), 0o644); err != nil {
		t.Fatal(err)
	}

	var short bytes.Buffer
	if _, err := fseq.NewWriter(&short, fseq.NewHeader(9, 1, 25)); err != nil {
		t.Fatal(err)
	}
	short.Write([]byte{1, 2, 3, 4})
	shortPath := filepath.Join(dir, "short.fseq")
	if err := os.WriteFile(shortPath, short.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code errcode.Code
	}{
		{"missing", filepath.Join(dir, "missing.fseq"), errcode.Error},
		{"compressed", compressedPath, errcode.Compressed},
		{"bad magic", badMagicPath, errcode.InvalidMagic},
		{"no complete frame", shortPath, errcode.Error},
	}

	board := parseBoard(t, testBoard)
	d := newSequenceDriver(t, board, nil)
	player := NewPlayer(d, PlayerOpts{Board: board, Logger: slogt.New(t)})

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := player.Play(context.Background(), test.path)
			if err == nil {
				t.Fatal("Play() succeeded")
			}
			assertEq(t, test.code, errcode.Of(err))
		})
	}
}
