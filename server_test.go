package pixelblit

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gobwas/ws/wsutil"
	"github.com/jvanderberg/pixelblit/pbled"
	"github.com/jvanderberg/pixelblit/pixelblitpb"
	"github.com/neilotoole/slogt"
	"google.golang.org/protobuf/proto"
)

func TestSession(t *testing.T) {
	tests := []struct {
		name string
		play func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser)
	}{
		{
			name: "frame",
			play: func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser) {
				d.SetPixel(1, 2, 0x112233)
				d.Show()

				f := readPreviewFrame(t, conn)
				assertEq(t, &pixelblitpb.PreviewFrame{
					Seq:     1,
					Strings: 2,
					Pixels:  3,
					Rgb: []byte{
						0, 0, 0, 0, 0, 0, 0, 0, 0,
						0, 0, 0, 0, 0, 0, 0x11, 0x22, 0x33,
					},
				}, f)
				assertEq(t, pbled.Color(0x112233), PreviewColor(f, 1, 2))
				assertEq(t, pbled.Color(0), PreviewColor(f, 0, 0))
			},
		},
		{
			name: "request frame",
			play: func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser) {
				d.SetPixel(0, 0, 0xFF0000)
				d.Show()
				first := readPreviewFrame(t, conn)

				writeClientMessage(t, conn, &pixelblitpb.ClientMessage{RequestFrame: true})

				f := readPreviewFrame(t, conn)
				assertEq(t, first, f)
				assertEq(t, uint64(1), f.Seq)
				assertEq(t, pbled.Color(0xFF0000), PreviewColor(f, 0, 0))
			},
		},
		{
			name: "empty request",
			play: func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser) {
				writeClientMessage(t, conn, &pixelblitpb.ClientMessage{})
				expectCloseFrame(t, conn)
				eventually(t, "session removal", func() bool { return server.Sessions() == 0 })
			},
		},
		{
			name: "malformed request",
			play: func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser) {
				if err := wsutil.WriteClientBinary(conn, []byte{0xFF, 0x00}); err != nil {
					t.Fatal("error writing client message:", err)
				}
				expectCloseFrame(t, conn)
				eventually(t, "session removal", func() bool { return server.Sessions() == 0 })
			},
		},
		{
			name: "kick",
			play: func(t *testing.T, server *Server, d *pbled.Driver, conn io.ReadWriteCloser) {
				server.KickAllConnections("test")
				eventually(t, "session removal", func() bool { return server.Sessions() == 0 })

				// Frames published without sessions go nowhere.
				d.Show()
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			server := NewServer(ServerOpts{
				MaxFPS: 1_000_000,
				Logger: slogt.New(t),
			})

			d, err := pbled.New(pbled.Config{
				NumStrings:     2,
				MaxPixelLength: 3,
				Engine: pbled.TransferEngineFunc(func(f pbled.Frame, done func()) error {
					server.Observe(f)
					done()
					return nil
				}),
				Logger: slogt.New(t),
			})
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { d.Close() })

			conn := startTestSession(t, ctx, server)
			test.play(t, server, d, conn)
		})
	}
}

func TestSessionSendBlocked(t *testing.T) {
	server := NewServer(ServerOpts{Logger: slogt.New(t)})

	conn1, conn2 := net.Pipe()
	defer conn1.Close()
	defer conn2.Close()

	session, err := server.newSession(conn1, slogt.New(t))
	if err != nil {
		t.Fatal(err)
	}
	session.publish([]byte{0x08, 0x01})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The websocket writer is not running, so the frame can never be sent.
	if err := session.mainLoop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("main loop ended with %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestPreviewColor(t *testing.T) {
	f := &pixelblitpb.PreviewFrame{Strings: 1, Pixels: 2, Rgb: []byte{1, 2, 3, 4, 5, 6}}
	assertEq(t, pbled.RGB(1, 2, 3), PreviewColor(f, 0, 0))
	assertEq(t, pbled.RGB(4, 5, 6), PreviewColor(f, 0, 1))
	assertEq(t, pbled.Color(0), PreviewColor(f, 0, 2))
	assertEq(t, pbled.Color(0), PreviewColor(f, 1, 0))

	f.Rgb = f.Rgb[:5]
	assertEq(t, pbled.Color(0), PreviewColor(f, 0, 1))
	assertEq(t, pbled.Color(0), PreviewColor(nil, 0, 0))
}

func writeClientMessage(t *testing.T, conn io.ReadWriteCloser, msg *pixelblitpb.ClientMessage) {
	t.Helper()

	b, err := proto.Marshal(msg)
	if err != nil {
		t.Fatal("invalid client proto message:", err)
	}
	if err := wsutil.WriteClientBinary(conn, b); err != nil {
		t.Fatal("error writing client message:", err)
	}
}

func readPreviewFrame(t *testing.T, conn io.ReadWriteCloser) *pixelblitpb.PreviewFrame {
	t.Helper()

	b, err := wsutil.ReadServerBinary(conn)
	if err != nil {
		t.Fatal("error reading server message:", err)
	}

	f := &pixelblitpb.PreviewFrame{}
	if err := proto.Unmarshal(b, f); err != nil {
		t.Fatal("invalid server proto message:", err)
	}
	return f
}

func expectCloseFrame(t *testing.T, conn io.ReadWriteCloser) {
	t.Helper()
	var closedErr wsutil.ClosedError

	_, op, err := wsutil.ReadServerData(conn)
	if err == nil {
		t.Fatal("no close frame received, got op", op)
	}
	if !errors.As(err, &closedErr) {
		t.Fatal("unexpected non-ClosedError while reading server data:", err)
	}

	// Responding close frame is automatically handled by gobwas/ws/wsutil.
	// See wsutil/handler.go @ ControlHandler.HandleClose.
}

func startTestSession(t *testing.T, ctx context.Context, server *Server) io.ReadWriteCloser {
	t.Helper()

	conn1, conn2 := net.Pipe()

	t.Cleanup(func() {
		t.Log("closing test session pipes")
		conn1.Close()
		conn2.Close()
	})

	session, err := server.newSession(conn1, slogt.New(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Error("server session error:", err)
		}
	})

	go func() {
		errCh <- server.serve(ctx, session)
	}()

	eventually(t, "session registration", func() bool { return server.Sessions() == 1 })
	return conn2
}
