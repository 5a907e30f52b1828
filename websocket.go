package pixelblit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/jvanderberg/pixelblit/pixelblitpb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
)

type closeFrame struct {
	Code   ws.StatusCode
	Reason string
}

func (f closeFrame) encode() []byte {
	return ws.NewCloseFrameBody(f.Code, f.Reason)
}

type outgoing struct {
	data  []byte
	close *closeFrame
}

type websocketServer struct {
	// Messages is a channel of messages received from the client.
	Messages chan *pixelblitpb.ClientMessage

	sending chan outgoing
	wsconn  io.ReadWriteCloser
	logger  *slog.Logger
}

func newWebsocketServer(wsconn io.ReadWriteCloser, logger *slog.Logger) *websocketServer {
	return &websocketServer{
		Messages: make(chan *pixelblitpb.ClientMessage),
		sending:  make(chan outgoing),

		wsconn: wsconn,
		logger: logger,
	}
}

// Send sends an already marshaled message to the client. b must not be
// modified afterwards.
func (s *websocketServer) Send(ctx context.Context, b []byte) error {
	return s.send(ctx, outgoing{data: b})
}

// SendError delivers err to the client as the reason of a close frame. The
// server closes the connection afterwards.
func (s *websocketServer) SendError(ctx context.Context, err error) error {
	return s.send(ctx, outgoing{close: &closeFrame{
		Code:   ws.StatusInternalServerError,
		Reason: err.Error(),
	}})
}

func (s *websocketServer) send(ctx context.Context, msg outgoing) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.sending <- msg:
		return nil
	}
}

func (s *websocketServer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()

		s.logger.DebugContext(ctx,
			"closing websocket",
			"error", context.Cause(ctx).Error())

		if closeErr := s.wsconn.Close(); closeErr != nil {
			s.logger.WarnContext(ctx,
				"failed to close websocket",
				"error", closeErr.Error())

			return fmt.Errorf("failed to close websocket: %w", closeErr)
		}

		return nil
	})

	errg.Go(func() error {
		defer cancel()

		var buf bytes.Buffer
		buf.Grow(1024)

		for {
			_, err := wsReadData(&buf, s.wsconn, ws.StateServerSide, ws.OpBinary)
			if err != nil {
				var closedErr wsutil.ClosedError
				if errors.As(err, &closedErr) {
					s.logger.DebugContext(ctx,
						"received close frame from client")

					return nil
				}

				if ctx.Err() != nil {
					return ctx.Err()
				}

				s.logger.DebugContext(ctx,
					"failed to read from websocket",
					"error", err.Error())

				return fmt.Errorf("failed to read from websocket: %w", err)
			}

			var msg pixelblitpb.ClientMessage
			if err := proto.Unmarshal(buf.Bytes(), &msg); err != nil {
				// Keep reading so that the client's answer to the close
				// frame ends the session.
				if err := s.SendError(ctx, fmt.Errorf("failed to unmarshal message: %w", err)); err != nil {
					return err
				}
				continue
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case s.Messages <- &msg:
			}
		}
	})

	errg.Go(func() error {
		for {
			var msg outgoing
			select {
			case <-ctx.Done():
				return ctx.Err()
			case msg = <-s.sending:
			}

			if msg.close == nil {
				if err := wsutil.WriteServerBinary(s.wsconn, msg.data); err != nil {
					return fmt.Errorf("failed to write to websocket: %w", err)
				}
				continue
			}

			s.logger.DebugContext(ctx,
				"sending close frame to client",
				"code", msg.close.Code,
				"reason", msg.close.Reason)

			if err := ws.WriteFrame(s.wsconn, ws.NewCloseFrame(msg.close.encode())); err != nil {
				s.logger.WarnContext(ctx,
					"failed to write close frame",
					"error", err.Error())
			} else {
				s.logger.DebugContext(ctx,
					"close frame sent")
			}

			// Give 2 seconds for the client to answer the close frame, then
			// forcefully stop the context to close the connection.
			errg.Go(func() error {
				timer := time.NewTimer(2 * time.Second)
				defer timer.Stop()

				select {
				case <-timer.C:
					cancel()
				case <-ctx.Done():
				}
				return nil
			})

			return nil
		}
	})

	return errg.Wait()
}

func wsReadData(dst *bytes.Buffer, src io.ReadWriter, s ws.State, want ws.OpCode) (ws.OpCode, error) {
	controlHandler := wsutil.ControlFrameHandler(src, s)
	rd := wsutil.Reader{
		Source:          src,
		State:           s,
		SkipHeaderCheck: false,
		OnIntermediate:  controlHandler,
	}
	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return 0, err
		}
		if hdr.OpCode.IsControl() {
			if err := controlHandler(hdr, &rd); err != nil {
				return 0, err
			}
			continue
		}
		if hdr.OpCode&want == 0 {
			if err := rd.Discard(); err != nil {
				return 0, err
			}
			continue
		}

		dst.Reset()
		_, err = io.Copy(dst, &rd)
		return hdr.OpCode, err
	}
}
