// Package pixelblit plays lighting sequences onto parallel LED strings and
// streams what is shown to preview clients.
package pixelblit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gofrs/uuid/v5"
	"github.com/jvanderberg/pixelblit/pbled"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"gopkg.in/typ.v4/sync2"
)

//go:generate mkdir -p pixelblitpb
//go:generate protoc -I=. --go_out=paths=source_relative:./pixelblitpb pixelblit.proto

// DefaultPreviewFPS is the preview frame rate used when none is configured.
const DefaultPreviewFPS = 30

// ServerOpts are options for a server.
type ServerOpts struct {
	// MaxFPS limits how many frames per second are sent to preview clients.
	// Zero means DefaultPreviewFPS.
	MaxFPS int
	// Logger is the logger to use for the server.
	Logger *slog.Logger
	// HTTPUpgrader is the HTTP-to-Websocket upgrader to use for the server.
	HTTPUpgrader ws.HTTPUpgrader
}

// Server streams committed frames to websocket preview clients.
type Server struct {
	opts        ServerOpts
	logger      *slog.Logger
	connections sync2.Map[*Session, sessionControl]
	sessions    atomic.Int32
	last        atomic.Pointer[[]byte]

	// lastPublish is only touched by Observe.
	lastPublish time.Time
}

type sessionControl struct {
	cancel context.CancelCauseFunc
}

// NewServer creates a new server.
func NewServer(opts ServerOpts) *Server {
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = DefaultPreviewFPS
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		opts:   opts,
		logger: opts.Logger,
	}
}

// Sessions returns the number of connected preview clients.
func (s *Server) Sessions() int { return int(s.sessions.Load()) }

// Observe publishes f to every session. It is meant to be used as an
// output.Observer: it never blocks, and sessions that have not sent the
// previous frame yet miss this one. Frames are skipped entirely while no
// client is connected or when they come faster than MaxFPS.
func (s *Server) Observe(f pbled.Frame) {
	if s.sessions.Load() == 0 {
		return
	}

	now := time.Now()
	if now.Sub(s.lastPublish) < time.Second/time.Duration(s.opts.MaxFPS) {
		return
	}
	s.lastPublish = now

	b, err := proto.Marshal(NewPreviewFrame(f))
	if err != nil {
		s.logger.Warn(
			"failed to marshal preview frame",
			"seq", f.Seq,
			"error", err)
		return
	}
	s.last.Store(&b)

	s.connections.Range(func(session *Session, _ sessionControl) bool {
		session.publish(b)
		return true
	})
}

// KickAllConnections kicks all connections from the server.
// Optionally, a reason can be provided.
func (s *Server) KickAllConnections(reason string) {
	var err error
	if reason != "" {
		err = fmt.Errorf("kicked: %s", reason)
	} else {
		err = fmt.Errorf("kicked")
	}

	s.connections.Range(func(_ *Session, ctrl sessionControl) bool {
		ctrl.cancel(err)
		return true
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsconn, _, _, err := s.opts.HTTPUpgrader.Upgrade(r, w)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to upgrade HTTP: %v", err), http.StatusBadRequest)
		return
	}

	session, err := s.newSession(wsconn, s.logger.With("addr", wsconn.RemoteAddr()))
	if err != nil {
		wsconn.Close()
		s.logger.Error(
			"failed to create session",
			"error", err)
		return
	}

	if err := s.serve(r.Context(), session); err != nil && !errors.Is(err, context.Canceled) {
		session.logger.Debug(
			"session ended",
			"error", err)
	}
}

func (s *Server) newSession(wsconn io.ReadWriteCloser, logger *slog.Logger) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	logger = logger.With("session", id.String())

	return &Session{
		ID:     id,
		ws:     newWebsocketServer(wsconn, logger),
		logger: logger,
		server: s,
		frames: make(chan []byte, 1),
	}, nil
}

func (s *Server) serve(ctx context.Context, session *Session) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.connections.Store(session, sessionControl{cancel: cancel})
	s.sessions.Add(1)

	defer func() {
		s.connections.Delete(session)
		s.sessions.Add(-1)

		session.logger.Info(
			"preview session ended",
			"dropped_frames", session.Dropped())
	}()

	session.logger.Info("preview session started")

	return session.Start(ctx)
}

// Session is a websocket preview session of a single client.
type Session struct {
	ID uuid.UUID

	ws      *websocketServer
	logger  *slog.Logger
	server  *Server
	frames  chan []byte
	dropped atomic.Uint64
}

// Dropped returns the number of frames the session was too slow to take.
func (s *Session) Dropped() uint64 { return s.dropped.Load() }

func (s *Session) publish(b []byte) {
	select {
	case s.frames <- b:
	default:
		s.dropped.Add(1)
	}
}

// Start runs the session until the client leaves or ctx is done.
func (s *Session) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg.Go(func() error {
		defer cancel()
		return s.ws.Start(ctx)
	})

	errg.Go(func() error {
		err := s.mainLoop(ctx)
		if err == nil || ctx.Err() != nil {
			return err
		}
		// Treat main loop errors as fatal and kill the connection,
		// but don't return it because it's not the caller's fault.
		return s.ws.SendError(ctx, err)
	})

	return errg.Wait()
}

func (s *Session) mainLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case b := <-s.frames:
			if err := s.ws.Send(ctx, b); err != nil {
				return err
			}

		case msg := <-s.ws.Messages:
			if !msg.GetRequestFrame() {
				return fmt.Errorf("invalid request %v", msg)
			}
			if last := s.server.last.Load(); last != nil {
				if err := s.ws.Send(ctx, *last); err != nil {
					return err
				}
			}
		}
	}
}
