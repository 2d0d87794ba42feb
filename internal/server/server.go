// Package server exposes the coordinator over the network: websocket and
// HTTP endpoints routed by httprouter, and an SSH transport that carries the
// same envelopes as JSON lines.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
)

const shutdownTimeout = 10 * time.Second

// Options holds configuration for the HTTP server.
type Options struct {
	// Address is the host:port to listen on (e.g., ":8080").
	Address string

	// PublicURL is the base of invite links encoded in room QR codes.
	// If empty, it is derived from the request.
	PublicURL string

	// Version is reported by /version.
	Version string

	// EventBuffer is the per-connection outbound queue length.
	EventBuffer int

	Logger *log.Logger
}

// Server is the HTTP and websocket front of a coordinator.
type Server struct {
	opts     Options
	coord    *multiplayer.Coordinator
	logger   *log.Logger
	router   *httprouter.Router
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// New creates a server for the coordinator.
func New(coord *multiplayer.Coordinator, opts Options) *Server {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	s := &Server{
		opts:   opts,
		coord:  coord,
		logger: logger,
		router: httprouter.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("handler panic", "path", r.URL.Path, "panic", v)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}

	s.router.GET("/ws", s.serveWS)
	s.router.GET("/healthz", s.serveHealthCheck)
	s.router.GET("/version", s.serveVersion)
	s.router.GET("/api/status", s.serveStatus)
	s.router.GET("/api/rooms", s.serveRooms)
	s.router.GET("/rooms/:id/qr", s.serveRoomQR)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.opts.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server: cannot listen on %s: %w", s.opts.Address, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.closeConns()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) track(ws *websocket.Conn) {
	s.mu.Lock()
	s.conns[ws] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(ws *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, ws)
	s.mu.Unlock()
}

// closeConns closes hijacked websocket connections, which http.Server.Shutdown
// does not track.
func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ws := range s.conns {
		_ = ws.Close()
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
