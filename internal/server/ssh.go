package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/protocol"
)

// SSHOptions holds configuration for the SSH transport.
type SSHOptions struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.tetris-battle/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// EventBuffer is the per-session outbound queue length.
	EventBuffer int

	Logger *log.Logger
}

// SSHServer serves the coordinator to SSH sessions. Each session exchanges
// newline-delimited JSON envelopes, one per line in both directions.
type SSHServer struct {
	opts   SSHOptions
	coord  *multiplayer.Coordinator
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates an SSH transport for the coordinator.
func NewSSHServer(coord *multiplayer.Coordinator, opts SSHOptions) (*SSHServer, error) {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	srv := &SSHServer{
		opts:   opts,
		coord:  coord,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := opts.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("server: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".tetris-battle", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("server: cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(opts.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(opts.IdleTimeout),
		wish.WithMiddleware(
			srv.sessionMiddleware,
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("server: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

func (s *SSHServer) sessionMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		conn := NewConn(s.coord, s.opts.EventBuffer, s.logger.With("transport", "ssh", "user", sess.User()))
		serveLines(sess.Context(), sess, sess, conn)
		next(sess)
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *SSHServer) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting SSH server", "address", s.opts.Address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
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

	s.logger.Info("shutting down SSH server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.opts.Address
}

// serveLines runs a JSON-lines conversation until r is exhausted. The
// connection is closed on return.
func serveLines(ctx context.Context, r io.Reader, w io.Writer, conn *Conn) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		writeLines(w, conn)
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		f, err := protocol.JSON.Decode(line)
		if err != nil {
			conn.Reject("", malformed(err))
			continue
		}
		conn.Handle(ctx, f)
	}
	if err := scanner.Err(); err != nil {
		conn.logger.Debug("read failed", "error", err)
	}

	conn.Close(context.Background())
	<-writerDone
}

func writeLines(w io.Writer, conn *Conn) {
	session := conn.Session()
	for {
		select {
		case evt := <-session.Events():
			b, err := protocol.EncodeEvent(protocol.JSON, evt)
			if err != nil {
				conn.logger.Warn("cannot encode event", "type", evt.EventType(), "error", err)
				continue
			}
			if _, err := w.Write(append(b, '\n')); err != nil {
				return
			}
		case <-session.Done():
			return
		}
	}
}
