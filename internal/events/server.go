package events

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/rs/zerolog"
)

// Server streams events to plain TCP subscribers as JSON lines.
type Server struct {
	Addr string
	Hub  *Hub
	Log  zerolog.Logger

	ln net.Listener
}

func NewServer(addr string, hub *Hub, log zerolog.Logger) *Server {
	return &Server{Addr: addr, Hub: hub, Log: log}
}

// Listen binds Addr. Run calls it when it has not been called yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// ListenAddr is the bound address, useful when Addr ends in ":0".
func (s *Server) ListenAddr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run accepts subscribers until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.Log.Info().Str("addr", s.ln.Addr().String()).Msg("tcp events listening")

	go func() {
		<-ctx.Done()
		_ = s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Log.Warn().Err(err).Msg("accept")
			continue
		}

		_, _ = conn.Write(s.Hub.welcome("tcp"))
		s.Hub.Add(conn)
		s.Log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("tcp subscriber connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Log.Debug().Str("remote", c.RemoteAddr().String()).Msg("tcp subscriber disconnected")
			}()
			// subscribers are read-only; drain until they hang up
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
