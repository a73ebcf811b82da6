package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

const subscribeMessageType = "subscribe"

type subscribeMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// UDPServer delivers events as single datagrams to subscribers that
// registered by sending {"type":"subscribe","name":"..."}. Delivery is best
// effort: a send is retried once and the subscriber is dropped after that.
type UDPServer struct {
	Addr string
	Log  zerolog.Logger

	mu      sync.RWMutex
	conn    *net.UDPConn
	clients map[string]*net.UDPAddr
}

func NewUDPServer(addr string, log zerolog.Logger) *UDPServer {
	return &UDPServer{Addr: addr, Log: log, clients: make(map[string]*net.UDPAddr)}
}

func (s *UDPServer) Listen() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

func (s *UDPServer) ListenAddr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Run reads subscribe messages until ctx is done.
func (s *UDPServer) Run(ctx context.Context) error {
	if s.ListenAddr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()
	s.Log.Info().Str("addr", conn.LocalAddr().String()).Msg("udp events listening")

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		var msg subscribeMessage
		if err := json.Unmarshal(buf[:n], &msg); err != nil || msg.Name == "" {
			s.Log.Debug().Str("remote", addr.String()).Msg("invalid udp message")
			continue
		}
		if msg.Type != subscribeMessageType {
			continue
		}
		s.mu.Lock()
		s.clients[msg.Name] = addr
		s.mu.Unlock()
		s.Log.Debug().Str("name", msg.Name).Str("remote", addr.String()).Msg("udp subscriber registered")
	}
}

func (s *UDPServer) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Publish implements Publisher.
func (s *UDPServer) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.Log.Error().Err(err).Msg("marshal event")
		return
	}

	s.mu.RLock()
	conn := s.conn
	targets := make(map[string]*net.UDPAddr, len(s.clients))
	for name, addr := range s.clients {
		targets[name] = addr
	}
	s.mu.RUnlock()
	if conn == nil {
		return
	}

	for name, addr := range targets {
		if _, err := conn.WriteToUDP(payload, addr); err == nil {
			continue
		}
		if _, err := conn.WriteToUDP(payload, addr); err != nil {
			s.Log.Debug().Err(err).Str("name", name).Msg("dropping udp subscriber")
			s.mu.Lock()
			delete(s.clients, name)
			s.mu.Unlock()
		}
	}
}

// Publishers fans one event out to several publishers.
type Publishers []Publisher

func (ps Publishers) Publish(ev Event) {
	for _, p := range ps {
		p.Publish(ev)
	}
}
