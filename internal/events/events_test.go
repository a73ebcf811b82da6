package events

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTCPSubscriberReceivesEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := NewServer("127.0.0.1:0", hub, zerolog.Nop())
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"welcome"`)

	require.Eventually(t, func() bool { return hub.Stats().TCPClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(InventorySynced("run-1", 10, 8, 2, nil))

	line, err = r.ReadString('\n')
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, TypeInventorySynced, ev.Type)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 8, ev.Upserted)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestWebSocketSubscriberReceivesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zerolog.Nop())
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	ts := httptest.NewServer(r)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"websocket"`)

	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(MotorUpdated("run-2", "VERADO-300HP-EFI-DTS"))

	_, msg, err = ws.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, TypeMotorUpdated, ev.Type)
	assert.Equal(t, "VERADO-300HP-EFI-DTS", ev.ModelKey)

	_ = ws.Close()
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsDeadSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, b := net.Pipe()
	hub.Add(a)
	_ = b.Close()

	hub.Publish(MotorUpdated("", "X"))
	assert.Equal(t, 0, hub.Stats().TCPClients)
}

func TestUDPSubscriber(t *testing.T) {
	srv := NewUDPServer("127.0.0.1:0", zerolog.Nop())
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Run(ctx) }()

	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.WriteTo([]byte(`{"type":"subscribe","name":"dashboard"}`), srv.ListenAddr())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub := NewHub(zerolog.Nop())
	Publishers{hub, srv}.Publish(InventorySynced("run-3", 1, 1, 0, []string{"feed"}))

	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 2048)
	n, _, err := client.ReadFrom(buf)
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(buf[:n], &ev))
	assert.Equal(t, "run-3", ev.RunID)
	assert.Equal(t, []string{"feed"}, ev.Failed)
}
