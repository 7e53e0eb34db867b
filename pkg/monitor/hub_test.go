package monitor

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	"github.com/robotalks/badge.go/pkg/coproc"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub("")
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	loop := fx.NewLoop()
	hub.AddToLoop(loop)
	loop.PostMessage(msgs.NewInputEvent(coproc.InputEvent{Input: coproc.InputBack}, time.Now()))
	loop.PostMessage(&msgs.BatteryStatus{Volts: 3.5, Raw: 2172})
	loop.RunIteration(context.Background())

	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "input", frame.Type)
	var ev msgs.InputEvent
	require.NoError(t, json.Unmarshal(frame.Data, &ev))
	assert.Equal(t, "Back", ev.Name)
	assert.False(t, ev.Released)

	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "battery", frame.Type)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, time.Millisecond)
}

func TestHubSlowClientDropsFrames(t *testing.T) {
	hub := NewHub("")
	hub.Backlog = 1
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 100; i++ {
		hub.Broadcast(&Frame{Type: "battery", Data: i})
	}
	var frame Frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	assert.Equal(t, "battery", frame.Type)
}

func TestHubRunWithoutAddr(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, NewHub("").Run(ctx))
}
