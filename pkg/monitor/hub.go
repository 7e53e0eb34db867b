// Package monitor streams badge telemetry to websocket clients as JSON.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/badge.go/pkg/badge/msgs"
	fx "github.com/robotalks/badge.go/pkg/framework"
)

// DefaultBacklog is the number of frames queued per client.
const DefaultBacklog = 64

// Frame is one JSON message sent to clients.
type Frame struct {
	Type string      `json:"type"`
	Time int64       `json:"time"`
	Data interface{} `json:"data"`
}

// Hub broadcasts telemetry from the loop to connected websocket clients.
// A client which can't keep up loses frames.
type Hub struct {
	// Addr is the listen address of Run. Run only waits if empty.
	Addr    string
	Backlog int

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	ch   chan []byte
}

// NewHub creates a Hub.
func NewHub(addr string) *Hub {
	return &Hub{Addr: addr, Backlog: DefaultBacklog}
}

// AddToLoop implements LoopAdder.
func (h *Hub) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvOutput, h)
}

// Control implements Controller.
func (h *Hub) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch msg := mctx.CurrentMessage().(type) {
		case *msgs.InputEvent:
			h.Broadcast(&Frame{Type: "input", Time: cc.Time().UnixNano(), Data: msg})
		case *msgs.BatteryStatus:
			h.Broadcast(&Frame{Type: "battery", Time: cc.Time().UnixNano(), Data: msg})
		}
	}))
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// Broadcast sends a frame to all clients.
func (h *Hub) Broadcast(frame *Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		glog.Errorf("monitor: encode %s: %v", frame.Type, err)
		return
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	for c := range h.clients {
		select {
		case c.ch <- data:
		default:
			glog.V(2).Infof("monitor: %s lagging, frame dropped", c.conn.Request().RemoteAddr)
		}
	}
}

// Handler serves a websocket client until it disconnects.
func (h *Hub) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		backlog := h.Backlog
		if backlog <= 0 {
			backlog = DefaultBacklog
		}
		c := &client{conn: conn, ch: make(chan []byte, backlog)}
		h.add(c)
		defer h.remove(c)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			var discard []byte
			for websocket.Message.Receive(conn, &discard) == nil {
			}
		}()
		for {
			select {
			case data := <-c.ch:
				if err := websocket.Message.Send(conn, string(data)); err != nil {
					glog.V(2).Infof("monitor: send: %v", err)
					return
				}
			case <-closed:
				return
			}
		}
	}
}

func (h *Hub) add(c *client) {
	h.lock.Lock()
	if h.clients == nil {
		h.clients = make(map[*client]struct{})
	}
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.Infof("monitor: client %s connected", c.conn.Request().RemoteAddr)
}

func (h *Hub) remove(c *client) {
	h.lock.Lock()
	delete(h.clients, c)
	h.lock.Unlock()
	glog.Infof("monitor: client %s disconnected", c.conn.Request().RemoteAddr)
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	if h.Addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", h.Handler())
	srv := &http.Server{Addr: h.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof("monitor: listening on %s", h.Addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
