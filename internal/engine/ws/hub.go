// Package ws bridges the engine command surface to a browser peer over a
// WebSocket. Commands go out as {"cmd": ..., "payload": ...} frames; the
// browser reports lifecycle events back as {"event": ..., "payload": ...}.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// WebSocket timeout constants following Gorilla best practices
// See: https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 1024 * 1024

	// Time allowed for the peer to answer a position query
	requestTimeout = 5 * time.Second
)

type commandFrame struct {
	Cmd       string      `json:"cmd"`
	RequestID string      `json:"request_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
}

type eventFrame struct {
	Event     string          `json:"event"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type progressEvent struct {
	Iterations int `json:"iterations"`
	Total      int `json:"total"`
}

type dragEndEvent struct {
	Node string  `json:"node"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type selectEvent struct {
	Nodes []string `json:"nodes"`
}

// Hub owns the single browser peer. A new connection replaces the previous
// one; the engine factory fails while no peer is connected.
type Hub struct {
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	peer *peer
}

func NewHub(log *zap.SugaredLogger, allowedOrigin string) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// ServeHTTP upgrades the request and installs the connection as the live
// peer, closing any previous one.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	p := &peer{
		conn:    conn,
		log:     h.log,
		send:    make(chan commandFrame, 64),
		events:  make(chan eventFrame, 64),
		done:    make(chan struct{}),
		pending: make(map[string]chan json.RawMessage),
	}

	h.mu.Lock()
	if h.peer != nil {
		h.peer.close()
	}
	h.peer = p
	h.mu.Unlock()

	h.log.Infow("Browser peer connected", "remote", r.RemoteAddr)
	go p.writePump()
	go p.dispatchPump()
	go p.readPump(h)
}

// Factory returns an engine.Factory bound to whichever peer is connected at
// construction time. Construction fails while no browser is attached; the
// controller treats that as a benign abort.
func (h *Hub) Factory() engine.Factory {
	return func(data engine.DataSet, opts engine.Options, handler engine.EventHandler) (engine.Engine, error) {
		h.mu.Lock()
		p := h.peer
		h.mu.Unlock()
		if p == nil {
			return nil, errors.New("no browser peer connected")
		}

		p.setHandler(handler)
		b := &Bridge{peer: p}
		if err := b.send("init", struct {
			Data    engine.DataSet `json:"data"`
			Options engine.Options `json:"options"`
		}{data, opts}); err != nil {
			return nil, err
		}
		return b, nil
	}
}

// Connected reports whether a browser peer is currently attached.
func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peer != nil
}

// Close tears down the live peer, if any.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.peer != nil {
		h.peer.close()
		h.peer = nil
	}
}

func (h *Hub) dropPeer(p *peer) {
	h.mu.Lock()
	if h.peer == p {
		h.peer = nil
	}
	h.mu.Unlock()
}

// peer is one connected browser. The write pump serializes all outgoing
// frames; the read pump routes replies inline and hands events to the
// dispatch pump.
type peer struct {
	conn      *websocket.Conn
	log       *zap.SugaredLogger
	send      chan commandFrame
	events    chan eventFrame
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	handler engine.EventHandler
	pending map[string]chan json.RawMessage
}

func (p *peer) setHandler(handler engine.EventHandler) {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
}

func (p *peer) currentHandler() engine.EventHandler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

func (p *peer) readPump(h *Hub) {
	defer func() {
		h.dropPeer(p)
		p.close()
		p.log.Infow("Browser peer disconnected")
	}()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				p.log.Warnw("WebSocket read error", "error", err)
			}
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			p.log.Warnw("Malformed event frame", "error", err)
			continue
		}
		p.route(frame)
	}
}

// route answers the request waiting on a tagged reply inline and queues
// events for the dispatch pump. Handlers issue commands and wait for tagged
// replies (GetPositions), so dispatching them from the read pump would
// starve the very loop that routes those replies.
func (p *peer) route(frame eventFrame) {
	if frame.RequestID != "" {
		p.mu.Lock()
		ch, ok := p.pending[frame.RequestID]
		if ok {
			delete(p.pending, frame.RequestID)
		}
		p.mu.Unlock()
		if ok {
			ch <- frame.Payload
		}
		return
	}

	select {
	case p.events <- frame:
	case <-p.done:
	}
}

// dispatchPump delivers queued events to the registered handler in arrival
// order.
func (p *peer) dispatchPump() {
	for {
		select {
		case <-p.done:
			return
		case frame := <-p.events:
			p.dispatch(frame)
		}
	}
}

func (p *peer) dispatch(frame eventFrame) {
	handler := p.currentHandler()
	if handler == nil {
		return
	}

	switch frame.Event {
	case "stabilizationProgress":
		var ev progressEvent
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			p.log.Warnw("Bad stabilizationProgress payload", "error", err)
			return
		}
		handler.OnStabilizationProgress(ev.Iterations, ev.Total)
	case "stabilized":
		handler.OnStabilized()
	case "dragEnd":
		var ev dragEndEvent
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			p.log.Warnw("Bad dragEnd payload", "error", err)
			return
		}
		handler.OnDragEnd(ev.Node, models.Position{X: ev.X, Y: ev.Y})
	case "selectNode":
		var ev selectEvent
		if err := json.Unmarshal(frame.Payload, &ev); err != nil {
			p.log.Warnw("Bad selectNode payload", "error", err)
			return
		}
		handler.OnSelectNode(ev.Nodes)
	case "deselectNode":
		handler.OnDeselectNode()
	default:
		p.log.Debugw("Unknown event", "event", frame.Event)
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
	}()

	for {
		select {
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteJSON(frame); err != nil {
				p.log.Warnw("WebSocket write error", "error", err, "cmd", frame.Cmd)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (p *peer) enqueue(frame commandFrame) error {
	select {
	case p.send <- frame:
		return nil
	case <-p.done:
		return errors.New("browser peer gone")
	case <-time.After(writeWait):
		return errors.Newf("peer send buffer full, dropping %s", frame.Cmd)
	}
}

// await registers a reply slot before the command is sent, so the reply
// cannot race the registration.
func (p *peer) await(requestID string) chan json.RawMessage {
	ch := make(chan json.RawMessage, 1)
	p.mu.Lock()
	p.pending[requestID] = ch
	p.mu.Unlock()
	return ch
}

func (p *peer) abandon(requestID string) {
	p.mu.Lock()
	delete(p.pending, requestID)
	p.mu.Unlock()
}
