package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/layout"
	"github.com/lineascope/core/internal/models"
	"github.com/lineascope/core/internal/poscache"
	"github.com/lineascope/core/internal/render"
)

// chanHandler surfaces handler callbacks as channel sends so tests can wait
// on the read pump.
type chanHandler struct {
	stabilized chan struct{}
	dragged    chan dragEndEvent
	selected   chan []string
}

func newChanHandler() *chanHandler {
	return &chanHandler{
		stabilized: make(chan struct{}, 4),
		dragged:    make(chan dragEndEvent, 4),
		selected:   make(chan []string, 4),
	}
}

func (h *chanHandler) OnStabilizationProgress(int, int) {}
func (h *chanHandler) OnStabilized()                    { h.stabilized <- struct{}{} }
func (h *chanHandler) OnDragEnd(nodeID string, pos models.Position) {
	h.dragged <- dragEndEvent{Node: nodeID, X: pos.X, Y: pos.Y}
}
func (h *chanHandler) OnSelectNode(nodeIDs []string) { h.selected <- nodeIDs }
func (h *chanHandler) OnDeselectNode()               {}

type testPeer struct {
	hub  *Hub
	conn *websocket.Conn
}

func dialPeer(t *testing.T) *testPeer {
	t.Helper()
	hub := NewHub(zap.NewNop().Sugar(), "http://localhost:5173")
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() {
		hub.Close()
		conn.Close()
	})
	return &testPeer{hub: hub, conn: conn}
}

func (p *testPeer) readFrame(t *testing.T) commandFrame {
	t.Helper()
	p.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame commandFrame
	require.NoError(t, p.conn.ReadJSON(&frame))
	return frame
}

func (p *testPeer) writeEvent(t *testing.T, event string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, p.conn.WriteJSON(eventFrame{Event: event, Payload: raw}))
}

func waitConnected(t *testing.T, hub *Hub) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !hub.Connected() {
		require.True(t, time.Now().Before(deadline), "peer never registered")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFactory(t *testing.T) {
	t.Run("fails while no peer is connected", func(t *testing.T) {
		hub := NewHub(zap.NewNop().Sugar(), "http://localhost:5173")
		_, err := hub.Factory()(engine.DataSet{}, engine.Options{}, newChanHandler())
		require.Error(t, err)
	})

	t.Run("sends the initial data and options", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)

		data := engine.DataSet{Nodes: []models.PositionedNode{
			{Node: models.Node{ID: "F1", Group: models.GroupFeed}},
		}}
		opts := engine.Options{Physics: engine.PhysicsOptions{Enabled: true}}
		_, err := peer.hub.Factory()(data, opts, newChanHandler())
		require.NoError(t, err)

		frame := peer.readFrame(t)
		assert.Equal(t, "init", frame.Cmd)
		payload, err := json.Marshal(frame.Payload)
		require.NoError(t, err)
		assert.Contains(t, string(payload), `"F1"`)
		assert.Contains(t, string(payload), `"enabled":true`)
	})
}

func TestBridgeCommands(t *testing.T) {
	t.Run("commands arrive in order", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)
		eng, err := peer.hub.Factory()(engine.DataSet{}, engine.Options{}, newChanHandler())
		require.NoError(t, err)
		peer.readFrame(t) // init

		require.NoError(t, eng.Stabilize(2000))
		require.NoError(t, eng.Focus("F1", engine.FocusOptions{Scale: 1.2}))
		require.NoError(t, eng.UnselectAll())

		assert.Equal(t, "stabilize", peer.readFrame(t).Cmd)
		assert.Equal(t, "focus", peer.readFrame(t).Cmd)
		assert.Equal(t, "unselectAll", peer.readFrame(t).Cmd)
	})

	t.Run("getPositions round-trips through a tagged reply", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)
		eng, err := peer.hub.Factory()(engine.DataSet{}, engine.Options{}, newChanHandler())
		require.NoError(t, err)
		peer.readFrame(t) // init

		go func() {
			peer.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var frame commandFrame
			if err := peer.conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Cmd != "getPositions" || frame.RequestID == "" {
				return
			}
			raw, _ := json.Marshal(map[string]models.Position{"F1": {X: 10, Y: 20}})
			peer.conn.WriteJSON(eventFrame{Event: "positions", RequestID: frame.RequestID, Payload: raw})
		}()

		positions, err := eng.GetPositions()

		require.NoError(t, err)
		assert.Equal(t, models.Position{X: 10, Y: 20}, positions["F1"])
	})
}

func TestEventDelivery(t *testing.T) {
	t.Run("events reach the registered handler", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)
		handler := newChanHandler()
		_, err := peer.hub.Factory()(engine.DataSet{}, engine.Options{}, handler)
		require.NoError(t, err)
		peer.readFrame(t) // init

		peer.writeEvent(t, "stabilized", nil)
		select {
		case <-handler.stabilized:
		case <-time.After(2 * time.Second):
			t.Fatal("stabilized event never arrived")
		}

		peer.writeEvent(t, "dragEnd", dragEndEvent{Node: "F1", X: 3, Y: 4})
		select {
		case ev := <-handler.dragged:
			assert.Equal(t, "F1", ev.Node)
			assert.Equal(t, 3.0, ev.X)
		case <-time.After(2 * time.Second):
			t.Fatal("dragEnd event never arrived")
		}
	})

	t.Run("destroy detaches the handler", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)
		handler := newChanHandler()
		eng, err := peer.hub.Factory()(engine.DataSet{}, engine.Options{}, handler)
		require.NoError(t, err)
		peer.readFrame(t) // init

		require.NoError(t, eng.Destroy())
		assert.Equal(t, "destroy", peer.readFrame(t).Cmd)

		peer.writeEvent(t, "stabilized", nil)
		select {
		case <-handler.stabilized:
			t.Fatal("event delivered after destroy")
		case <-time.After(100 * time.Millisecond):
		}
	})
}

type bridgeSource map[models.SnapshotID]*models.Graph

func (s bridgeSource) Graph(id models.SnapshotID) (*models.Graph, error) {
	return s[id], nil
}

// scriptedBrowser answers engine commands the way the real frontend does:
// stabilize completes immediately and position queries are served from a
// fixed coordinate table. All writes happen on this goroutine.
func scriptedBrowser(conn *websocket.Conn, positions map[string]models.Position) {
	for {
		var frame commandFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Cmd {
		case "stabilize":
			conn.WriteJSON(eventFrame{Event: "stabilized"})
		case "getPositions":
			raw, _ := json.Marshal(positions)
			conn.WriteJSON(eventFrame{Event: "positions", RequestID: frame.RequestID, Payload: raw})
		}
	}
}

func TestControllerOverBridge(t *testing.T) {
	t.Run("stabilization writes the position cache", func(t *testing.T) {
		peer := dialPeer(t)
		waitConnected(t, peer.hub)
		go scriptedBrowser(peer.conn, map[string]models.Position{
			"F1": {X: 11, Y: 12},
			"W1": {X: 21, Y: 22},
		})

		source := bridgeSource{models.SnapshotPast: {
			Nodes: []models.Node{
				{ID: "F1", Group: models.GroupFeed},
				{ID: "W1", Group: models.GroupWarehouse},
			},
			Edges: []models.Edge{{From: "F1", To: "W1"}},
		}}
		cache := poscache.New()
		controller := render.NewController(source, cache, peer.hub.Factory(), zap.NewNop().Sugar())
		t.Cleanup(controller.Close)

		require.NoError(t, controller.ShowView(models.SnapshotPast, layout.ClusteredForce))

		// The position query issued from inside the stabilized handler must
		// be answerable while that handler is still running.
		require.Eventually(t, func() bool {
			positions, ok := cache.Get(models.SnapshotPast, layout.ClusteredForce)
			return ok && positions["F1"] == models.Position{X: 11, Y: 12}
		}, 3*time.Second, 20*time.Millisecond, "stabilized never reached the cache")

		assert.Eventually(t, func() bool {
			return controller.Status().State == "settled"
		}, time.Second, 20*time.Millisecond)
	})
}
