package ws

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// Bridge implements engine.Engine against one browser peer. Commands are
// fire-and-forget except GetPositions, which waits for a tagged reply.
type Bridge struct {
	peer *peer
}

var _ engine.Engine = (*Bridge)(nil)

func (b *Bridge) send(cmd string, payload interface{}) error {
	return b.peer.enqueue(commandFrame{Cmd: cmd, Payload: payload})
}

func (b *Bridge) SetData(data engine.DataSet) error {
	return b.send("setData", data)
}

func (b *Bridge) SetOptions(opts engine.Options) error {
	return b.send("setOptions", opts)
}

func (b *Bridge) Stabilize(iterations int) error {
	return b.send("stabilize", struct {
		Iterations int `json:"iterations"`
	}{iterations})
}

func (b *Bridge) StopSimulation() error {
	return b.send("stopSimulation", nil)
}

func (b *Bridge) Fit(anim engine.Animation) error {
	return b.send("fit", struct {
		Animation engine.Animation `json:"animation"`
	}{anim})
}

func (b *Bridge) Focus(nodeID string, opts engine.FocusOptions) error {
	return b.send("focus", struct {
		Node    string              `json:"node"`
		Options engine.FocusOptions `json:"options"`
	}{nodeID, opts})
}

func (b *Bridge) SelectNodes(nodeIDs []string) error {
	return b.send("selectNodes", selectEvent{Nodes: nodeIDs})
}

func (b *Bridge) UnselectAll() error {
	return b.send("unselectAll", nil)
}

// GetPositions asks the peer for the current coordinates and waits for the
// tagged reply.
func (b *Bridge) GetPositions() (map[string]models.Position, error) {
	requestID := uuid.NewString()
	reply := b.peer.await(requestID)

	if err := b.peer.enqueue(commandFrame{Cmd: "getPositions", RequestID: requestID}); err != nil {
		b.peer.abandon(requestID)
		return nil, err
	}

	select {
	case payload := <-reply:
		var positions map[string]models.Position
		if err := json.Unmarshal(payload, &positions); err != nil {
			return nil, errors.Wrap(err, "decode positions reply")
		}
		return positions, nil
	case <-b.peer.done:
		b.peer.abandon(requestID)
		return nil, errors.New("browser peer gone")
	case <-time.After(requestTimeout):
		b.peer.abandon(requestID)
		return nil, errors.New("positions request timed out")
	}
}

// Destroy tells the peer to drop its network instance and detaches the event
// handler. The connection itself stays up for the next build.
func (b *Bridge) Destroy() error {
	err := b.send("destroy", nil)
	b.peer.setHandler(nil)
	return err
}
