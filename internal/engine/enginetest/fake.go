// Package enginetest provides a scripted in-process engine for tests: every
// command is recorded, and lifecycle events are fired synchronously from the
// test goroutine.
package enginetest

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// Harness mints one Fake per engine construction, so tests can tell a
// superseded instance from the live one.
type Harness struct {
	mu      sync.Mutex
	engines []*Fake
}

func NewHarness() *Harness {
	return &Harness{}
}

// Factory returns an engine.Factory that records every constructed instance.
func (h *Harness) Factory() engine.Factory {
	return func(data engine.DataSet, opts engine.Options, handler engine.EventHandler) (engine.Engine, error) {
		fake := &Fake{Data: data, Opts: opts, handler: handler}
		fake.Commands = append(fake.Commands, "construct")
		h.mu.Lock()
		h.engines = append(h.engines, fake)
		h.mu.Unlock()
		return fake, nil
	}
}

// Latest returns the most recently constructed instance, or nil.
func (h *Harness) Latest() *Fake {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.engines) == 0 {
		return nil
	}
	return h.engines[len(h.engines)-1]
}

// Count returns how many instances were constructed.
func (h *Harness) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.engines)
}

// FailingFactory simulates a missing render container.
func FailingFactory() engine.Factory {
	return func(engine.DataSet, engine.Options, engine.EventHandler) (engine.Engine, error) {
		return nil, errors.New("container not mounted")
	}
}

// Fake implements engine.Engine. It records every command in order and lets
// tests fire events at the registered handler. Events are meant to be fired
// from the test goroutine between controller calls, never from inside one.
type Fake struct {
	mu sync.Mutex

	Commands  []string
	Data      engine.DataSet
	Opts      engine.Options
	Positions map[string]models.Position // scripted overrides for GetPositions
	Focused   string
	Selected  []string
	Destroyed bool

	handler engine.EventHandler
}

func (f *Fake) record(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmd)
}

// CommandLog returns a copy of the commands recorded so far.
func (f *Fake) CommandLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Commands...)
}

// LastData returns the most recent SetData payload (or the construction
// payload when SetData was never called).
func (f *Fake) LastData() engine.DataSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Data
}

// LastOpts returns the most recent option document.
func (f *Fake) LastOpts() engine.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Opts
}

func (f *Fake) SetData(data engine.DataSet) error {
	f.mu.Lock()
	f.Data = data
	f.Commands = append(f.Commands, "setData")
	f.mu.Unlock()
	return nil
}

func (f *Fake) SetOptions(opts engine.Options) error {
	f.mu.Lock()
	f.Opts = opts
	f.Commands = append(f.Commands, "setOptions")
	f.mu.Unlock()
	return nil
}

func (f *Fake) Stabilize(int) error {
	f.record("stabilize")
	return nil
}

func (f *Fake) StopSimulation() error {
	f.record("stopSimulation")
	return nil
}

func (f *Fake) Fit(engine.Animation) error {
	f.record("fit")
	return nil
}

func (f *Fake) Focus(nodeID string, _ engine.FocusOptions) error {
	f.mu.Lock()
	f.Focused = nodeID
	f.Commands = append(f.Commands, "focus")
	f.mu.Unlock()
	return nil
}

func (f *Fake) SelectNodes(nodeIDs []string) error {
	f.mu.Lock()
	f.Selected = append([]string(nil), nodeIDs...)
	f.Commands = append(f.Commands, "selectNodes")
	f.mu.Unlock()
	return nil
}

func (f *Fake) UnselectAll() error {
	f.mu.Lock()
	f.Selected = nil
	f.Commands = append(f.Commands, "unselectAll")
	f.mu.Unlock()
	return nil
}

// GetPositions returns positions from the last data payload, overlaid with
// any scripted Positions entries.
func (f *Fake) GetPositions() (map[string]models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, "getPositions")

	out := make(map[string]models.Position)
	for _, node := range f.Data.Nodes {
		if node.Position != nil {
			out[node.ID] = *node.Position
		}
	}
	for id, pos := range f.Positions {
		out[id] = pos
	}
	return out, nil
}

func (f *Fake) Destroy() error {
	f.mu.Lock()
	f.Destroyed = true
	f.Commands = append(f.Commands, "destroy")
	f.mu.Unlock()
	return nil
}

// FireStabilized delivers the one-shot stabilization-complete event.
func (f *Fake) FireStabilized() {
	if h := f.currentHandler(); h != nil {
		h.OnStabilized()
	}
}

// FireDragEnd delivers a drag-end event for one node.
func (f *Fake) FireDragEnd(nodeID string, pos models.Position) {
	if h := f.currentHandler(); h != nil {
		h.OnDragEnd(nodeID, pos)
	}
}

// FireSelectNode delivers a node-select event.
func (f *Fake) FireSelectNode(nodeIDs []string) {
	if h := f.currentHandler(); h != nil {
		h.OnSelectNode(nodeIDs)
	}
}

func (f *Fake) currentHandler() engine.EventHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}
