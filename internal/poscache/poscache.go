// Package poscache remembers stabilized coordinates per (snapshot, strategy)
// pair so revisits skip re-stabilization. Entries are written when the engine
// reports a stable configuration and patched one node at a time on drags.
package poscache

import (
	"sync"

	"github.com/lineascope/core/internal/layout"
	"github.com/lineascope/core/internal/models"
)

type key struct {
	snapshot models.SnapshotID
	strategy layout.Strategy
}

// entry tracks which coordinates came from a user drag: those survive a full
// put unless the payload places them explicitly.
type entry struct {
	positions map[string]models.Position
	patched   map[string]bool
}

// Cache maps (snapshot, strategy) to the last stabilized coordinate set.
// Safe for concurrent use; stored and returned maps are always copies.
type Cache struct {
	mu      sync.RWMutex
	entries map[key]*entry
}

func New() *Cache {
	return &Cache{entries: make(map[key]*entry)}
}

// Get returns a copy of the cached positions, or ok=false on a miss.
func (c *Cache) Get(snapshot models.SnapshotID, strategy layout.Strategy) (map[string]models.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key{snapshot, strategy}]
	if !ok {
		return nil, false
	}
	return clonePositions(e.positions), true
}

// Put stores a copy of the full coordinate set for the pair. A dragged node
// absent from the payload keeps its patched coordinate; a payload that
// includes the node re-places it and clears the patch mark.
func (c *Cache) Put(snapshot models.SnapshotID, strategy layout.Strategy, positions map[string]models.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{snapshot, strategy}
	next := &entry{positions: clonePositions(positions), patched: make(map[string]bool)}
	if prev, ok := c.entries[k]; ok {
		for id := range prev.patched {
			if _, included := positions[id]; included {
				continue
			}
			next.positions[id] = prev.positions[id]
			next.patched[id] = true
		}
	}
	c.entries[k] = next
}

// PatchOne overwrites a single node's coordinate, creating the entry when the
// pair has never been stabilized. User drags survive revisits without
// invalidating the rest of the cached layout.
func (c *Cache) PatchOne(snapshot models.SnapshotID, strategy layout.Strategy, nodeID string, pos models.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{snapshot, strategy}
	e, ok := c.entries[k]
	if !ok {
		e = &entry{positions: make(map[string]models.Position), patched: make(map[string]bool)}
		c.entries[k] = e
	}
	e.positions[nodeID] = pos
	e.patched[nodeID] = true
}

func clonePositions(in map[string]models.Position) map[string]models.Position {
	out := make(map[string]models.Position, len(in))
	for id, pos := range in {
		out[id] = pos
	}
	return out
}
