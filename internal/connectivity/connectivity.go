// Package connectivity builds the derived adjacency index for the active
// snapshot: node id -> neighbor ids, treating edges as undirected. The index
// is rebuilt in full on every snapshot change, never patched incrementally.
package connectivity

import "github.com/lineascope/core/internal/models"

// Index is the adjacency map plus an id lookup for one snapshot.
type Index struct {
	Neighbors map[string]map[string]bool
	ByID      map[string]models.Node
}

// Build constructs the index in O(nodes + edges). Edges referencing unknown
// endpoints are skipped silently; malformed data is expected upstream.
func Build(nodes []models.Node, edges []models.Edge) *Index {
	idx := &Index{
		Neighbors: make(map[string]map[string]bool, len(nodes)),
		ByID:      make(map[string]models.Node, len(nodes)),
	}

	for _, node := range nodes {
		idx.Neighbors[node.ID] = make(map[string]bool)
		idx.ByID[node.ID] = node
	}

	for _, edge := range edges {
		if _, ok := idx.Neighbors[edge.From]; !ok {
			continue
		}
		if _, ok := idx.Neighbors[edge.To]; !ok {
			continue
		}
		idx.Neighbors[edge.From][edge.To] = true
		idx.Neighbors[edge.To][edge.From] = true
	}

	return idx
}

// Connected returns the one-hop expansion of ids: every listed node plus its
// direct neighbors. Unknown ids pass through unchanged so highlight requests
// stay total.
func (idx *Index) Connected(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
		for neighbor := range idx.Neighbors[id] {
			out[neighbor] = true
		}
	}
	return out
}

// HasEdges reports whether the node has at least one incident edge in the
// active snapshot. Disconnected nodes may be hidden from rendering.
func (idx *Index) HasEdges(id string) bool {
	return len(idx.Neighbors[id]) > 0
}
