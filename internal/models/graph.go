// Package models defines the core data structures shared across the service.
// It includes the node/edge graph entities, snapshot identifiers, and the
// fixed group styling palette.
package models

// SnapshotID names one of the three independent datasets.
type SnapshotID string

const (
	SnapshotPast    SnapshotID = "past"
	SnapshotCurrent SnapshotID = "current"
	SnapshotFuture  SnapshotID = "future"
)

// SnapshotIDs lists the valid snapshot keys in display order.
var SnapshotIDs = []SnapshotID{SnapshotPast, SnapshotCurrent, SnapshotFuture}

// Valid reports whether id is one of the three known snapshot keys.
func (id SnapshotID) Valid() bool {
	switch id {
	case SnapshotPast, SnapshotCurrent, SnapshotFuture:
		return true
	}
	return false
}

// Node group tags. The set is fixed but unrecognized tags must degrade
// gracefully (neutral anchor, neutral level) rather than error.
const (
	GroupFeed           = "feed"
	GroupWarehouse      = "warehouse"
	GroupDataLake       = "datalake"
	GroupVirtualisation = "virtualisation"
	GroupLogicalDW      = "logical_dw"
)

// Color holds a background/border pair for a node.
type Color struct {
	Background string `json:"background,omitempty"`
	Border     string `json:"border,omitempty"`
}

// GroupColors is the fixed styling palette, keyed by group tag.
var GroupColors = map[string]Color{
	GroupFeed:           {Background: "#e0f2fe", Border: "#38bdf8"},
	GroupWarehouse:      {Background: "#ffedd5", Border: "#fb923c"},
	GroupDataLake:       {Background: "#dcfce7", Border: "#4ade80"},
	GroupVirtualisation: {Background: "#ede9fe", Border: "#a78bfa"},
	GroupLogicalDW:      {Background: "#fee2e2", Border: "#f87171"},
}

// DimmedColor is the muted fill applied to nodes outside a highlight set.
var DimmedColor = Color{Background: "#f1f5f9", Border: "#cbd5e1"}

// Position is a 2D coordinate in engine space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is an immutable graph node as delivered by the dataset builder.
// Layout and styling passes work on derived copies, never on these records.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group"`
	Level int    `json:"level"`
	Title string `json:"title,omitempty"`
	Color *Color `json:"color,omitempty"`
}

// Edge connects two nodes by id. Endpoints are not validated here; edges
// referencing absent nodes are ignored downstream.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Width int    `json:"width,omitempty"`
}

// Graph is one snapshot's immutable node and edge lists.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats *Stats `json:"stats,omitempty"`
}

// Stats holds summary counts for a snapshot.
type Stats struct {
	TotalNodes   int            `json:"total_nodes"`
	TotalEdges   int            `json:"total_edges"`
	NodesByGroup map[string]int `json:"nodes_by_group,omitempty"`
}

// ComputeStats derives counts from the graph's current contents.
func (g *Graph) ComputeStats() *Stats {
	byGroup := make(map[string]int)
	for _, n := range g.Nodes {
		byGroup[n.Group]++
	}
	return &Stats{
		TotalNodes:   len(g.Nodes),
		TotalEdges:   len(g.Edges),
		NodesByGroup: byGroup,
	}
}

// PositionedNode is the mutable render view of a Node: a copy annotated with
// coordinates, per-axis pin flags, and an optional opacity override. The
// embedded Node is itself a copy, so styling passes may replace its Color
// without touching the source record.
type PositionedNode struct {
	Node
	Position *Position `json:"position,omitempty"`
	FixedX   bool      `json:"fixed_x,omitempty"`
	FixedY   bool      `json:"fixed_y,omitempty"`
	Opacity  float64   `json:"opacity,omitempty"`
}
