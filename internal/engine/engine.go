// Package engine defines the rendering/physics engine collaborator: the
// command surface the controller drives and the lifecycle events it reacts
// to. The option structs mirror the JSON shapes the browser-side network
// accepts, so a bridge can forward them verbatim.
package engine

import "github.com/lineascope/core/internal/models"

// Solver names understood by the physics engine.
const (
	SolverForceAtlas2Based      = "forceAtlas2Based"
	SolverHierarchicalRepulsion = "hierarchicalRepulsion"
)

// Hierarchical layout constants.
const (
	DirectionUD        = "UD"
	SortMethodDirected = "directed"
)

// EdgeView is the mutable render view of an edge: the source edge plus any
// styling overrides from a highlight pass.
type EdgeView struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Width  int    `json:"width,omitempty"`
	Color  string `json:"color,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// DataSet is one render's worth of positioned nodes and styled edges.
type DataSet struct {
	Nodes []models.PositionedNode `json:"nodes"`
	Edges []EdgeView              `json:"edges"`
}

// StabilizationOptions bound the engine's internal relaxation run.
type StabilizationOptions struct {
	Enabled        bool `json:"enabled"`
	Iterations     int  `json:"iterations,omitempty"`
	UpdateInterval int  `json:"updateInterval,omitempty"`
}

// ForceAtlas2Options tune the attraction/repulsion solver.
type ForceAtlas2Options struct {
	GravitationalConstant float64 `json:"gravitationalConstant,omitempty"`
	CentralGravity        float64 `json:"centralGravity,omitempty"`
	SpringLength          float64 `json:"springLength,omitempty"`
	SpringConstant        float64 `json:"springConstant,omitempty"`
	Damping               float64 `json:"damping,omitempty"`
	AvoidOverlap          float64 `json:"avoidOverlap,omitempty"`
}

// HierarchicalRepulsionOptions tune the solver used with pinned levels.
type HierarchicalRepulsionOptions struct {
	NodeDistance   float64 `json:"nodeDistance,omitempty"`
	CentralGravity float64 `json:"centralGravity,omitempty"`
	SpringLength   float64 `json:"springLength,omitempty"`
	SpringConstant float64 `json:"springConstant,omitempty"`
	Damping        float64 `json:"damping,omitempty"`
}

// PhysicsOptions select and tune the simulation. MinVelocity is the stopping
// threshold that makes the simulation halt deterministically.
type PhysicsOptions struct {
	Enabled               bool                          `json:"enabled"`
	Solver                string                        `json:"solver,omitempty"`
	ForceAtlas2Based      *ForceAtlas2Options           `json:"forceAtlas2Based,omitempty"`
	HierarchicalRepulsion *HierarchicalRepulsionOptions `json:"hierarchicalRepulsion,omitempty"`
	Stabilization         StabilizationOptions          `json:"stabilization"`
	MinVelocity           float64                       `json:"minVelocity,omitempty"`
}

// HierarchicalOptions request the engine's built-in hierarchical arrangement.
type HierarchicalOptions struct {
	Enabled         bool    `json:"enabled"`
	Direction       string  `json:"direction,omitempty"`
	SortMethod      string  `json:"sortMethod,omitempty"`
	LevelSeparation float64 `json:"levelSeparation,omitempty"`
	NodeSpacing     float64 `json:"nodeSpacing,omitempty"`
}

// LayoutOptions configure the engine-side layout pass.
type LayoutOptions struct {
	Hierarchical *HierarchicalOptions `json:"hierarchical,omitempty"`
}

// Options is the full option document handed to the engine on construction
// or via SetOptions.
type Options struct {
	Physics PhysicsOptions `json:"physics"`
	Layout  LayoutOptions  `json:"layout"`
}

// Animation describes an eased view transition.
type Animation struct {
	Duration       int    `json:"duration,omitempty"`
	EasingFunction string `json:"easingFunction,omitempty"`
}

// FocusOptions control the focus transition onto a single node.
type FocusOptions struct {
	Scale     float64    `json:"scale,omitempty"`
	Animation *Animation `json:"animation,omitempty"`
}

// EventHandler receives the engine's lifecycle events. Implementations must
// tolerate events arriving after the engine they came from was destroyed.
type EventHandler interface {
	OnStabilizationProgress(iterations, total int)
	OnStabilized()
	OnDragEnd(nodeID string, pos models.Position)
	OnSelectNode(nodeIDs []string)
	OnDeselectNode()
}

// Engine is one live rendering/physics instance. All calls are commands; the
// engine reports back only through the EventHandler it was constructed with.
type Engine interface {
	SetData(data DataSet) error
	SetOptions(opts Options) error
	Stabilize(iterations int) error
	StopSimulation() error
	Fit(anim Animation) error
	Focus(nodeID string, opts FocusOptions) error
	SelectNodes(nodeIDs []string) error
	UnselectAll() error
	GetPositions() (map[string]models.Position, error)
	Destroy() error
}

// Factory constructs a live engine instance with its initial data, options,
// and event sink. The caller owns the instance and must Destroy it before
// constructing another.
type Factory func(data DataSet, opts Options, handler EventHandler) (Engine, error)
