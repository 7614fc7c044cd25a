// Package render owns the single live rendering/physics engine instance and
// drives its lifecycle: teardown and rebuild on snapshot or strategy change,
// stabilization tracking, delayed auto-pause of physics, and the
// highlight/dim styling passes.
package render

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/connectivity"
	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/layout"
	"github.com/lineascope/core/internal/models"
	"github.com/lineascope/core/internal/poscache"
)

// State is the controller's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateStabilizing
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateStabilizing:
		return "stabilizing"
	case StateSettled:
		return "settled"
	}
	return "idle"
}

// Physics auto-disable grace periods. The manual left-to-right strategy
// converges faster thanks to its pins, and longer-running physics there only
// risks drift.
const (
	DefaultGrace   = 8 * time.Second
	DefaultGraceLR = 3 * time.Second
)

// GraphSource supplies snapshot graphs. *dataset.Store satisfies it.
type GraphSource interface {
	Graph(id models.SnapshotID) (*models.Graph, error)
}

// Status is the selector view exposed to the presentation layer.
type Status struct {
	Snapshot       models.SnapshotID `json:"snapshot"`
	Strategy       string            `json:"layout"`
	State          string            `json:"state"`
	Loading        bool              `json:"loading"`
	PhysicsEnabled bool              `json:"physics_enabled"`
	NodeCount      int               `json:"node_count"`
	EdgeCount      int               `json:"edge_count"`
}

// Controller orchestrates the single live engine instance. All mutation goes
// through its methods; no other component touches the engine directly.
type Controller struct {
	source  GraphSource
	cache   *poscache.Cache
	factory engine.Factory
	log     *zap.SugaredLogger

	grace   time.Duration
	graceLR time.Duration

	// newTimer is swapped out by tests to drive expiry manually.
	newTimer func(d time.Duration, fn func()) *time.Timer

	mu             sync.Mutex
	state          State
	snapshot       models.SnapshotID
	strategy       layout.Strategy
	generation     uuid.UUID
	eng            engine.Engine
	idx            *connectivity.Index
	base           engine.DataSet // pristine render view for the current build
	options        engine.Options
	allNodes       int
	allEdges       int
	physicsEnabled bool
	disableTimer   *time.Timer
}

// Option configures a Controller.
type Option func(*Controller)

// WithGrace overrides the physics auto-disable grace periods.
func WithGrace(grace, graceLR time.Duration) Option {
	return func(c *Controller) {
		c.grace = grace
		c.graceLR = graceLR
	}
}

// WithTimerFunc overrides timer construction (used by tests).
func WithTimerFunc(newTimer func(time.Duration, func()) *time.Timer) Option {
	return func(c *Controller) {
		c.newTimer = newTimer
	}
}

// NewController creates a controller in the Idle state; nothing is rendered
// until the first ShowView.
func NewController(source GraphSource, cache *poscache.Cache, factory engine.Factory, log *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		cache:    cache,
		factory:  factory,
		log:      log,
		grace:    DefaultGrace,
		graceLR:  DefaultGraceLR,
		newTimer: time.AfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShowView renders one (snapshot, strategy) pair, tearing down any live
// instance first. Exactly one build is in flight at a time; a newer call
// supersedes the results of an older one.
func (c *Controller) ShowView(snapshot models.SnapshotID, strategy layout.Strategy) error {
	graph, err := c.source.Graph(snapshot)
	if err != nil {
		// Keep the previously rendered state on screen.
		c.log.Errorw("Snapshot data missing", "snapshot", snapshot, "error", err)
		return errors.Wrapf(err, "show %s/%s", snapshot, strategy)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.generation = uuid.New()
	c.state = StateLoading
	c.snapshot = snapshot
	c.strategy = strategy
	c.allNodes = len(graph.Nodes)
	c.allEdges = len(graph.Edges)

	idx := connectivity.Build(graph.Nodes, graph.Edges)
	connected := make([]models.Node, 0, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if idx.HasEdges(node.ID) {
			connected = append(connected, node)
		}
	}
	edges := make([]engine.EdgeView, 0, len(graph.Edges))
	for _, edge := range graph.Edges {
		if idx.Neighbors[edge.From][edge.To] {
			edges = append(edges, engine.EdgeView{From: edge.From, To: edge.To, Width: edge.Width})
		}
	}

	result := layout.Compute(strategy, connected)
	options := result.Options

	cached, hit := c.cache.Get(snapshot, strategy)
	if hit {
		for i := range result.Nodes {
			if pos, ok := cached[result.Nodes[i].ID]; ok {
				p := pos
				result.Nodes[i].Position = &p
			}
		}
		// Cached coordinates apply directly; no re-stabilization.
		options.Physics.Stabilization = engine.StabilizationOptions{Enabled: false}
	}

	data := engine.DataSet{Nodes: result.Nodes, Edges: edges}
	eng, err := c.factory(data, options, &eventSink{c: c, generation: c.generation})
	if err != nil {
		// Benign race: the render target vanished mid-transition. Clear
		// loading and stay idle; nothing is retried.
		c.log.Debugw("Render target unavailable", "snapshot", snapshot, "error", err)
		c.state = StateIdle
		return nil
	}

	c.eng = eng
	c.idx = idx
	c.base = data
	c.options = options
	c.physicsEnabled = options.Physics.Enabled

	if options.Physics.Stabilization.Enabled {
		c.state = StateStabilizing
		if err := eng.Stabilize(options.Physics.Stabilization.Iterations); err != nil {
			c.log.Warnw("Stabilize failed", "error", err)
		}
	} else {
		// Cache hits and the engine-side hierarchical arrangement settle
		// immediately.
		c.state = StateSettled
		if c.physicsEnabled {
			c.armDisableTimerLocked(c.generation)
		}
	}

	c.log.Infow("View rendered",
		"snapshot", snapshot,
		"layout", strategy.String(),
		"nodes", len(result.Nodes),
		"edges", len(edges),
		"cache_hit", hit)
	return nil
}

// teardownLocked destroys the live instance and cancels the pending
// auto-disable timer. Every transition path runs through here first.
func (c *Controller) teardownLocked() {
	if c.disableTimer != nil {
		c.disableTimer.Stop()
		c.disableTimer = nil
	}
	if c.eng != nil {
		if err := c.eng.Destroy(); err != nil {
			c.log.Warnw("Engine destroy failed", "error", err)
		}
		c.eng = nil
	}
	c.idx = nil
	c.base = engine.DataSet{}
	c.state = StateIdle
}

// Close tears down the live instance. Safe to call repeatedly.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// Status reports the selector view for the presentation layer.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Snapshot:       c.snapshot,
		Strategy:       c.strategy.String(),
		State:          c.state.String(),
		Loading:        c.state == StateLoading,
		PhysicsEnabled: c.physicsEnabled,
		NodeCount:      c.allNodes,
		EdgeCount:      c.allEdges,
	}
}

// SetPhysics resumes or pauses the simulation manually. Resume re-enters
// Stabilizing and re-arms the auto-disable timer; pause cancels it.
func (c *Controller) SetPhysics(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return
	}
	if c.disableTimer != nil {
		c.disableTimer.Stop()
		c.disableTimer = nil
	}

	options := c.options
	options.Physics.Enabled = enabled
	options.Physics.Stabilization = engine.StabilizationOptions{Enabled: false}
	if err := c.eng.SetOptions(options); err != nil {
		c.log.Warnw("SetOptions failed", "error", err)
		return
	}
	c.physicsEnabled = enabled

	if enabled {
		c.state = StateStabilizing
		c.armDisableTimerLocked(c.generation)
	} else {
		c.state = StateSettled
	}
}

// armDisableTimerLocked schedules the delayed physics auto-pause. The
// callback re-checks the generation, so a timer surviving into a newer build
// is a no-op.
func (c *Controller) armDisableTimerLocked(generation uuid.UUID) {
	grace := c.grace
	if c.strategy == layout.HierarchicalLR {
		grace = c.graceLR
	}
	c.disableTimer = c.newTimer(grace, func() {
		c.autoDisable(generation)
	})
}

func (c *Controller) autoDisable(generation uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.eng == nil || !c.physicsEnabled {
		return
	}

	options := c.options
	options.Physics.Enabled = false
	options.Physics.Stabilization = engine.StabilizationOptions{Enabled: false}
	if err := c.eng.SetOptions(options); err != nil {
		c.log.Warnw("Physics auto-disable failed", "error", err)
		return
	}
	c.physicsEnabled = false
	c.state = StateSettled
	c.disableTimer = nil
	c.log.Debugw("Physics auto-disabled", "snapshot", c.snapshot, "layout", c.strategy.String())
}

// eventSink forwards engine events into the controller, tagged with the
// build generation they belong to.
type eventSink struct {
	c          *Controller
	generation uuid.UUID
}

func (s *eventSink) OnStabilizationProgress(iterations, total int) {
	s.c.onStabilizationProgress(s.generation, iterations, total)
}

func (s *eventSink) OnStabilized() {
	s.c.onStabilized(s.generation)
}

func (s *eventSink) OnDragEnd(nodeID string, pos models.Position) {
	s.c.onDragEnd(s.generation, nodeID, pos)
}

func (s *eventSink) OnSelectNode(nodeIDs []string) {
	s.c.onSelectNode(s.generation, nodeIDs)
}

func (s *eventSink) OnDeselectNode() {}

func (c *Controller) onStabilizationProgress(generation uuid.UUID, iterations, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}
	c.log.Debugw("Stabilization progress", "iterations", iterations, "total", total)
}

// onStabilized snapshots the settled coordinates into the cache and arms the
// delayed physics auto-pause.
func (c *Controller) onStabilized(generation uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation || c.eng == nil {
		return
	}

	positions, err := c.eng.GetPositions()
	if err != nil {
		c.log.Warnw("GetPositions failed", "error", err)
	} else {
		c.cache.Put(c.snapshot, c.strategy, positions)
		c.applyPositionsLocked(positions)
	}

	c.state = StateSettled
	if c.physicsEnabled {
		if c.disableTimer != nil {
			c.disableTimer.Stop()
		}
		c.armDisableTimerLocked(generation)
	}
}

// onDragEnd patches exactly the dragged node in the cache; the rest of the
// cached layout stays valid.
func (c *Controller) onDragEnd(generation uuid.UUID, nodeID string, pos models.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return
	}
	c.cache.PatchOne(c.snapshot, c.strategy, nodeID, pos)
	c.applyPositionsLocked(map[string]models.Position{nodeID: pos})
}

func (c *Controller) onSelectNode(generation uuid.UUID, nodeIDs []string) {
	c.mu.Lock()
	generationLive := generation == c.generation
	c.mu.Unlock()
	if !generationLive {
		return
	}
	if err := c.ApplyHighlight(nodeIDs); err != nil {
		c.log.Warnw("Highlight on select failed", "error", err)
	}
}

// applyPositionsLocked folds fresh coordinates into the pristine render view
// so later styling passes do not reset nodes to stale positions.
func (c *Controller) applyPositionsLocked(positions map[string]models.Position) {
	for i := range c.base.Nodes {
		if pos, ok := positions[c.base.Nodes[i].ID]; ok {
			p := pos
			c.base.Nodes[i].Position = &p
		}
	}
}
