package layout

import (
	"math"

	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// groupAnchors are the approximate cluster centers handed to the solver as a
// starting configuration. Unknown groups fall back to the origin.
var groupAnchors = map[string]models.Position{
	models.GroupFeed:           {X: -800, Y: 0},
	models.GroupWarehouse:      {X: 0, Y: -300},
	models.GroupDataLake:       {X: 0, Y: 300},
	models.GroupVirtualisation: {X: 500, Y: 0},
	models.GroupLogicalDW:      {X: 900, Y: 0},
}

// Grid spacing inside a cluster bucket.
const clusterSpacing = 120.0

// Clustered-force physics tuning. The iteration cap and minimum velocity
// bound the run so the simulation halts deterministically.
const (
	clusteredStabilizationIterations = 2000
	clusteredMinVelocity             = 0.75
)

// computeClustered buckets nodes by group into anchor regions and arranges
// each bucket on an implicit grid, giving the solver a near-converged start.
func computeClustered(nodes []models.Node) Result {
	out := views(nodes)

	buckets := make(map[string][]int)
	for i, node := range out {
		buckets[node.Group] = append(buckets[node.Group], i)
	}

	for group, indices := range buckets {
		anchor := groupAnchors[group] // zero value = origin for unknown groups
		side := int(math.Ceil(math.Sqrt(float64(len(indices)))))
		if side == 0 {
			continue
		}
		for slot, i := range indices {
			row := slot / side
			col := slot % side
			out[i].Position = &models.Position{
				X: anchor.X + float64(col-side/2)*clusterSpacing,
				Y: anchor.Y + float64(row-side/2)*clusterSpacing,
			}
		}
	}

	return Result{
		Nodes: out,
		Options: engine.Options{
			Physics: engine.PhysicsOptions{
				Enabled: true,
				Solver:  engine.SolverForceAtlas2Based,
				ForceAtlas2Based: &engine.ForceAtlas2Options{
					GravitationalConstant: -50,
					CentralGravity:        0.01,
					SpringLength:          100,
					SpringConstant:        0.08,
					Damping:               0.4,
					AvoidOverlap:          0.5,
				},
				Stabilization: engine.StabilizationOptions{
					Enabled:        true,
					Iterations:     clusteredStabilizationIterations,
					UpdateInterval: 50,
				},
				MinVelocity: clusteredMinVelocity,
			},
		},
	}
}
