package layout

import (
	"github.com/lineascope/core/internal/engine"
	"github.com/lineascope/core/internal/models"
)

// Left-to-right geometry. Feed nodes wrap into feedColumns columns; the
// other levels stack in a single column each.
const (
	feedColumns   = 8
	columnSpacing = 160.0
	rowSpacing    = 90.0
	levelGap      = 240.0

	lrStabilizationIterations = 600
	lrMinVelocity             = 0.75
)

// lrLevel orders groups into the manual layout's columns. Unknown groups
// land in the warehouse level as a neutral default.
func lrLevel(group string) int {
	switch group {
	case models.GroupFeed:
		return 0
	case models.GroupWarehouse, models.GroupDataLake:
		return 1
	case models.GroupVirtualisation:
		return 2
	case models.GroupLogicalDW:
		return 3
	}
	return 1
}

// computeHierarchicalLR partitions nodes into ordered levels and assigns
// explicit coordinates. currentX accumulates only the width of non-empty
// levels, so missing groups leave no gap. Pinning is mixed deliberately:
// structural columns are anchored on x while physics resolves vertical
// crowding; datalake and virtualisation nodes are fully fixed.
func computeHierarchicalLR(nodes []models.Node) Result {
	out := views(nodes)

	levels := make([][]int, 4)
	for i, node := range out {
		level := lrLevel(node.Group)
		levels[level] = append(levels[level], i)
	}

	currentX := 0.0
	for level, indices := range levels {
		if len(indices) == 0 {
			continue
		}

		columns := 1
		if level == 0 {
			columns = feedColumns
		}

		for slot, i := range indices {
			row := slot / columns
			col := slot % columns
			out[i].Position = &models.Position{
				X: currentX + float64(col)*columnSpacing,
				Y: float64(row) * rowSpacing,
			}

			switch out[i].Group {
			case models.GroupDataLake, models.GroupVirtualisation:
				out[i].FixedX = true
				out[i].FixedY = true
			default:
				out[i].FixedX = true
			}
		}

		used := len(indices)
		if used > columns {
			used = columns
		}
		currentX += float64(used)*columnSpacing + levelGap
	}

	return Result{
		Nodes: out,
		Options: engine.Options{
			Physics: engine.PhysicsOptions{
				Enabled: true,
				Solver:  engine.SolverHierarchicalRepulsion,
				HierarchicalRepulsion: &engine.HierarchicalRepulsionOptions{
					NodeDistance:   110,
					CentralGravity: 0,
					SpringLength:   100,
					SpringConstant: 0.01,
					Damping:        0.09,
				},
				Stabilization: engine.StabilizationOptions{
					Enabled:        true,
					Iterations:     lrStabilizationIterations,
					UpdateInterval: 25,
				},
				MinVelocity: lrMinVelocity,
			},
		},
	}
}

// computeHierarchicalUD delegates the whole arrangement to the engine's
// hierarchical mode. Physics stays off: the ranked arrangement is final and
// relaxation would fight the fixed ranks.
func computeHierarchicalUD(nodes []models.Node) Result {
	return Result{
		Nodes: views(nodes),
		Options: engine.Options{
			Physics: engine.PhysicsOptions{
				Enabled:       false,
				Stabilization: engine.StabilizationOptions{Enabled: false},
			},
			Layout: engine.LayoutOptions{
				Hierarchical: &engine.HierarchicalOptions{
					Enabled:         true,
					Direction:       engine.DirectionUD,
					SortMethod:      engine.SortMethodDirected,
					LevelSeparation: 180,
					NodeSpacing:     140,
				},
			},
		},
	}
}
