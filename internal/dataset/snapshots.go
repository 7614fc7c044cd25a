package dataset

import (
	"strings"

	"github.com/lineascope/core/internal/models"
)

// Synthetic node ids introduced by the current and future snapshots.
const (
	DataLakeID       = "dl"
	VirtualisationID = "dv"
)

// virtualisedWarehouses are the legacy warehouses already fronted by the
// virtualisation layer in the current state.
var virtualisedWarehouses = []string{
	"Data_Warehouse_1",
	"Data_Warehouse_2",
	"Data_Warehouse_7",
	"Data_Warehouse_15",
}

// logicalWarehouses are the downstream logical DW nodes present in the
// current and future states.
var logicalWarehouses = []models.Node{
	{ID: "ldw1", Label: "LDW: Sales", Level: 3, Group: models.GroupLogicalDW, Title: "Logical DW for Sales"},
	{ID: "ldw2", Label: "LDW: Marketing", Level: 3, Group: models.GroupLogicalDW, Title: "Logical DW for Marketing"},
	{ID: "ldw3", Label: "LDW: Finance", Level: 3, Group: models.GroupLogicalDW, Title: "Logical DW for Finance"},
}

// BuildSnapshots derives the three snapshot graphs from the parsed
// spreadsheet rows. The returned graphs share no slices with each other, so
// each can be handed out as an immutable dataset.
func BuildSnapshots(rows []FeedRow, warehouses []string) map[models.SnapshotID]*models.Graph {
	baseNodes := make([]models.Node, 0, len(rows)+len(warehouses))
	baseEdges := make([]models.Edge, 0)

	for _, row := range rows {
		baseNodes = append(baseNodes, styled(models.Node{
			ID:    row.ID,
			Label: row.ID,
			Level: 0,
			Group: models.GroupFeed,
			Title: "Feed: " + row.Title,
		}))
	}

	for _, warehouse := range warehouses {
		id := warehouseID(warehouse)
		baseNodes = append(baseNodes, styled(models.Node{
			ID:    id,
			Label: warehouse,
			Level: 1,
			Group: models.GroupWarehouse,
			Title: "Legacy Warehouse: " + warehouse,
		}))

		for _, row := range rows {
			if row.Loads[warehouse] {
				baseEdges = append(baseEdges, models.Edge{From: row.ID, To: id})
			}
		}
	}

	dataLake := styled(models.Node{
		ID:    DataLakeID,
		Label: "Data Lake",
		Level: 1,
		Group: models.GroupDataLake,
		Title: "Central Data Lake",
	})
	virtualisation := styled(models.Node{
		ID:    VirtualisationID,
		Label: "Data Virtualisation",
		Level: 2,
		Group: models.GroupVirtualisation,
		Title: "Data Virtualisation Layer",
	})

	past := &models.Graph{
		Nodes: append([]models.Node(nil), baseNodes...),
		Edges: append([]models.Edge(nil), baseEdges...),
	}

	currentNodes := append([]models.Node(nil), baseNodes...)
	currentNodes = append(currentNodes, virtualisation)
	currentNodes = append(currentNodes, styledAll(logicalWarehouses)...)

	currentEdges := append([]models.Edge(nil), baseEdges...)
	for _, warehouse := range virtualisedWarehouses {
		currentEdges = append(currentEdges, models.Edge{From: warehouse, To: VirtualisationID})
	}
	for _, ldw := range logicalWarehouses {
		currentEdges = append(currentEdges, models.Edge{From: VirtualisationID, To: ldw.ID})
	}
	current := &models.Graph{Nodes: currentNodes, Edges: currentEdges}

	futureNodes := make([]models.Node, 0, len(rows)+2+len(logicalWarehouses))
	futureEdges := make([]models.Edge, 0, len(rows)+1+len(logicalWarehouses))
	for _, node := range baseNodes {
		if node.Group == models.GroupFeed {
			futureNodes = append(futureNodes, node)
			futureEdges = append(futureEdges, models.Edge{From: node.ID, To: DataLakeID})
		}
	}
	futureNodes = append(futureNodes, dataLake, virtualisation)
	futureNodes = append(futureNodes, styledAll(logicalWarehouses)...)
	futureEdges = append(futureEdges, models.Edge{From: DataLakeID, To: VirtualisationID})
	for _, ldw := range logicalWarehouses {
		futureEdges = append(futureEdges, models.Edge{From: VirtualisationID, To: ldw.ID})
	}
	future := &models.Graph{Nodes: futureNodes, Edges: futureEdges}

	for _, graph := range []*models.Graph{past, current, future} {
		graph.Stats = graph.ComputeStats()
	}

	return map[models.SnapshotID]*models.Graph{
		models.SnapshotPast:    past,
		models.SnapshotCurrent: current,
		models.SnapshotFuture:  future,
	}
}

func warehouseID(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// styled fills in the node's palette color from its group tag.
func styled(node models.Node) models.Node {
	if color, ok := models.GroupColors[node.Group]; ok {
		c := color
		node.Color = &c
	}
	return node
}

func styledAll(nodes []models.Node) []models.Node {
	out := make([]models.Node, len(nodes))
	for i, node := range nodes {
		out[i] = styled(node)
	}
	return out
}
