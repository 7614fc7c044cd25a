// Package dataset ingests the legacy feed spreadsheet and derives the three
// named snapshots (past/current/future) served to the visualizer. Graphs are
// built once per load and treated as immutable afterwards.
package dataset

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Fixed header columns preceding the per-warehouse columns.
const (
	colFeedID    = "Feed ID"
	colFeedTitle = "Feed Full Title"
)

// warehouseColumnPrefix marks the legacy warehouse membership columns.
const warehouseColumnPrefix = "Data Warehouse"

// FeedRow is one row of the legacy spreadsheet: a feed and the set of legacy
// warehouses it loads.
type FeedRow struct {
	ID    string
	Title string
	Loads map[string]bool // keyed by warehouse display name, true when marked "Y"
}

// ParseLegacyCSV reads the legacy feed spreadsheet. It returns the feed rows
// and the warehouse display names in column order.
func ParseLegacyCSV(r io.Reader) ([]FeedRow, []string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("empty dataset: missing header row")
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read header")
	}

	idCol, titleCol := -1, -1
	warehouseCols := make(map[int]string)
	var warehouses []string

	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case name == colFeedID:
			idCol = i
		case name == colFeedTitle:
			titleCol = i
		case strings.HasPrefix(name, warehouseColumnPrefix):
			warehouseCols[i] = name
			warehouses = append(warehouses, name)
		}
	}

	if idCol < 0 {
		return nil, nil, errors.Newf("invalid dataset: missing %q column", colFeedID)
	}
	if titleCol < 0 {
		return nil, nil, errors.Newf("invalid dataset: missing %q column", colFeedTitle)
	}
	if len(warehouses) == 0 {
		return nil, nil, errors.New("invalid dataset: no warehouse columns")
	}

	var rows []FeedRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read row")
		}

		id := strings.TrimSpace(record[idCol])
		if id == "" {
			continue
		}

		row := FeedRow{
			ID:    id,
			Title: strings.TrimSpace(record[titleCol]),
			Loads: make(map[string]bool, len(warehouseCols)),
		}
		for i, warehouse := range warehouseCols {
			if i < len(record) && strings.TrimSpace(record[i]) == "Y" {
				row.Loads[warehouse] = true
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil, errors.New("invalid dataset: no feed rows")
	}

	return rows, warehouses, nil
}
