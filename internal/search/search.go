// Package search resolves free-text queries against the graph and drives the
// highlight pass for the matches.
package search

import (
	"strings"

	"go.uber.org/zap"

	"github.com/lineascope/core/internal/models"
)

// Scope selects which node population a query runs against.
type Scope int

const (
	// ScopeSnapshot matches against the nodes of the rendered snapshot.
	ScopeSnapshot Scope = iota
	// ScopeAll matches against the deduplicated union of every snapshot.
	ScopeAll
)

// ParseScope maps the config value to a Scope; anything but "all-snapshots"
// is the per-snapshot default.
func ParseScope(s string) Scope {
	if s == "all-snapshots" {
		return ScopeAll
	}
	return ScopeSnapshot
}

// View is the slice of the render controller the searcher drives.
type View interface {
	ActiveSnapshot() models.SnapshotID
	ActiveNodes() []models.PositionedNode
	ApplyHighlight(nodeIDs []string) error
	ResetStyles() error
	SelectNodes(nodeIDs []string) error
	UnselectAll() error
	FocusNode(nodeID string) error
}

// Catalog supplies every snapshot for the aggregate scope. *dataset.Store
// satisfies it.
type Catalog interface {
	All() map[models.SnapshotID]*models.Graph
}

// Result describes what a query did to the view.
type Result struct {
	Query    string   `json:"query"`
	MatchIDs []string `json:"match_ids"`
	Focused  string   `json:"focused,omitempty"`
}

// Searcher applies queries to the live view.
type Searcher struct {
	view    View
	catalog Catalog
	scope   Scope
	log     *zap.SugaredLogger
}

func NewSearcher(view View, catalog Catalog, scope Scope, log *zap.SugaredLogger) *Searcher {
	return &Searcher{view: view, catalog: catalog, scope: scope, log: log}
}

// Apply runs one query end to end: an empty or whitespace query clears any
// highlight, a query with no matches clears it too, and matches are
// highlighted, selected and the first one focused. Matching is a
// case-insensitive substring test on id and label; the aggregate scope also
// matches the tooltip text.
func (s *Searcher) Apply(query string) (Result, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return Result{}, s.clear()
	}

	matches := s.match(needle)
	if len(matches) == 0 {
		s.log.Infow("Search found no matches", "query", query)
		return Result{Query: query}, s.clear()
	}

	if err := s.view.ApplyHighlight(matches); err != nil {
		return Result{}, err
	}
	if err := s.view.SelectNodes(matches); err != nil {
		return Result{}, err
	}

	focused := s.firstOnScreen(matches)
	if focused != "" {
		if err := s.view.FocusNode(focused); err != nil {
			return Result{}, err
		}
	}

	s.log.Debugw("Search applied", "query", query, "matches", len(matches), "focused", focused)
	return Result{Query: query, MatchIDs: matches, Focused: focused}, nil
}

func (s *Searcher) clear() error {
	if err := s.view.ResetStyles(); err != nil {
		return err
	}
	return s.view.UnselectAll()
}

// match returns matching node ids in original data order.
func (s *Searcher) match(needle string) []string {
	if s.scope == ScopeAll {
		return s.matchAll(needle)
	}

	var matches []string
	for _, node := range s.snapshotNodes() {
		if nodeMatches(node, needle, false) {
			matches = append(matches, node.ID)
		}
	}
	return matches
}

// snapshotNodes is the full node set of the active snapshot. The view only
// renders connected nodes, so matching has to go back to the catalog or
// queries can never hit the hidden ones.
func (s *Searcher) snapshotNodes() []models.Node {
	if s.catalog != nil {
		if graph, ok := s.catalog.All()[s.view.ActiveSnapshot()]; ok && graph != nil {
			return graph.Nodes
		}
	}
	nodes := s.view.ActiveNodes()
	out := make([]models.Node, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.Node)
	}
	return out
}

// matchAll walks the snapshots in their fixed order and deduplicates by the
// first occurrence of each id.
func (s *Searcher) matchAll(needle string) []string {
	graphs := s.catalog.All()
	seen := make(map[string]bool)
	var matches []string
	for _, id := range models.SnapshotIDs {
		graph, ok := graphs[id]
		if !ok {
			continue
		}
		for _, node := range graph.Nodes {
			if seen[node.ID] {
				continue
			}
			seen[node.ID] = true
			if nodeMatches(node, needle, true) {
				matches = append(matches, node.ID)
			}
		}
	}
	return matches
}

// firstOnScreen picks the first match present in the rendered view, in the
// view's data order. Aggregate-scope matches may be entirely off screen.
func (s *Searcher) firstOnScreen(matches []string) string {
	matched := make(map[string]bool, len(matches))
	for _, id := range matches {
		matched[id] = true
	}
	for _, node := range s.view.ActiveNodes() {
		if matched[node.ID] {
			return node.ID
		}
	}
	return ""
}

func nodeMatches(node models.Node, needle string, includeTitle bool) bool {
	if strings.Contains(strings.ToLower(node.ID), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(node.Label), needle) {
		return true
	}
	return includeTitle && strings.Contains(strings.ToLower(node.Title), needle)
}
