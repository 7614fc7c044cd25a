package dataset

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lineascope/core/internal/models"
)

// ErrUnknownSnapshot is returned when a requested snapshot key has no
// corresponding dataset.
var ErrUnknownSnapshot = errors.New("unknown snapshot")

// Store holds the three immutable snapshot graphs. Reload swaps all three at
// once; readers always see a consistent set.
type Store struct {
	path string
	log  *zap.SugaredLogger

	mu     sync.RWMutex
	graphs map[models.SnapshotID]*models.Graph
}

// NewStore loads the dataset from the CSV at path.
func NewStore(path string, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{path: path, log: log}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the CSV and rebuilds every snapshot. On failure the
// previous graphs stay in place.
func (s *Store) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	rows, warehouses, err := ParseLegacyCSV(f)
	if err != nil {
		return errors.Wrapf(err, "parse dataset %s", s.path)
	}

	graphs := BuildSnapshots(rows, warehouses)

	s.mu.Lock()
	s.graphs = graphs
	s.mu.Unlock()

	s.log.Infow("Dataset loaded",
		"path", s.path,
		"feeds", len(rows),
		"warehouses", len(warehouses))
	return nil
}

// Graph returns the immutable graph for one snapshot.
func (s *Store) Graph(id models.SnapshotID) (*models.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graph, ok := s.graphs[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSnapshot, "%q", id)
	}
	return graph, nil
}

// All returns every snapshot graph keyed by id.
func (s *Store) All() map[models.SnapshotID]*models.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.SnapshotID]*models.Graph, len(s.graphs))
	for id, graph := range s.graphs {
		out[id] = graph
	}
	return out
}

// Stats returns the summary counts for one snapshot.
func (s *Store) Stats(id models.SnapshotID) (*models.Stats, error) {
	graph, err := s.Graph(id)
	if err != nil {
		return nil, err
	}
	return graph.Stats, nil
}
