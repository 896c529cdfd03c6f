// Package catalogstore publishes immutable catalog snapshots. Readers take a snapshot once per
// generation and keep using it even if a reload swaps in a newer catalog meanwhile.
package catalogstore

import (
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vsinha/sinkbom/pkg/domain/services"
	csvloader "github.com/vsinha/sinkbom/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/jsonfile"
	"github.com/vsinha/sinkbom/pkg/infrastructure/repositories/memory"
)

// Loader reads the raw content of a catalog
type Loader interface {
	LoadFS(fsys fs.FS) (*memory.CatalogData, error)
}

// Store holds the active catalog
type Store struct {
	current atomic.Pointer[memory.Catalog]
	json    Loader
	csv     Loader
	logger  *zap.Logger
}

// New creates a store serving the given catalog
func New(initial *memory.Catalog, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		json:   jsonfile.NewLoader(),
		csv:    csvloader.NewLoader(),
		logger: logger,
	}
	s.current.Store(initial)
	return s
}

// Open loads the catalog directory and creates a store serving it
func Open(dir string, logger *zap.Logger) (*Store, error) {
	s := New(nil, logger)
	if _, err := s.ReloadDir(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the active catalog; nil until one has been loaded
func (s *Store) Snapshot() *memory.Catalog {
	return s.current.Load()
}

// Swap publishes next and returns the catalog it replaced
func (s *Store) Swap(next *memory.Catalog) *memory.Catalog {
	return s.current.Swap(next)
}

// ReloadDir rebuilds the catalog from a directory and swaps it in
func (s *Store) ReloadDir(dir string) (*services.IntegrityReport, error) {
	fsys := os.DirFS(dir)
	data, err := s.loaderFor(fsys).LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", dir, err)
	}
	return s.publish(data)
}

// ReloadFS rebuilds the catalog from fsys and swaps it in. A directory holding parts.csv is
// read as a CSV export, anything else as JSON documents.
func (s *Store) ReloadFS(fsys fs.FS) (*services.IntegrityReport, error) {
	data, err := s.loaderFor(fsys).LoadFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return s.publish(data)
}

func (s *Store) loaderFor(fsys fs.FS) Loader {
	if csvloader.Detect(fsys) {
		return s.csv
	}
	return s.json
}

func (s *Store) publish(data *memory.CatalogData) (*services.IntegrityReport, error) {
	catalog, err := memory.NewCatalog(*data)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	previous := s.current.Swap(catalog)
	report := catalog.IntegrityReport()

	parts, assemblies, categories := catalog.Stats()
	fields := []zap.Field{
		zap.String("version", catalog.Version()),
		zap.Int("parts", parts),
		zap.Int("assemblies", assemblies),
		zap.Int("categories", categories),
		zap.Int("integrity_warnings", len(report.Warnings)),
		zap.Int("integrity_errors", len(report.Errors)),
	}
	if previous != nil {
		fields = append(fields, zap.String("previous_version", previous.Version()))
	}
	s.logger.Info("catalog published", fields...)

	return report, nil
}
