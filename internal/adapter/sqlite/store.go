// Package sqlite stores hotspot datasets as SQLite database files. A container
// is a directory under the store root, a dataset is a database file, each area
// is a table, and aggregation views are SQL views over the working table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/google/uuid"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const (
	ext         = ".db"
	stagingDir  = ".staging"
	initialArea = "Sheet1"
)

// Ensure Store and Dataset satisfy the domain interfaces at compile time.
var (
	_ domain.Store   = (*Store)(nil)
	_ domain.Dataset = (*Dataset)(nil)
)

// Store is a domain.Store backed by SQLite files under a root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at root.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logger.With("component", "sqlite")}
}

// Path returns the file a dataset is stored in.
func (s *Store) Path(container, name string) string {
	return filepath.Join(s.root, container, name+ext)
}

func (s *Store) Open(ctx context.Context, container, name string) (domain.Dataset, error) {
	if err := validNames(container, name); err != nil {
		return nil, err
	}
	path := s.Path(container, name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDatasetNotFound
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Dataset{db: db, path: path, name: name, container: container, logger: s.logger}, nil
}

// Create makes a new database with one empty table in the staging directory.
func (s *Store) Create(ctx context.Context, name string) (domain.Dataset, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create staging dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+ext)
	db, err := openDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, emptyTableSQL(initialArea)); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create initial table: %w", err)
	}
	s.logger.Debug("database staged", "dataset", name, "path", path)
	return &Dataset{db: db, path: path, name: name, logger: s.logger}, nil
}

// Copy snapshots a dataset with VACUUM INTO, which yields a consistent copy
// even while the source is open.
func (s *Store) Copy(ctx context.Context, container, name, copyName string) error {
	if err := validNames(container, name, copyName); err != nil {
		return err
	}
	src := s.Path(container, name)
	dst := s.Path(container, copyName)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return domain.ErrDatasetNotFound
	}
	if exists(dst) {
		return domain.ErrExists
	}

	db, err := openDB(ctx, src)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO "+quoteLiteral(dst)); err != nil {
		return fmt.Errorf("sqlite: copy %s: %w", name, err)
	}
	return nil
}

// Move closes the dataset's connection, renames the file into container and
// reopens it.
func (s *Store) Move(ctx context.Context, ds domain.Dataset, container string) error {
	d, ok := ds.(*Dataset)
	if !ok {
		return fmt.Errorf("sqlite: cannot move %T", ds)
	}
	if err := validName(container); err != nil {
		return err
	}

	dst := s.Path(container, d.name)
	if exists(dst) {
		return domain.ErrExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("sqlite: create container dir: %w", err)
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("sqlite: close before move: %w", err)
	}
	if err := os.Rename(d.path, dst); err != nil {
		return fmt.Errorf("sqlite: move database: %w", err)
	}

	db, err := openDB(ctx, dst)
	if err != nil {
		return err
	}
	d.db = db
	d.path = dst
	d.container = container
	return nil
}

func (s *Store) Exists(_ context.Context, container, name string) (bool, error) {
	if err := validNames(container, name); err != nil {
		return false, err
	}
	return exists(s.Path(container, name)), nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection serializes writers on the file.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return db, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func validNames(names ...string) error {
	for _, n := range names {
		if err := validName(n); err != nil {
			return err
		}
	}
	return nil
}

func validName(n string) error {
	if n == "" || n == "." || n == ".." || strings.ContainsAny(n, `/\`) {
		return fmt.Errorf("sqlite: invalid name %q", n)
	}
	return nil
}
