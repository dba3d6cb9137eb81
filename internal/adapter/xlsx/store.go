// Package xlsx stores hotspot datasets as spreadsheet workbooks on the local
// filesystem. A container is a directory under the store root, a dataset is a
// workbook file inside it, and each area is a worksheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	ext        = ".xlsx"
	stagingDir = ".staging"
)

// Store is a domain.Store backed by workbook files under a root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at root. The directory is created on first write.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logger.With("component", "xlsx")}
}

// Path returns the file a dataset is stored in.
func (s *Store) Path(container, name string) string {
	return filepath.Join(s.root, container, name+ext)
}

func (s *Store) Open(_ context.Context, container, name string) (domain.Dataset, error) {
	if err := validNames(container, name); err != nil {
		return nil, err
	}
	path := s.Path(container, name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrDatasetNotFound
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{f: f, path: path, name: name, container: container, logger: s.logger}, nil
}

// Create writes a new single-sheet workbook into the staging directory. It
// becomes visible to Open only after Move.
func (s *Store) Create(_ context.Context, name string) (domain.Dataset, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, stagingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	wb := &Workbook{
		f:      excelize.NewFile(),
		path:   filepath.Join(dir, uuid.NewString()+ext),
		name:   name,
		logger: s.logger,
	}
	if err := wb.save(); err != nil {
		wb.f.Close()
		return nil, err
	}
	s.logger.Debug("workbook staged", "dataset", name, "path", wb.path)
	return wb, nil
}

func (s *Store) Copy(_ context.Context, container, name, copyName string) error {
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
	return copyFile(src, dst)
}

func (s *Store) Move(_ context.Context, ds domain.Dataset, container string) error {
	wb, ok := ds.(*Workbook)
	if !ok {
		return fmt.Errorf("xlsx: cannot move %T", ds)
	}
	if err := validName(container); err != nil {
		return err
	}

	dst := s.Path(container, wb.name)
	if exists(dst) {
		return domain.ErrExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create container dir: %w", err)
	}
	if err := os.Rename(wb.path, dst); err != nil {
		return fmt.Errorf("move workbook: %w", err)
	}
	wb.path = dst
	wb.container = container
	return nil
}

func (s *Store) Exists(_ context.Context, container, name string) (bool, error) {
	if err := validNames(container, name); err != nil {
		return false, err
	}
	return exists(s.Path(container, name)), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies src to a temporary sibling of dst and renames it into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*"+ext)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
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
		return fmt.Errorf("xlsx: invalid name %q", n)
	}
	return nil
}
