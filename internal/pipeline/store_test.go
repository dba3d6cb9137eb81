package pipeline_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
)

// --- in-memory dataset store ---

type memStore struct {
	mu       sync.Mutex
	datasets map[string]*memDataset // key: container + "/" + name
	copies   []string
	copyErr  error
	created  int
}

func newMemStore() *memStore {
	return &memStore{datasets: make(map[string]*memDataset)}
}

func key(container, name string) string { return container + "/" + name }

// seed places a dataset with the given areas directly into container.
func (s *memStore) seed(container, name string, areas ...string) *memDataset {
	ds := newMemDataset(name, areas...)
	ds.container = container
	s.mu.Lock()
	s.datasets[key(container, name)] = ds
	s.mu.Unlock()
	return ds
}

func (s *memStore) get(container, name string) *memDataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasets[key(container, name)]
}

func (s *memStore) Open(_ context.Context, container, name string) (domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[key(container, name)]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	ds.closed = false
	return ds, nil
}

func (s *memStore) Create(_ context.Context, name string) (domain.Dataset, error) {
	s.mu.Lock()
	s.created++
	s.mu.Unlock()
	return newMemDataset(name, "Sheet1"), nil
}

func (s *memStore) Copy(_ context.Context, container, name, copyName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copyErr != nil {
		return s.copyErr
	}
	src, ok := s.datasets[key(container, name)]
	if !ok {
		return domain.ErrDatasetNotFound
	}
	if _, ok := s.datasets[key(container, copyName)]; ok {
		return domain.ErrExists
	}
	s.datasets[key(container, copyName)] = src.clone(copyName)
	s.copies = append(s.copies, copyName)
	return nil
}

func (s *memStore) Move(_ context.Context, d domain.Dataset, container string) error {
	ds := d.(*memDataset)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[key(container, ds.name)]; ok {
		return domain.ErrExists
	}
	ds.container = container
	s.datasets[key(container, ds.name)] = ds
	return nil
}

func (s *memStore) Exists(_ context.Context, container, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.datasets[key(container, name)]
	return ok, nil
}

type memDataset struct {
	name      string
	container string
	areas     []string
	data      map[string][][]string
	formats   map[string]domain.TableFormat
	writeErr  error
	formatErr error
	closed    bool
}

func newMemDataset(name string, areas ...string) *memDataset {
	ds := &memDataset{name: name, data: make(map[string][][]string), formats: make(map[string]domain.TableFormat)}
	for _, a := range areas {
		ds.areas = append(ds.areas, a)
		ds.data[a] = nil
	}
	return ds
}

func (d *memDataset) clone(name string) *memDataset {
	c := newMemDataset(name, d.areas...)
	c.container = d.container
	for a, rows := range d.data {
		c.data[a] = slices.Clone(rows)
	}
	return c
}

func (d *memDataset) Name() string      { return d.name }
func (d *memDataset) Container() string { return d.container }

func (d *memDataset) Areas(context.Context) ([]string, error) {
	return slices.Clone(d.areas), nil
}

func (d *memDataset) AddArea(_ context.Context, name string) error {
	if slices.Contains(d.areas, name) {
		return domain.ErrExists
	}
	d.areas = append(d.areas, name)
	d.data[name] = nil
	return nil
}

func (d *memDataset) RenameArea(_ context.Context, from, to string) error {
	i := slices.Index(d.areas, from)
	if i < 0 {
		return domain.ErrAreaNotFound
	}
	d.areas[i] = to
	d.data[to] = d.data[from]
	delete(d.data, from)
	return nil
}

func (d *memDataset) ClearArea(_ context.Context, name string) error {
	if !slices.Contains(d.areas, name) {
		return domain.ErrAreaNotFound
	}
	d.data[name] = nil
	delete(d.formats, name)
	return nil
}

func (d *memDataset) DeleteArea(_ context.Context, name string) error {
	i := slices.Index(d.areas, name)
	if i < 0 {
		return domain.ErrAreaNotFound
	}
	if len(d.areas) == 1 {
		return fmt.Errorf("cannot delete the last area %q", name)
	}
	d.areas = slices.Delete(d.areas, i, i+1)
	delete(d.data, name)
	return nil
}

func (d *memDataset) Header(_ context.Context, area string) ([]string, error) {
	rows, ok := d.data[area]
	if !ok {
		return nil, domain.ErrAreaNotFound
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return slices.Clone(rows[0]), nil
}

func (d *memDataset) ReadArea(_ context.Context, area string) ([][]string, error) {
	rows, ok := d.data[area]
	if !ok {
		return nil, domain.ErrAreaNotFound
	}
	return slices.Clone(rows), nil
}

func (d *memDataset) WriteTable(_ context.Context, area string, header []string, rows []domain.Row) error {
	if d.writeErr != nil {
		return d.writeErr
	}
	if !slices.Contains(d.areas, area) {
		return domain.ErrAreaNotFound
	}
	out := [][]string{slices.Clone(header)}
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = domain.CellText(c)
		}
		out = append(out, cells)
	}
	d.data[area] = out
	return nil
}

func (d *memDataset) FormatTable(_ context.Context, area string, f domain.TableFormat) error {
	if d.formatErr != nil {
		return d.formatErr
	}
	d.formats[area] = f
	return nil
}

func (d *memDataset) WriteView(_ context.Context, q domain.ViewQuery) error {
	src, ok := d.data[q.Source]
	if !ok {
		return domain.ErrAreaNotFound
	}
	if !slices.Contains(d.areas, q.Name) {
		d.areas = append(d.areas, q.Name)
	}
	var body [][]string
	if len(src) > 1 {
		body = src[1:]
	}
	out := [][]string{{q.KeyLabel, q.CountLabel}}
	for _, r := range domain.Aggregate(body, q) {
		out = append(out, []string{r.Key, fmt.Sprint(r.Count)})
	}
	d.data[q.Name] = out
	return nil
}

func (d *memDataset) Close() error {
	d.closed = true
	return nil
}
