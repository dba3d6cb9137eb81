package domain

import "context"

// Layout names the areas of a hotspot dataset. It is fixed at construction and
// passed to each component.
type Layout struct {
	WorkingArea  string
	CountryView  string
	ProvinceView string
	LandUseView  string
}

// DefaultLayout returns the area names used by the published dataset.
func DefaultLayout() Layout {
	return Layout{
		WorkingArea:  "Daily",
		CountryView:  "Semantic_Country",
		ProvinceView: "Semantic_Province_TH",
		LandUseView:  "Semantic_Landuse_TH",
	}
}

// Views returns the derived area names in build order.
func (l Layout) Views() []string {
	return []string{l.CountryView, l.ProvinceView, l.LandUseView}
}

// TableFormat is presentation applied after a bulk write. It never changes
// stored values.
type TableFormat struct {
	HeaderBold     bool
	HeaderFill     string // hex color, e.g. "#D9EAD3"
	DecimalColumns []int  // zero-based column indexes
	DecimalFormat  string // e.g. "0.000000000"
}

// Store creates, opens and relocates datasets inside storage containers.
type Store interface {
	// Open returns ErrDatasetNotFound when container holds no dataset called name.
	Open(ctx context.Context, container, name string) (Dataset, error)
	// Create makes a new dataset outside any container with a single initial area.
	Create(ctx context.Context, name string) (Dataset, error)
	// Copy snapshots a dataset under a new name in the same container. It
	// returns ErrExists rather than overwrite copyName.
	Copy(ctx context.Context, container, name, copyName string) error
	// Move relocates a created dataset into container.
	Move(ctx context.Context, ds Dataset, container string) error
	Exists(ctx context.Context, container, name string) (bool, error)
}

// Dataset is an open handle on a dataset and its areas.
type Dataset interface {
	Name() string
	// Container is the storage container holding the dataset, "" before Move.
	Container() string

	Areas(ctx context.Context) ([]string, error)
	AddArea(ctx context.Context, name string) error
	RenameArea(ctx context.Context, from, to string) error
	ClearArea(ctx context.Context, name string) error
	DeleteArea(ctx context.Context, name string) error

	// Header returns the first row of an area, or nil when the area is empty.
	Header(ctx context.Context, area string) ([]string, error)
	// ReadArea returns every row of an area, header first, as cell text.
	ReadArea(ctx context.Context, area string) ([][]string, error)
	// WriteTable replaces the area content with header and rows in one
	// all-or-nothing operation.
	WriteTable(ctx context.Context, area string, header []string, rows []Row) error
	FormatTable(ctx context.Context, area string, f TableFormat) error
	// WriteView clears the area named q.Name (creating it when absent) and
	// materializes q over q.Source.
	WriteView(ctx context.Context, q ViewQuery) error

	Close() error
}
