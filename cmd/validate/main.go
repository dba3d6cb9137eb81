// Command validate checks a published hotspot dataset: its area layout, the
// working-area header, the loaded rows, and that every view agrees with an
// in-memory aggregation of the working area.
//
// Usage:
//
//	go run ./cmd/validate -root ./data -container folder-1
//	go run ./cmd/validate -root ./data -container folder-1 -store sqlite -name Hotspot_20261015
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/couchcryptid/hotspot-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/hotspot-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/hotspot-etl/internal/config"
	"github.com/couchcryptid/hotspot-etl/internal/domain"
)

const fieldHotspotID = "hotspotid"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	root := flag.String("root", "./data", "root directory of containers")
	container := flag.String("container", "", "container holding the dataset")
	name := flag.String("name", "Hotspot_Data", "dataset name")
	store := flag.String("store", config.StoreXLSX, "dataset store: xlsx or sqlite")
	home := flag.String("home", "Thailand", "home country used by the province and land-use views")
	excluded := flag.String("excluded", "China", "country excluded from the country view")
	flag.Parse()

	if *container == "" {
		flag.Usage()
		os.Exit(1)
	}

	filters := domain.ViewFilters{HomeCountry: *home, ExcludedCountry: *excluded}
	os.Exit(run(*root, *store, *container, *name, filters))
}

func run(root, storeKind, container, name string, filters domain.ViewFilters) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var store domain.Store
	switch storeKind {
	case config.StoreXLSX:
		store = xlsx.NewStore(root, logger)
	case config.StoreSQLite:
		store = sqlite.NewStore(root, logger)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: unknown store %q\n", storeKind)
		return 1
	}

	fmt.Printf("=== Hotspot Dataset Validation: %s/%s (%s) ===\n", container, name, storeKind)

	ds, err := openDataset(ctx, store, container, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer ds.Close()

	layout := domain.DefaultLayout()
	areas, err := ds.Areas(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list areas: %v\n", err)
		return 1
	}
	data, err := ds.ReadArea(ctx, layout.WorkingArea)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", layout.WorkingArea, err)
		return 1
	}

	cols, headerPhase := validateHeader(layout, data)
	phases := []*phase{
		validateAreas(layout, areas),
		headerPhase,
	}
	if cols != nil {
		phases = append(phases,
			validateRows(data[0], data[1:]),
			validateViews(ctx, ds, layout, data[1:], cols, filters),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	rows := 0
	if len(data) > 1 {
		rows = len(data) - 1
	}
	fmt.Printf("\nRows: %d in %s, areas: %v\n", rows, layout.WorkingArea, areas)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// openDataset opens container/name, reporting a missing dataset separately
// from a dataset that exists but cannot be read.
func openDataset(ctx context.Context, store domain.Store, container, name string) (domain.Dataset, error) {
	ok, err := store.Exists(ctx, container, name)
	if err != nil {
		return nil, fmt.Errorf("look up dataset: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("dataset %s/%s: %w", container, name, domain.ErrDatasetNotFound)
	}
	ds, err := store.Open(ctx, container, name)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	return ds, nil
}

// validateAreas checks the dataset holds exactly the working area and views.
func validateAreas(layout domain.Layout, areas []string) *phase {
	p := &phase{name: "Area layout"}
	want := append([]string{layout.WorkingArea}, layout.Views()...)
	for _, a := range want {
		if !slices.Contains(areas, a) {
			p.errorf("missing area %q", a)
		}
	}
	for _, a := range areas {
		if !slices.Contains(want, a) {
			p.errorf("unexpected area %q", a)
		}
	}
	return p
}

// validateHeader checks the working area header and resolves the view columns.
func validateHeader(layout domain.Layout, data [][]string) (domain.ColumnMap, *phase) {
	p := &phase{name: "Working area header"}
	if len(data) == 0 {
		p.errorf("%s is empty", layout.WorkingArea)
		return nil, p
	}
	header := data[0]
	if !slices.Equal(header, domain.Header) {
		p.errorf("header has %d columns, want %d in feed order", len(header), len(domain.Header))
		for i, h := range domain.Header {
			if i >= len(header) || header[i] != h {
				p.errorf("column %s: want %q", domain.ColumnLetter(i), h)
				break
			}
		}
	}
	cols, err := domain.Resolve(layout.WorkingArea, header, domain.MandatoryFields...)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	return cols, p
}

// validateRows checks identifiers are unique and coordinates are numeric.
func validateRows(header []string, rows [][]string) *phase {
	p := &phase{name: "Row integrity"}
	if len(rows) == 0 {
		p.errorf("no data rows")
		return p
	}
	idCol := slices.Index(header, fieldHotspotID)
	coords := map[string]int{
		domain.FieldLatitude:  slices.Index(header, domain.FieldLatitude),
		domain.FieldLongitude: slices.Index(header, domain.FieldLongitude),
	}
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		line := i + 2
		if idCol >= 0 {
			id := cell(r, idCol)
			if id == "" {
				p.errorf("row %d: empty %s", line, fieldHotspotID)
			} else if prev, dup := seen[id]; dup {
				p.errorf("row %d: duplicate %s %s (first at row %d)", line, fieldHotspotID, id, prev)
			} else {
				seen[id] = line
			}
		}
		for f, idx := range coords {
			if idx < 0 {
				continue
			}
			if v := cell(r, idx); v != "" {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					p.errorf("row %d: %s %q is not numeric", line, f, v)
				}
			}
		}
		if len(p.errors) > 50 {
			p.errorf("stopping after %d errors", len(p.errors))
			break
		}
	}
	return p
}

// validateViews recomputes every view in memory and compares it to the
// stored view area.
func validateViews(ctx context.Context, ds domain.Dataset, layout domain.Layout, rows [][]string, cols domain.ColumnMap, filters domain.ViewFilters) *phase {
	p := &phase{name: "View contents"}
	for _, q := range domain.SemanticViews(layout, cols, filters) {
		got, err := ds.ReadArea(ctx, q.Name)
		if err != nil {
			p.errorf("%s: %v", q.Name, err)
			continue
		}
		if len(got) == 0 {
			p.errorf("%s: empty", q.Name)
			continue
		}
		if cell(got[0], 0) != q.KeyLabel || cell(got[0], 1) != q.CountLabel {
			p.errorf("%s: labels %v, want [%s %s]", q.Name, got[0], q.KeyLabel, q.CountLabel)
		}

		want := domain.Aggregate(rows, q)
		body := got[1:]
		if len(body) != len(want) {
			p.errorf("%s: %d groups, want %d", q.Name, len(body), len(want))
			continue
		}
		for i, w := range want {
			n, err := strconv.Atoi(cell(body[i], 1))
			if cell(body[i], 0) != w.Key || err != nil || n != w.Count {
				p.errorf("%s row %d: got %v, want [%s %d]", q.Name, i+2, body[i], w.Key, w.Count)
			}
		}
	}
	return p
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
