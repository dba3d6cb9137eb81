package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/hotspot-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

const clearSheet = "~clear"

// Workbook is an open dataset. Every mutation is saved before it returns.
// A Workbook is not safe for concurrent use.
type Workbook struct {
	f         *excelize.File
	path      string
	name      string
	container string
	logger    *slog.Logger
}

func (w *Workbook) Name() string      { return w.name }
func (w *Workbook) Container() string { return w.container }

// Path returns the file the workbook is saved to.
func (w *Workbook) Path() string { return w.path }

func (w *Workbook) Areas(context.Context) ([]string, error) {
	return w.f.GetSheetList(), nil
}

func (w *Workbook) AddArea(_ context.Context, name string) error {
	if w.has(name) {
		return fmt.Errorf("area %q: %w", name, domain.ErrExists)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("add sheet %q: %w", name, err)
	}
	return w.save()
}

func (w *Workbook) RenameArea(_ context.Context, from, to string) error {
	if !w.has(from) {
		return fmt.Errorf("area %q: %w", from, domain.ErrAreaNotFound)
	}
	if w.has(to) {
		return fmt.Errorf("area %q: %w", to, domain.ErrExists)
	}
	if err := w.f.SetSheetName(from, to); err != nil {
		return fmt.Errorf("rename sheet %q: %w", from, err)
	}
	return w.save()
}

func (w *Workbook) ClearArea(_ context.Context, name string) error {
	if err := w.clear(name); err != nil {
		return err
	}
	return w.save()
}

func (w *Workbook) DeleteArea(_ context.Context, name string) error {
	if !w.has(name) {
		return fmt.Errorf("area %q: %w", name, domain.ErrAreaNotFound)
	}
	if len(w.f.GetSheetList()) == 1 {
		return fmt.Errorf("cannot delete %q, the only sheet", name)
	}
	if err := w.f.DeleteSheet(name); err != nil {
		return fmt.Errorf("delete sheet %q: %w", name, err)
	}
	return w.save()
}

func (w *Workbook) Header(_ context.Context, area string) ([]string, error) {
	if !w.has(area) {
		return nil, fmt.Errorf("area %q: %w", area, domain.ErrAreaNotFound)
	}
	rows, err := w.f.Rows(area)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", area, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Error()
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read header of %q: %w", area, err)
	}
	if len(header) == 0 {
		return nil, nil
	}
	return header, nil
}

// ReadArea returns stored cell values; number formats are not applied.
func (w *Workbook) ReadArea(_ context.Context, area string) ([][]string, error) {
	if !w.has(area) {
		return nil, fmt.Errorf("area %q: %w", area, domain.ErrAreaNotFound)
	}
	rows, err := w.f.GetRows(area, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", area, err)
	}
	return rows, nil
}

// WriteTable replaces the sheet content with a stream write. On any failure
// the in-memory workbook is reloaded from disk, so the file keeps its
// previous content.
func (w *Workbook) WriteTable(_ context.Context, area string, header []string, rows []domain.Row) (err error) {
	if !w.has(area) {
		return fmt.Errorf("area %q: %w", area, domain.ErrAreaNotFound)
	}
	defer func() {
		if err != nil {
			w.rollback()
		}
	}()

	if err := w.clear(area); err != nil {
		return err
	}
	sw, err := w.f.NewStreamWriter(area)
	if err != nil {
		return fmt.Errorf("stream sheet %q: %w", area, err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, r); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %q: %w", area, err)
	}
	return w.saveStreamed()
}

// FormatTable styles the header row, freezes it, and applies the decimal
// number format to the given columns.
func (w *Workbook) FormatTable(ctx context.Context, area string, tf domain.TableFormat) error {
	if !w.has(area) {
		return fmt.Errorf("area %q: %w", area, domain.ErrAreaNotFound)
	}

	if tf.DecimalFormat != "" && len(tf.DecimalColumns) > 0 {
		numFmt := tf.DecimalFormat
		id, err := w.f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return fmt.Errorf("decimal style: %w", err)
		}
		for _, c := range tf.DecimalColumns {
			col, err := excelize.ColumnNumberToName(c + 1)
			if err != nil {
				return err
			}
			if err := w.f.SetColStyle(area, col, id); err != nil {
				return fmt.Errorf("style column %s: %w", col, err)
			}
		}
	}

	header, err := w.Header(ctx, area)
	if err != nil {
		return err
	}
	if len(header) > 0 {
		style := &excelize.Style{Font: &excelize.Font{Bold: tf.HeaderBold}}
		if tf.HeaderFill != "" {
			style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{tf.HeaderFill}}
		}
		id, err := w.f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := w.f.SetCellStyle(area, "A1", last, id); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		if err := w.f.SetPanes(area, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	return w.save()
}

// WriteView evaluates q over the source sheet and replaces the view sheet
// with the result.
func (w *Workbook) WriteView(ctx context.Context, q domain.ViewQuery) (err error) {
	src, err := w.ReadArea(ctx, q.Source)
	if err != nil {
		return err
	}
	var body [][]string
	if len(src) > 1 {
		body = src[1:]
	}
	result := domain.Aggregate(body, q)

	defer func() {
		if err != nil {
			w.rollback()
		}
	}()
	if w.has(q.Name) {
		if err := w.clear(q.Name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(q.Name); err != nil {
		return fmt.Errorf("add sheet %q: %w", q.Name, err)
	}

	sw, err := w.f.NewStreamWriter(q.Name)
	if err != nil {
		return fmt.Errorf("stream sheet %q: %w", q.Name, err)
	}
	if err := sw.SetRow("A1", []any{q.KeyLabel, q.CountLabel}); err != nil {
		return err
	}
	for i, r := range result {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []any{r.Key, r.Count}); err != nil {
			return fmt.Errorf("write view row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet %q: %w", q.Name, err)
	}
	return w.saveStreamed()
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) has(name string) bool {
	return slices.Contains(w.f.GetSheetList(), name)
}

// clear empties a sheet in memory by swapping in a fresh one under the same
// name. The sheet moves to the end of the sheet order.
func (w *Workbook) clear(name string) error {
	if !w.has(name) {
		return fmt.Errorf("area %q: %w", name, domain.ErrAreaNotFound)
	}
	if _, err := w.f.NewSheet(clearSheet); err != nil {
		return fmt.Errorf("clear sheet %q: %w", name, err)
	}
	if err := w.f.DeleteSheet(name); err != nil {
		return fmt.Errorf("clear sheet %q: %w", name, err)
	}
	if err := w.f.SetSheetName(clearSheet, name); err != nil {
		return fmt.Errorf("clear sheet %q: %w", name, err)
	}
	return nil
}

// save writes the workbook to a temporary sibling file and renames it over
// the dataset file.
func (w *Workbook) save() error {
	tmp := filepath.Join(filepath.Dir(w.path), "."+filepath.Base(w.path)+".tmp"+ext)
	if err := w.f.SaveAs(tmp); err != nil {
		os.Remove(tmp) //nolint:errcheck // best effort
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// saveStreamed saves after a stream write and reopens the file. A flushed
// stream replaces the sheet XML on every later save, so styles or panes set
// on the same in-memory workbook would be lost.
func (w *Workbook) saveStreamed() error {
	if err := w.save(); err != nil {
		return err
	}
	if err := w.reload(); err != nil {
		return fmt.Errorf("reopen workbook: %w", err)
	}
	return nil
}

func (w *Workbook) reload() error {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return err
	}
	w.f.Close()
	w.f = f
	return nil
}

func (w *Workbook) rollback() {
	if err := w.reload(); err != nil {
		w.logger.Error("reload workbook after failed write", "path", w.path, "error", err)
	}
}
