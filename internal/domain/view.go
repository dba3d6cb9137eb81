package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a comparison used in a view filter.
type Op int

const (
	OpNotNull Op = iota
	OpEqual
	OpNotEqual
)

// Condition is one conjunct of a view filter. Null cells never satisfy
// OpEqual or OpNotEqual.
type Condition struct {
	Column Column
	Op     Op
	Value  string
}

// NotNull matches non-empty cells.
func NotNull(c Column) Condition { return Condition{Column: c, Op: OpNotNull} }

// Equal matches cells equal to v.
func Equal(c Column, v string) Condition { return Condition{Column: c, Op: OpEqual, Value: v} }

// NotEqual matches non-null cells different from v.
func NotEqual(c Column, v string) Condition { return Condition{Column: c, Op: OpNotEqual, Value: v} }

func (c Condition) match(row []string) bool {
	cell := cellAt(row, c.Column.Index)
	switch c.Op {
	case OpNotNull:
		return cell != ""
	case OpEqual:
		return cell != "" && cell == c.Value
	case OpNotEqual:
		return cell != "" && cell != c.Value
	default:
		return false
	}
}

// ViewQuery declares a group-by-count view over a source area: rows matching
// every condition in Where are grouped by GroupBy and counted. Output is
// ordered by count descending, then key ascending, under the two labels.
type ViewQuery struct {
	Name       string
	Source     string
	GroupBy    Column
	Where      []Condition
	KeyLabel   string
	CountLabel string
}

// AggregateRow is one output row of a view.
type AggregateRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Aggregate evaluates q over data rows (header excluded) held as cell text.
func Aggregate(rows [][]string, q ViewQuery) []AggregateRow {
	counts := make(map[string]int)
	for _, row := range rows {
		if !q.matches(row) {
			continue
		}
		key := cellAt(row, q.GroupBy.Index)
		if key == "" {
			continue
		}
		counts[key]++
	}

	out := make([]AggregateRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, AggregateRow{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (q ViewQuery) matches(row []string) bool {
	for _, c := range q.Where {
		if !c.match(row) {
			return false
		}
	}
	return true
}

// String renders the query in spreadsheet QUERY language.
func (q ViewQuery) String() string {
	g := q.GroupBy.Letter
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s, COUNT(%s)", g, g)
	for i, c := range q.Where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		switch c.Op {
		case OpNotNull:
			fmt.Fprintf(&b, "%s IS NOT NULL", c.Column.Letter)
		case OpEqual:
			fmt.Fprintf(&b, "%s = %s", c.Column.Letter, quoteLiteral(c.Value))
		case OpNotEqual:
			fmt.Fprintf(&b, "%s != %s", c.Column.Letter, quoteLiteral(c.Value))
		}
	}
	fmt.Fprintf(&b, " GROUP BY %s ORDER BY COUNT(%s) DESC LABEL %s %s, COUNT(%s) %s",
		g, g, g, quoteLiteral(q.KeyLabel), g, quoteLiteral(q.CountLabel))
	return b.String()
}

// Formula wraps String in a QUERY formula over an unbounded column range of
// the source area, so it stays valid whatever the row count.
func (q ViewQuery) Formula() string {
	return fmt.Sprintf(`=QUERY('%s'!A:ZZ, "%s", 1)`, q.Source, q.String())
}

// ViewFilters holds the country values the views filter on.
type ViewFilters struct {
	HomeCountry     string
	ExcludedCountry string
}

// SemanticViews builds the country, province and land-use views over the
// working area from resolved columns.
func SemanticViews(layout Layout, cols ColumnMap, f ViewFilters) []ViewQuery {
	country := cols[FieldCountry]
	province := cols[FieldProvince]
	landUse := cols[FieldLandUse]

	return []ViewQuery{
		{
			Name:       layout.CountryView,
			Source:     layout.WorkingArea,
			GroupBy:    country,
			Where:      []Condition{NotNull(country), NotEqual(country, f.ExcludedCountry)},
			KeyLabel:   "Country",
			CountLabel: "Hotspots",
		},
		{
			Name:       layout.ProvinceView,
			Source:     layout.WorkingArea,
			GroupBy:    province,
			Where:      []Condition{Equal(country, f.HomeCountry), NotNull(province)},
			KeyLabel:   "Province (TH)",
			CountLabel: "Hotspots",
		},
		{
			Name:       layout.LandUseView,
			Source:     layout.WorkingArea,
			GroupBy:    landUse,
			Where:      []Condition{Equal(country, f.HomeCountry), NotNull(landUse)},
			KeyLabel:   "Land Use",
			CountLabel: "Hotspots",
		},
	}
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
