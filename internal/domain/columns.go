package domain

import (
	"fmt"
	"strings"
)

// Column locates a named field in an area header.
type Column struct {
	Name   string
	Index  int    // zero-based position
	Letter string // spreadsheet-style code, e.g. "A", "AA"
}

// ColumnMap maps a semantic field name to its location.
type ColumnMap map[string]Column

// ColumnLetter converts a zero-based column index to its base-26 letter code
// (0 -> "A", 25 -> "Z", 26 -> "AA"). Negative indexes yield "".
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var b []byte
	for index >= 0 {
		b = append(b, byte('A'+index%26))
		index = index/26 - 1
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ColumnIndex is the inverse of ColumnLetter.
func ColumnIndex(letter string) (int, error) {
	letter = strings.ToUpper(strings.TrimSpace(letter))
	if letter == "" {
		return 0, fmt.Errorf("column letter is empty")
	}
	n := 0
	for _, r := range letter {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column letter %q", letter)
		}
		n = n*26 + int(r-'A') + 1
	}
	return n - 1, nil
}

// Resolve finds each named field in header. All names must be present;
// otherwise a *SchemaError listing every missing name is returned.
func Resolve(area string, header []string, names ...string) (ColumnMap, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	cols := make(ColumnMap, len(names))
	var missing []string
	for _, name := range names {
		i, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = Column{Name: name, Index: i, Letter: ColumnLetter(i)}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Area: area, Missing: missing}
	}
	return cols, nil
}
