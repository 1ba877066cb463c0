// Package attendance binds check-in spreadsheets to typed records and runs
// every record's selfie through the fake-image detector.
package attendance

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/attendance-check/internal/config"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

// Schema maps header spellings to canonical column names.
type Schema struct {
	columns []string
	lookup  map[string]string // normalized header -> canonical name
}

// NewSchema builds a schema from column specs. Each canonical name always
// matches itself in addition to its aliases.
func NewSchema(specs []config.ColumnSpec) *Schema {
	s := &Schema{lookup: make(map[string]string)}
	for _, col := range specs {
		s.columns = append(s.columns, col.Name)
		s.lookup[normalizeHeader(col.Name)] = col.Name
		for _, alias := range col.Aliases {
			key := normalizeHeader(alias)
			if _, taken := s.lookup[key]; !taken {
				s.lookup[key] = col.Name
			}
		}
	}
	return s
}

// DefaultSchema returns the schema embedded in the configuration defaults.
func DefaultSchema() *Schema {
	return NewSchema(config.DefaultColumns())
}

// Columns returns the canonical column names in declaration order.
func (s *Schema) Columns() []string {
	return s.columns
}

// Match resolves a raw header cell to its canonical column.
func (s *Schema) Match(header string) (string, bool) {
	name, ok := s.lookup[normalizeHeader(header)]
	return name, ok
}

var folder = cases.Fold()

// normalizeHeader applies NFC, collapses whitespace and folds case.
func normalizeHeader(h string) string {
	h = norm.NFC.String(h)
	h = strings.Join(strings.Fields(h), " ")
	return folder.String(h)
}

// MissingColumnsError lists canonical columns absent from a header row.
type MissingColumnsError struct {
	Missing []string
	Header  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns missing: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

// Binding is a table whose header has been resolved against a schema.
type Binding struct {
	table *sheet.Table
	index map[string]int
}

// Bind resolves the table header. Every column in required must be present,
// otherwise a *MissingColumnsError is returned.
func Bind(table *sheet.Table, schema *Schema, required ...string) (*Binding, error) {
	index := make(map[string]int)
	for i, h := range table.Header {
		name, ok := schema.Match(h)
		if !ok {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Header: table.Header}
	}

	return &Binding{table: table, index: index}, nil
}

// Has reports whether the canonical column is present.
func (b *Binding) Has(column string) bool {
	_, ok := b.index[column]
	return ok
}

// Value returns the trimmed cell of a canonical column, or "" when the
// column is absent.
func (b *Binding) Value(row []string, column string) string {
	i, ok := b.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Header returns the original header row.
func (b *Binding) Header() []string {
	return b.table.Header
}

// Record is one attendance check-in.
type Record struct {
	Line      int // spreadsheet row, the header is row 1
	RiderID   string
	RiderName string
	ImageURL  string
	Phone     string
	TeamName  string
	Cells     []string // the original row, aligned to Binding.Header
}

// Records returns one record per data row, in file order.
func (b *Binding) Records() []Record {
	records := make([]Record, 0, len(b.table.Rows))
	for i, row := range b.table.Rows {
		line := i + 2
		if i < len(b.table.Lines) {
			line = b.table.Lines[i]
		}
		records = append(records, Record{
			Line:      line,
			RiderID:   b.Value(row, constants.ColumnRiderID),
			RiderName: b.Value(row, constants.ColumnRiderName),
			ImageURL:  b.Value(row, constants.ColumnImageURL),
			Phone:     b.Value(row, constants.ColumnPhone),
			TeamName:  b.Value(row, constants.ColumnTeamName),
			Cells:     row,
		})
	}
	return records
}
