package attendance

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

func TestSchema_Match(t *testing.T) {
	schema := DefaultSchema()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Rider ID", constants.ColumnRiderID, true},
		{"Rider → Rider ID", constants.ColumnRiderID, true},
		{"Rider -> Rider ID", constants.ColumnRiderID, true},
		{"  rider   id ", constants.ColumnRiderID, true},
		{"RIDER → RIDER NAME", constants.ColumnRiderName, true},
		{"Image URL", constants.ColumnImageURL, true},
		{"Rider → Team Name", constants.ColumnTeamName, true},
		{"Rider → Phone", constants.ColumnPhone, true},
		{"Check-in Time", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := schema.Match(tt.header)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Match(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeHeader_NFC(t *testing.T) {
	// "é" composed vs decomposed
	if normalizeHeader("Caf\u00e9") != normalizeHeader("Cafe\u0301") {
		t.Error("expected composed and decomposed forms to normalize equally")
	}
}

func TestBind_MissingColumns(t *testing.T) {
	table := &sheet.Table{Header: []string{"Rider → Rider ID", "Selfie"}}

	_, err := Bind(table, DefaultSchema(), constants.ColumnRiderID, constants.ColumnRiderName, constants.ColumnImageURL)

	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	want := []string{constants.ColumnRiderName, constants.ColumnImageURL}
	if !reflect.DeepEqual(missing.Missing, want) {
		t.Errorf("expected missing %v, got %v", want, missing.Missing)
	}
}

func TestBind_Records(t *testing.T) {
	table := &sheet.Table{
		Header: []string{"Date", "Rider → Rider ID", "Rider → Rider Name", "Image URL"},
		Rows: [][]string{
			{"2024-01-01", " 101 ", "Alice", "https://example.com/a.jpg"},
			{"2024-01-01", "102", "Bob", ""},
		},
	}

	b, err := Bind(table, DefaultSchema(), constants.ColumnRiderID, constants.ColumnRiderName, constants.ColumnImageURL)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if b.Has(constants.ColumnTeamName) {
		t.Error("expected Team Name to be absent")
	}

	records := b.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.RiderID != "101" || first.RiderName != "Alice" || first.ImageURL != "https://example.com/a.jpg" {
		t.Errorf("unexpected first record %+v", first)
	}
	if first.Line != 2 || records[1].Line != 3 {
		t.Errorf("expected lines 2 and 3, got %d and %d", first.Line, records[1].Line)
	}
	if !reflect.DeepEqual(first.Cells, table.Rows[0]) {
		t.Errorf("expected original cells to pass through, got %v", first.Cells)
	}
	if records[1].ImageURL != "" || records[1].TeamName != "" {
		t.Errorf("expected empty values, got %+v", records[1])
	}
}

func TestBind_FirstMatchingHeaderWins(t *testing.T) {
	table := &sheet.Table{
		Header: []string{"Rider ID", "Rider → Rider ID"},
		Rows:   [][]string{{"1", "2"}},
	}
	b, err := Bind(table, DefaultSchema(), constants.ColumnRiderID)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if got := b.Records()[0].RiderID; got != "1" {
		t.Errorf("expected first column to win, got %q", got)
	}
}

func TestBind_RecordsKeepFileLinesAfterBlankRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.csv")
	content := "Rider ID,Rider Name,Image URL\n" +
		"101,Alice,https://example.com/a.jpg\n" +
		"\n" +
		",,\n" +
		"102,Bob,https://example.com/b.jpg\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	table, err := sheet.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	b, err := Bind(table, DefaultSchema(), constants.ColumnRiderID)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	records := b.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Line != 2 || records[1].Line != 5 {
		t.Errorf("expected lines 2 and 5, got %d and %d", records[0].Line, records[1].Line)
	}
	if records[1].RiderID != "102" {
		t.Errorf("expected rider 102 on line 5, got %q", records[1].RiderID)
	}
}
