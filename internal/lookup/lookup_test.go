package lookup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const offenderHeaderCSV = "Rider ID,Rider → Rider Name,Rider → Phone,Rider → Team Name\n"

// setupTree creates two dated folders of blocked riders.
func setupTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeCSV(t, filepath.Join(root, "2024-01-02", "blocked.csv"), offenderHeaderCSV+
		"101,Alice,555-1,North\n"+
		"101,Alice,555-1,North\n"+
		"102,Bob,555-2,South\n"+
		"103,Carol,,South\n")
	writeCSV(t, filepath.Join(root, "2024-01-01", "blocked.csv"), offenderHeaderCSV+
		"101,Alice,555-1,North\n"+
		"104,Dan,555-4,East\n")
	writeCSV(t, filepath.Join(root, "2024-01-01", "~$blocked.csv"), "lock")
	writeCSV(t, filepath.Join(root, "2024-01-01", "notes.txt"), "ignore me")
	writeCSV(t, filepath.Join(root, "Fake_offender_data_2024-01-03", "old.csv"), offenderHeaderCSV+"101,Alice,555-1,North\n")
	return root
}

func TestFindFiles(t *testing.T) {
	root := setupTree(t)

	files, err := FindFiles(root)
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}
	want := []string{
		filepath.Join(root, "2024-01-01", "blocked.csv"),
		filepath.Join(root, "2024-01-02", "blocked.csv"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}
}

func TestFindRiders(t *testing.T) {
	root := setupTree(t)
	writeCSV(t, filepath.Join(root, "2024-01-03", "other.csv"), "Name\nx\n")
	files, err := FindFiles(root)
	if err != nil {
		t.Fatal(err)
	}

	summaries, errs := FindRiders(context.Background(), files, []string{"101", " 104 ", "999", "101"}, attendance.DefaultSchema())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}

	want := []RiderSummary{
		{RiderID: "101", Folders: []string{"2024-01-01", "2024-01-02"}, Count: 2},
		{RiderID: "104", Folders: []string{"2024-01-01"}, Count: 1},
		{RiderID: "999", Folders: []string{}, Count: 0},
	}
	if len(summaries) != len(want) {
		t.Fatalf("expected %d summaries, got %d", len(want), len(summaries))
	}
	for i := range want {
		got := summaries[i]
		if got.RiderID != want[i].RiderID || got.Count != want[i].Count || strings.Join(got.Folders, ",") != strings.Join(want[i].Folders, ",") {
			t.Errorf("summary %d: expected %+v, got %+v", i, want[i], got)
		}
	}
}

func TestFindRiders_UnreadableFile(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "d", "broken.xlsx")
	writeCSV(t, bad, "this is not a zip archive")

	_, errs := FindRiders(context.Background(), []string{bad}, []string{"1"}, attendance.DefaultSchema())
	if len(errs) != 1 || errs[0].Path != bad {
		t.Fatalf("expected one error for %s, got %v", bad, errs)
	}
}

func TestAggregate(t *testing.T) {
	root := setupTree(t)
	files, err := FindFiles(root)
	if err != nil {
		t.Fatal(err)
	}

	agg, errs := Aggregate(context.Background(), files, attendance.DefaultSchema())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}

	wantRiders := []TopRider{
		{RiderID: "101", RiderName: "Alice", Phone: "555-1", TeamName: "North", Count: 2},
		{RiderID: "102", RiderName: "Bob", Phone: "555-2", TeamName: "South", Count: 1},
		{RiderID: "104", RiderName: "Dan", Phone: "555-4", TeamName: "East", Count: 1},
	}
	if !reflect.DeepEqual(agg.Riders, wantRiders) {
		t.Errorf("expected riders %+v, got %+v", wantRiders, agg.Riders)
	}

	wantTeams := []TeamTotal{{"North", 4}, {"East", 1}, {"South", 1}}
	if !reflect.DeepEqual(agg.Teams, wantTeams) {
		t.Errorf("expected teams %+v, got %+v", wantTeams, agg.Teams)
	}
}

func TestAggregate_RiderChangesTeam(t *testing.T) {
	root := t.TempDir()
	writeCSV(t, filepath.Join(root, "d1", "blocked.csv"), offenderHeaderCSV+
		"101,Alice,555-1,North\n"+
		"102,Bob,555-2,South\n")
	writeCSV(t, filepath.Join(root, "d2", "blocked.csv"), offenderHeaderCSV+
		"101,Alice,555-1,North\n")
	writeCSV(t, filepath.Join(root, "d3", "blocked.csv"), offenderHeaderCSV+
		"101,Alice,555-1,East\n")

	files, err := FindFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	agg, errs := Aggregate(context.Background(), files, attendance.DefaultSchema())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors %v", errs)
	}

	wantTeams := []TeamTotal{{"North", 6}, {"East", 3}, {"South", 1}}
	if !reflect.DeepEqual(agg.Teams, wantTeams) {
		t.Errorf("expected teams %+v, got %+v", wantTeams, agg.Teams)
	}
	if len(agg.Riders) != 2 || agg.Riders[0].RiderID != "101" || agg.Riders[0].Count != 3 {
		t.Errorf("expected rider 101 first with 3 appearances, got %+v", agg.Riders)
	}
}

func TestAggregate_MissingColumns(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "d", "partial.csv")
	writeCSV(t, path, "Rider ID,Rider → Rider Name\n1,A\n")

	agg, errs := Aggregate(context.Background(), []string{path}, attendance.DefaultSchema())
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %v", errs)
	}
	var missing *attendance.MissingColumnsError
	if !errors.As(errs[0], &missing) {
		t.Errorf("expected MissingColumnsError, got %v", errs[0])
	}
	if len(agg.Riders) != 0 || len(agg.Teams) != 0 {
		t.Errorf("expected empty aggregation, got %+v", agg)
	}
}

func TestSaveRiderSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rider_block_summary.xlsx")
	summaries := []RiderSummary{{RiderID: "101", Folders: []string{"2024-01-01", "2024-01-02"}, Count: 2}}

	if err := SaveRiderSummary(path, summaries); err != nil {
		t.Fatalf("SaveRiderSummary failed: %v", err)
	}
	table, err := sheet.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(table.Header, []string{"Rider_ID", "Dates", "Total Count"}) {
		t.Errorf("unexpected header %v", table.Header)
	}
	if !reflect.DeepEqual(table.Rows[0], []string{"101", "2024-01-01, 2024-01-02", "2"}) {
		t.Errorf("unexpected row %v", table.Rows[0])
	}

	var buf bytes.Buffer
	if err := PrintRiderSummary(&buf, summaries); err != nil {
		t.Fatalf("PrintRiderSummary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Rider_ID") || !strings.Contains(buf.String(), "2024-01-01, 2024-01-02") {
		t.Errorf("unexpected markdown:\n%s", buf.String())
	}
}

func TestSaveOffenders(t *testing.T) {
	root := t.TempDir()
	agg := &Aggregation{
		Teams:  []TeamTotal{{"North", 2}, {"South", 1}},
		Riders: []TopRider{{RiderID: "101", RiderName: "Alice", Phone: "555-1", TeamName: "North", Count: 2}},
	}

	first, err := SaveOffenders(root, "2024-01-01", agg)
	if err != nil {
		t.Fatalf("SaveOffenders failed: %v", err)
	}
	second, err := SaveOffenders(root, "2024-01-01", agg)
	if err != nil {
		t.Fatalf("SaveOffenders failed: %v", err)
	}

	if filepath.Base(first.ReportPath) != "Fake_offender_data_2024-01-01.xlsx" {
		t.Errorf("unexpected report name %s", first.ReportPath)
	}
	if filepath.Base(second.ReportPath) != "Fake_offender_data_2024-01-01-1.xlsx" {
		t.Errorf("unexpected second report name %s", second.ReportPath)
	}
	if _, err := os.Stat(first.ChartPath); err != nil {
		t.Errorf("expected chart file: %v", err)
	}

	table, err := sheet.Read(first.ReportPath)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Rider ID", "Rider Name", "Phone", "Team Name", "Rider - total count"}
	if !reflect.DeepEqual(table.Header, want) {
		t.Errorf("expected header %v, got %v", want, table.Header)
	}
	if table.Rows[0][4] != "2" {
		t.Errorf("expected count 2, got %q", table.Rows[0][4])
	}
}
