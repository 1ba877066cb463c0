package lookup

import (
	"cmp"
	"context"
	"slices"

	"github.com/kozaktomas/attendance-check/internal/attendance"
	"github.com/kozaktomas/attendance-check/internal/constants"
	"github.com/kozaktomas/attendance-check/internal/sheet"
)

// offenderColumns must all be present and non-empty for a row to count.
var offenderColumns = []string{
	constants.ColumnRiderID,
	constants.ColumnRiderName,
	constants.ColumnPhone,
	constants.ColumnTeamName,
}

// TeamTotal is the summed appearance count of a team's riders.
type TeamTotal struct {
	Team  string
	Total int
}

// TopRider is one rider with the number of files they appear in. Name,
// phone and team come from the first row seen for the rider.
type TopRider struct {
	RiderID   string
	RiderName string
	Phone     string
	TeamName  string
	Count     int
}

// teamRow is one counted appearance and the team it was listed under.
type teamRow struct {
	riderID string
	team    string
}

// Aggregation is the offender report data.
type Aggregation struct {
	Teams  []TeamTotal // total desc, then name
	Riders []TopRider  // count desc, then rider ID
}

// Aggregate counts rider appearances across files. A rider listed more than
// once in one file counts once for it. Every counted row then adds its
// rider's total to the team named on that row, so a rider who moved teams
// contributes to each of them. Files missing any of the offender columns are
// reported as errors and skipped.
func Aggregate(ctx context.Context, files []string, schema *attendance.Schema) (*Aggregation, []FileError) {
	riders := make(map[string]*TopRider)
	var order []string
	var rows []teamRow
	var errs []FileError

	for _, path := range files {
		if ctx.Err() != nil {
			errs = append(errs, FileError{Path: path, Err: ctx.Err()})
			break
		}

		records, err := offenderRecords(path, schema)
		if err != nil {
			errs = append(errs, FileError{Path: path, Err: err})
			continue
		}

		seen := make(map[string]bool)
		for _, rec := range records {
			r, ok := riders[rec.RiderID]
			if !ok {
				r = &TopRider{
					RiderID:   rec.RiderID,
					RiderName: rec.RiderName,
					Phone:     rec.Phone,
					TeamName:  rec.TeamName,
				}
				riders[rec.RiderID] = r
				order = append(order, rec.RiderID)
			}
			if !seen[rec.RiderID] {
				seen[rec.RiderID] = true
				r.Count++
				rows = append(rows, teamRow{riderID: rec.RiderID, team: rec.TeamName})
			}
		}
	}

	agg := &Aggregation{Riders: make([]TopRider, 0, len(order))}
	for _, id := range order {
		agg.Riders = append(agg.Riders, *riders[id])
	}

	teams := make(map[string]int)
	for _, row := range rows {
		teams[row.team] += riders[row.riderID].Count
	}

	slices.SortFunc(agg.Riders, func(a, b TopRider) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.RiderID, b.RiderID)
	})

	for team, total := range teams {
		agg.Teams = append(agg.Teams, TeamTotal{Team: team, Total: total})
	}
	slices.SortFunc(agg.Teams, func(a, b TeamTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})

	return agg, errs
}

// offenderRecords returns rows with every offender column filled.
func offenderRecords(path string, schema *attendance.Schema) ([]attendance.Record, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, err
	}
	binding, err := attendance.Bind(table, schema, offenderColumns...)
	if err != nil {
		return nil, err
	}

	var out []attendance.Record
	for _, rec := range binding.Records() {
		if rec.RiderID == "" || rec.RiderName == "" || rec.Phone == "" || rec.TeamName == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
