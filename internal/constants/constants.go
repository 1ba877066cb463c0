// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Canonical column names
const (
	ColumnRiderID    = "Rider ID"
	ColumnRiderName  = "Rider Name"
	ColumnImageURL   = "Image URL"
	ColumnPhone      = "Phone"
	ColumnTeamName   = "Team Name"
	ColumnReason     = "Detection Reason"
	ColumnTotalCount = "Rider - total count"
)

// Output naming constants
const (
	// DateLayout is the date format used in every output folder and file name
	DateLayout = "2006-01-02"

	// ReportDirPrefix is the folder prefix for fake attendance reports
	ReportDirPrefix = "fake_attendance_"

	// ReportFilePrefix is the spreadsheet prefix inside a report folder
	ReportFilePrefix = "fake_rider_attendance_"

	// LogFilePrefix is the per-row detection log prefix
	LogFilePrefix = "detection_log_"

	// SummaryFilePrefix is the markdown run summary prefix
	SummaryFilePrefix = "summary_"

	// ImageDirPrefix is the folder prefix for downloaded selfies
	ImageDirPrefix = "fake_attendance_image_"

	// OffenderDirPrefix is the folder prefix for team offender reports
	OffenderDirPrefix = "Fake_offender_data_"

	// LookupFileName is the spreadsheet written by the rider lookup
	LookupFileName = "rider_block_summary.xlsx"

	// TeamChartFileName is the team appearance chart saved next to the offender report
	TeamChartFileName = "team_rider_appearance_graph.png"

	// LockFilePrefix marks Office lock files that are skipped when scanning folders
	LockFilePrefix = "~$"
)

// Chart constants
const (
	// ChartCell is the top-left cell where charts are embedded in spreadsheets
	ChartCell = "G2"

	// ChartWidth and ChartHeight are the embedded chart dimensions in pixels
	ChartWidth  = 800
	ChartHeight = 400
)

// Duplicate detection constants
const (
	// DuplicateHashDistance is the maximum pHash Hamming distance for two
	// selfies to be reported as the same photo
	DuplicateHashDistance = 10
)

// Processing constants
const (
	// MaxOracleImageSize is the maximum dimension (width or height) of images sent to the oracle
	MaxOracleImageSize = 800

	// ProgressInterval is how many rows are processed between progress log lines
	ProgressInterval = 100
)
