// Package verdict defines the outcome of classifying one attendance selfie.
package verdict

import "fmt"

// Reason explains why a selfie was judged fake or genuine.
type Reason int

const (
	LiveImage Reason = iota
	InvalidURL
	DownloadFailed
	DecodeFailed
	BlurryImage
	GlareDetected
	ScreenDetected
	ProcessingError
)

var reasonNames = map[Reason]string{
	LiveImage:       "LiveImage",
	InvalidURL:      "InvalidURL",
	DownloadFailed:  "DownloadFailed",
	DecodeFailed:    "DecodeFailed",
	BlurryImage:     "BlurryImage",
	GlareDetected:   "GlareDetected",
	ScreenDetected:  "ScreenDetected",
	ProcessingError: "ProcessingError",
}

var reasonLabels = map[Reason]string{
	LiveImage:       "Live Image",
	InvalidURL:      "Invalid URL",
	DownloadFailed:  "Image Download Failed",
	DecodeFailed:    "Unable to Decode Image",
	BlurryImage:     "Blurry Image",
	GlareDetected:   "Screen Glare Detected",
	ScreenDetected:  "Screen Detected",
	ProcessingError: "Processing Error",
}

// String returns the identifier used in JSON and the audit store.
func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Label returns the human readable reason without per-record detail.
func (r Reason) Label() string {
	if s, ok := reasonLabels[r]; ok {
		return s
	}
	return r.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Verdict is the classification of a single record.
type Verdict struct {
	Fake       bool    `json:"is_fake"`
	Reason     Reason  `json:"reason"`
	Detail     string  `json:"detail,omitempty"`
	Confidence float64 `json:"confidence,omitempty"` // oracle confidence, set for ScreenDetected
	BlurScore  float64 `json:"blur_score,omitempty"`
	Brightness float64 `json:"brightness,omitempty"`
}

// String formats the verdict the way it appears in reports and logs,
// e.g. "Blurry Image" or "Processing Error: timeout".
func (v Verdict) String() string {
	switch {
	case v.Reason == ScreenDetected:
		return fmt.Sprintf("%s (confidence %.2f)", v.Reason.Label(), v.Confidence)
	case v.Detail != "":
		return v.Reason.Label() + ": " + v.Detail
	default:
		return v.Reason.Label()
	}
}

// Live returns a genuine verdict carrying the measured metrics.
func Live(blur, brightness float64) Verdict {
	return Verdict{Reason: LiveImage, BlurScore: blur, Brightness: brightness}
}

// Failed returns a non-fake verdict for a record that could not be assessed.
func Failed(reason Reason, err error) Verdict {
	v := Verdict{Reason: reason}
	if reason == ProcessingError && err != nil {
		v.Detail = err.Error()
	}
	return v
}
