package install

import (
	"fmt"
	"sort"
	"time"
)

// Outcome is the terminal classification of one device
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// Skip reasons
const (
	ReasonNoFirmware = "no firmware mapped"
	ReasonNoPosition = "device has no position"
)

// Result is the outcome of one device in a run
type Result struct {
	// Index is the device's place in the enumerated list; it identifies
	// the device even when the endpoint reports no position
	Index int `json:"index"`

	// Position is nil when the endpoint gave none
	Position *int `json:"position"`

	Outcome Outcome `json:"outcome"`

	// Status is the upload's HTTP status, 0 when no response was received
	Status int `json:"status,omitempty"`

	// Detail explains skipped and error outcomes
	Detail string `json:"detail,omitempty"`

	// Firmware is the package path, empty when none was resolved
	Firmware string `json:"firmware,omitempty"`

	// Size and Digest describe the payload that was read, if any
	Size   int    `json:"size,omitempty"`
	Digest string `json:"blake3,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Device returns the device identity shown in reports
func (r Result) Device() string {
	if r.Position == nil {
		return fmt.Sprintf("#%d", r.Index)
	}
	return fmt.Sprintf("%d", *r.Position)
}

// String formats the result the way the console summary prints it
func (r Result) String() string {
	if r.Outcome == OutcomeOK {
		return fmt.Sprintf("%s: %s", r.Device(), r.Outcome)
	}
	return fmt.Sprintf("%s: %s - %s", r.Device(), r.Outcome, r.Detail)
}

// errorDetail formats an upload failure as "<status> - <body>"
func errorDetail(status int, body string) string {
	if body == "" {
		return fmt.Sprintf("%d", status)
	}
	return fmt.Sprintf("%d - %s", status, body)
}

// Counts tallies results by outcome
type Counts struct {
	OK      int `json:"ok"`
	Skipped int `json:"skipped"`
	Error   int `json:"error"`
}

// Total returns the number of results counted
func (c Counts) Total() int {
	return c.OK + c.Skipped + c.Error
}

// Report is the product of one run
type Report struct {
	BaseURL  string    `json:"base_url,omitempty"`
	State    State     `json:"state"`
	Results  []Result  `json:"results"`
	Err      error     `json:"-"`
	Fatal    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Counts tallies the report's results
func (r *Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch res.Outcome {
		case OutcomeOK:
			c.OK++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeError:
			c.Error++
		}
	}
	return c
}

// Succeeded reports whether the run finished with no errors of any kind
func (r *Report) Succeeded() bool {
	return r.Err == nil && r.State == StateDone && r.Counts().Error == 0
}

// Duration returns the run's wall-clock time
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Sorted returns the results ordered by position, devices without a
// position last in enumeration order. The report itself is not changed.
func (r *Report) Sorted() []Result {
	out := make([]Result, len(r.Results))
	copy(out, r.Results)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Position == nil && b.Position == nil:
			return a.Index < b.Index
		case a.Position == nil:
			return false
		case b.Position == nil:
			return true
		case *a.Position != *b.Position:
			return *a.Position < *b.Position
		default:
			return a.Index < b.Index
		}
	})
	return out
}
