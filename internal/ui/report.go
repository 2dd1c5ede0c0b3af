package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/fwfleet/internal/install"
	"github.com/muurk/fwfleet/internal/mmapi"
)

// Format selects how a report is printed
type Format string

const (
	FormatDetailed Format = "detailed"
	FormatCompact  Format = "compact"
	FormatJSON     Format = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDetailed, FormatCompact, FormatJSON:
		return f, nil
	case "":
		return FormatDetailed, nil
	default:
		return "", fmt.Errorf("unknown format %q (want detailed, compact or json)", s)
	}
}

// WriteReport prints a report in the given format
func WriteReport(w io.Writer, report *install.Report, format Format, width int) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	var out string
	if format == FormatCompact {
		out = RenderCompact(report)
	} else {
		out = RenderDetailed(report, width)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// RenderCompact renders one "position: outcome" line per device followed
// by the totals.
func RenderCompact(report *install.Report) string {
	if report.Err != nil {
		return "failed: " + report.Err.Error()
	}

	var lines []string
	for _, r := range report.Sorted() {
		lines = append(lines, r.String())
	}
	c := report.Counts()
	lines = append(lines, fmt.Sprintf("ok: %d, skipped: %d, error: %d", c.OK, c.Skipped, c.Error))
	return strings.Join(lines, "\n")
}

// RenderDetailed renders the results table and a summary box
func RenderDetailed(report *install.Report, width int) string {
	width = clampWidth(width)

	if report.Err != nil {
		return NewFailureResult("Installation aborted", report.Err, mmapi.TroubleshootingHints(report.Err)).
			SetWidth(width).
			Render()
	}

	var b strings.Builder
	if len(report.Results) > 0 {
		b.WriteString(renderTable(report.Sorted()))
		b.WriteString("\n\n")
	}
	b.WriteString(summaryBox(report, width).Render())
	return b.String()
}

func renderTable(results []install.Result) string {
	lines := []string{
		TableHeaderStyle.Render(fmt.Sprintf("  %-9s %-10s %-7s %-28s %-8s %s", "DEVICE", "OUTCOME", "STATUS", "FIRMWARE", "TIME", "DETAIL")),
	}
	for _, r := range results {
		lines = append(lines, renderRow(r))
	}
	return strings.Join(lines, "\n")
}

func renderRow(r install.Result) string {
	status := "-"
	if r.Status != 0 {
		status = fmt.Sprintf("%d", r.Status)
	}
	firmware := r.Firmware
	if firmware == "" {
		firmware = "-"
	}

	outcome := fmt.Sprintf("%-10s", marker(r.Outcome)+" "+string(r.Outcome))
	row := fmt.Sprintf("  %-9s %s %-7s %-28s %-8s %s",
		r.Device(),
		outcomeStyle(r.Outcome).Render(outcome),
		status,
		truncateMiddle(firmware, 28),
		formatElapsed(r.Elapsed),
		r.Detail,
	)
	return strings.TrimRight(row, " ")
}

func summaryBox(report *install.Report, width int) *Result {
	c := report.Counts()
	details := []Param{
		{Key: "Devices", Value: fmt.Sprintf("%d", c.Total())},
		{Key: "Installed", Value: fmt.Sprintf("%d", c.OK)},
		{Key: "Skipped", Value: fmt.Sprintf("%d", c.Skipped)},
		{Key: "Failed", Value: fmt.Sprintf("%d", c.Error)},
		{Key: "Duration", Value: report.Duration().Round(time.Millisecond).String()},
	}

	var res *Result
	switch {
	case c.Error > 0:
		res = &Result{
			Type:    ResultFailure,
			Title:   fmt.Sprintf("%d of %d devices failed", c.Error, c.Total()),
			Details: details,
		}
	case c.Total() == 0:
		res = NewWarningResult("No devices reported by the endpoint", details)
	case c.OK == 0:
		res = NewWarningResult("No firmware installed", details)
	default:
		res = NewSuccessResult("Firmware installation complete", details)
	}
	return res.SetWidth(width)
}

func marker(o install.Outcome) string {
	switch o {
	case install.OutcomeOK:
		return SuccessMarker
	case install.OutcomeError:
		return FailureMarker
	default:
		return SkippedMarker
	}
}

func outcomeStyle(o install.Outcome) lipgloss.Style {
	switch o {
	case install.OutcomeOK:
		return DeviceOKStyle
	case install.OutcomeError:
		return DeviceErrorStyle
	default:
		return DeviceSkippedStyle
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// truncateMiddle shortens long paths keeping both ends visible
func truncateMiddle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 5 {
		return s
	}
	keep := max - 1
	head := keep / 2
	return string(r[:head]) + "…" + string(r[len(r)-(keep-head):])
}
