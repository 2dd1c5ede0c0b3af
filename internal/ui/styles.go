package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - ok, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, X marks
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info, skipped devices
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles
var (
	// HeaderTitleStyle is for the main command title (e.g., "FIRMWARE INSTALLATION")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "fwfleet install")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Endpoint:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// ProgressLabelStyle is for the live progress label
	ProgressLabelStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				PaddingLeft(2)

	// SpinnerStyle colors the live progress spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// DeviceOKStyle is for devices that installed
	DeviceOKStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// DeviceErrorStyle is for devices that failed
	DeviceErrorStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// DeviceSkippedStyle is for devices without firmware
	DeviceSkippedStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	// NoteStyle is for optional notes in parentheses
	NoteStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// WarningTitleStyle is for the warning result title
	WarningTitleStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	// ErrorMessageStyle is for error message text
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	// ResultValueStyle is for result detail values
	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// TableHeaderStyle is for the report table column titles
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Bold(true)

	// TroubleshootingTitleStyle is for "Troubleshooting:" headers
	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	// TroubleshootingItemStyle is for troubleshooting bullet points
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Status markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	SkippedMarker = "⊘"
	WarningMarker = "⚠"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// clampWidth keeps a requested width inside the supported range
func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
