package ui

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/muurk/fwfleet/internal/install"
	"github.com/muurk/fwfleet/internal/logging"
)

// RunnerConfig holds configuration for an installation run's output
type RunnerConfig struct {
	Title   string    // Command title (e.g., "Firmware Installation")
	Command string    // Full command (e.g., "fwfleet install")
	Params  []Param   // Parameters to display in header
	Format  Format    // Report format
	Live    bool      // Animate progress with Bubble Tea
	Output  io.Writer // Output writer (default: os.Stdout)
	Width   int       // Render width (default: terminal width)
}

// Runner orchestrates the UI for an installation run.
// It manages the header → progress → report flow.
type Runner struct {
	config RunnerConfig
	output io.Writer
	width  int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Format == "" {
		config.Format = FormatDetailed
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	return &Runner{
		config: config,
		output: config.Output,
		width:  width,
	}
}

// Operation performs the run, reporting through hooks
type Operation func(hooks install.Hooks) (*install.Report, error)

// Run executes the operation with UI updates and prints the report.
// JSON output carries only the report.
func (r *Runner) Run(operation Operation) (*install.Report, error) {
	if r.config.Format == FormatJSON {
		report, err := operation(install.Hooks{})
		if report != nil {
			if werr := WriteReport(r.output, report, FormatJSON, r.width); werr != nil {
				logging.Warn("Failed to write report", zap.Error(werr))
			}
		}
		return report, err
	}

	printer := &Printer{out: r.output, width: r.width}
	printer.PrintHeader(r.config.Title, r.config.Command, r.config.Params)

	var (
		report *install.Report
		err    error
	)
	if r.config.Live {
		live := StartLiveProgress(r.output)
		report, err = operation(live.Hooks())
		if perr := live.Stop(); perr != nil {
			logging.Warn("Progress display failed", zap.Error(perr))
		}
	} else {
		report, err = operation(NewPlainProgress(r.output).Hooks())
	}

	printer.Newline()
	if report != nil {
		if werr := WriteReport(r.output, report, r.config.Format, r.width); werr != nil {
			logging.Warn("Failed to write report", zap.Error(werr))
		}
	} else if err != nil {
		printer.PrintError(r.config.Title+" failed", err, nil)
	}

	return report, err
}
