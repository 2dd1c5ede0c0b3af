// Package ui renders fwfleet runs in the terminal.
//
// Components follow a "run once and exit" pattern: they present a run
// clearly but never ask for input.
//
//   - Header: command banner showing the endpoint and run options
//   - InstallModel: Bubble Tea live progress with spinner and bar
//   - PlainProgress: one line per device for non-terminal output
//   - Report rendering: detailed table, compact lines or JSON
//   - Result: success, warning and failure boxes
//
// Runner ties these together for the install command:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Firmware Installation",
//	    Command: "fwfleet install",
//	    Format:  ui.FormatDetailed,
//	    Live:    ui.IsTerminal(os.Stdout),
//	})
//	report, err := runner.Run(func(hooks install.Hooks) (*install.Report, error) {
//	    d.Hooks = hooks
//	    return d.Run(ctx)
//	})
//
// Logging is controlled via FWFLEET_LOG_LEVEL and goes to stderr, so the
// curated output on stdout stays clean.
package ui
