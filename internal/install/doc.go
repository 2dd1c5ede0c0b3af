// Package install runs firmware installation across every device on the
// management endpoint's chain and aggregates the outcomes.
//
// # Run Lifecycle
//
// A run moves through these states:
//
//	NotStarted → Connecting → Enumerating → Dispatching → Aggregating → Done
//
// A failure while Connecting or Enumerating ends the run in Failed with no
// per-device results. Once Dispatching starts, failures belong to the
// device that hit them and never change the run's state.
//
// # Dispatch
//
// Every device gets its own goroutine. A device with no mapped firmware is
// reported as skipped without any network traffic. Otherwise its package
// is loaded and uploaded with the run's InstallOptions; HTTP 200 is ok and
// anything else is an error carrying the status and response body.
//
// Concurrency defaults to unlimited. Setting Dispatcher.Concurrency bounds
// the number of uploads in flight; a slow device still only delays the
// tasks queued behind it for a slot, never the result of a running task.
//
// There is no run-level cancellation and no retry. Each upload is bounded
// by its own request timeout.
//
// # Aggregation
//
// Results land in an Aggregator in completion order. The dispatcher waits
// for all of them before returning, and the Aggregator refuses duplicates
// and reports missing devices, so a returned Report always holds exactly
// one Result per enumerated device.
package install
