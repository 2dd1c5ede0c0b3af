package install

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/muurk/fwfleet/internal/firmware"
	"github.com/muurk/fwfleet/internal/logging"
	"github.com/muurk/fwfleet/internal/mmapi"
)

// ErrNoEndpoint is returned by Run when the dispatcher has no endpoint
var ErrNoEndpoint = errors.New("no management endpoint configured")

// Endpoint is the part of the management API a run needs.
// *mmapi.Client implements it.
type Endpoint interface {
	Connect(ctx context.Context) (mmapi.SessionOutcome, error)
	ListDevices(ctx context.Context) ([]mmapi.Device, error)
	UploadFirmware(ctx context.Context, position int, payload []byte, opts mmapi.InstallOptions) (*mmapi.UploadResponse, error)
}

// Hooks observe a run. All hooks are optional. OnResult is called from a
// single goroutine, one result at a time, in completion order.
type Hooks struct {
	OnState   func(from, to State)
	OnDevices func(devices []mmapi.Device)
	OnResult  func(r Result)
}

// Dispatcher runs firmware installation on every device of the endpoint.
// A Dispatcher may be reused for consecutive runs but not concurrent ones.
type Dispatcher struct {
	Endpoint Endpoint
	Resolver *firmware.Resolver
	Options  mmapi.InstallOptions

	// Concurrency bounds uploads in flight; 0 means no limit
	Concurrency int

	Hooks Hooks

	mu    sync.Mutex
	state State
}

// NewDispatcher creates a dispatcher with unlimited concurrency
func NewDispatcher(endpoint Endpoint, resolver *firmware.Resolver, opts mmapi.InstallOptions) *Dispatcher {
	if resolver == nil {
		resolver = firmware.NewResolver(nil, nil)
	}
	return &Dispatcher{
		Endpoint: endpoint,
		Resolver: resolver,
		Options:  opts,
	}
}

// State returns the current run state
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) transition(to State) {
	d.mu.Lock()
	from := d.state
	if !canTransition(from, to) {
		d.mu.Unlock()
		panic(fmt.Sprintf("install: illegal state transition %s -> %s", from, to))
	}
	d.state = to
	d.mu.Unlock()

	logging.LogStateChange(from.String(), to.String())
	if d.Hooks.OnState != nil {
		d.Hooks.OnState(from, to)
	}
}

// Run performs one installation run. Connect and enumeration failures are
// fatal and return a Failed report with no results alongside the error.
// Otherwise the report holds exactly one result per enumerated device and
// the error is nil, however many devices failed.
//
// ctx bounds the connect and enumeration calls. Once dispatch starts the
// run no longer observes ctx cancellation; each upload ends on its own
// request timeout.
func (d *Dispatcher) Run(ctx context.Context) (*Report, error) {
	if d.Endpoint == nil {
		return nil, ErrNoEndpoint
	}
	if d.Resolver == nil {
		d.Resolver = firmware.NewResolver(nil, nil)
	}

	d.mu.Lock()
	d.state = StateNotStarted
	d.mu.Unlock()

	started := time.Now()

	d.transition(StateConnecting)
	outcome, err := d.Endpoint.Connect(ctx)
	if err != nil {
		return d.fail(started, fmt.Errorf("connect failed: %w", err))
	}
	logging.Info("Session ready", zap.String("outcome", outcome.String()))

	d.transition(StateEnumerating)
	devices, err := d.Endpoint.ListDevices(ctx)
	if err != nil {
		return d.fail(started, fmt.Errorf("device enumeration failed: %w", err))
	}
	logging.Info("Devices enumerated", zap.Int("count", len(devices)))
	if d.Hooks.OnDevices != nil {
		d.Hooks.OnDevices(devices)
	}

	d.transition(StateDispatching)
	agg := NewAggregator(len(devices))
	results := d.dispatch(context.WithoutCancel(ctx), devices)

	d.transition(StateAggregating)
	for r := range results {
		if err := agg.Add(r); err != nil {
			logging.Error("Dropping result", zap.Error(err))
			continue
		}
		logging.LogDeviceResult(r.Device(), string(r.Outcome), r.Status, r.Detail, r.Elapsed)
		if d.Hooks.OnResult != nil {
			d.Hooks.OnResult(r)
		}
	}

	report, err := agg.Report(StateDone)
	if err != nil {
		return nil, err
	}
	d.transition(StateDone)

	report.Started = started
	report.Finished = time.Now()
	return report, nil
}

func (d *Dispatcher) fail(started time.Time, err error) (*Report, error) {
	d.transition(StateFailed)
	logging.Error("Run failed", zap.Error(err))
	return &Report{
		State:    StateFailed,
		Results:  []Result{},
		Err:      err,
		Fatal:    err.Error(),
		Started:  started,
		Finished: time.Now(),
	}, err
}

// dispatch starts one task per device and returns a channel that yields
// each task's result and is closed after the last one.
func (d *Dispatcher) dispatch(ctx context.Context, devices []mmapi.Device) <-chan Result {
	results := make(chan Result, len(devices))

	var slots *semaphore.Weighted
	if d.Concurrency > 0 {
		slots = semaphore.NewWeighted(int64(d.Concurrency))
	}

	var wg sync.WaitGroup
	for i, device := range devices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- d.installOne(ctx, i, device, slots)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// installOne produces the result for one device. It never returns without
// a result, whatever fails.
func (d *Dispatcher) installOne(ctx context.Context, index int, device mmapi.Device, slots *semaphore.Weighted) Result {
	start := time.Now()
	res := Result{Index: index, Position: device.Position}

	src, ok := d.Resolver.Resolve(device)
	if !ok {
		res.Outcome = OutcomeSkipped
		res.Detail = ReasonNoFirmware
		if !device.HasPosition() {
			res.Detail = ReasonNoPosition
		}
		res.Elapsed = time.Since(start)
		return res
	}
	res.Firmware = src.Path

	// Only devices with a package take a slot
	if slots != nil {
		if err := slots.Acquire(ctx, 1); err != nil {
			res.Outcome = OutcomeError
			res.Detail = err.Error()
			res.Elapsed = time.Since(start)
			return res
		}
		defer slots.Release(1)
	}

	payload, err := d.Resolver.Load(src)
	if err != nil {
		res.Outcome = OutcomeError
		res.Detail = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}
	res.Size = len(payload)
	res.Digest = firmware.Digest(payload)
	logging.LogPayload(src.Position, src.Path, res.Size, res.Digest)

	resp, err := d.Endpoint.UploadFirmware(ctx, src.Position, payload, d.Options)
	if err != nil {
		res.Outcome = OutcomeError
		res.Status = mmapi.StatusCode(err)
		res.Detail = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}

	res.Status = resp.StatusCode
	if resp.OK() {
		res.Outcome = OutcomeOK
	} else {
		res.Outcome = OutcomeError
		res.Detail = errorDetail(resp.StatusCode, resp.Body)
	}
	res.Elapsed = time.Since(start)
	return res
}
