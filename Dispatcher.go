package minerquery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// YieldMode selects how a Dispatcher resolves.
type YieldMode int

const (
	// YieldFirst resolves on the first successful worker.
	YieldFirst YieldMode = iota
	// YieldAll waits for every worker, up to the deadline, and yields the
	// successes in dispatch order.
	YieldAll
)

// NoTimeout disables the resolution deadline.
const NoTimeout = time.Duration(math.MaxInt64)

// ErrNoMiners is returned when a Dispatcher is built with no miners.
var ErrNoMiners = errors.New("no miners configured")

// ErrNoOperation is returned when Resolve is called before SetOperation.
var ErrNoOperation = errors.New("no operation configured")

// ErrAlreadyResolved is returned when Resolve is called a second time; a
// Dispatcher is consumed by exactly one resolution.
var ErrAlreadyResolved = errors.New("dispatcher already resolved")

// ErrResolveTimeout is returned in YieldFirst mode when the deadline elapses
// with no success observed and at least one worker still unreported. It is
// distinct from AllFailedError, which means every worker explicitly failed.
var ErrResolveTimeout = errors.New("resolution deadline elapsed")

// AllFailedError is the YieldFirst terminal state in which every miner
// reported an explicit failure before the deadline. Failures holds one entry
// per miner, in dispatch order.
type AllFailedError struct {
	Failures []Outcome
}

func (e *AllFailedError) Error() string {
	f := e.Failures[0]
	return fmt.Sprintf("all %v miners failed; %v: %v", len(e.Failures), f.Miner, f.Err)
}

// Operation is the unit of work a Dispatcher replicates across miners. It
// must honor ctx: YieldFirst cancels the context of losing workers once a
// winner is in, and abandoned network calls should die with it.
type Operation func(ctx context.Context, m *Miner) (interface{}, error)

// Outcome is one worker's report, correlated back to its miner. Exactly one
// of Value and Err is meaningful, discriminated by Err == nil.
type Outcome struct {
	Miner *Miner
	Value interface{}
	Err   error
}

// workerReport travels from a worker goroutine to the coordinating loop;
// idx correlates it to its dispatch-order position.
type workerReport struct {
	idx   int
	value interface{}
	err   error
}

// Dispatcher fans one Operation out over a fixed miner set and resolves per
// its YieldMode. Built once, consumed by exactly one Resolve call.
type Dispatcher struct {
	miners  []*Miner
	op      Operation
	yield   YieldMode
	timeout time.Duration
	clk     clock.Clock

	resolved bool
	failures []Outcome
}

// NewDispatcher creates a dispatcher over miners. A timeout of NoTimeout
// waits indefinitely; zero or negative timeouts behave as an immediately
// elapsed deadline.
func NewDispatcher(miners []*Miner, yield YieldMode, timeout time.Duration) (*Dispatcher, error) {
	if len(miners) == 0 {
		return nil, ErrNoMiners
	}
	toret := &Dispatcher{
		miners:  append([]*Miner(nil), miners...),
		yield:   yield,
		timeout: timeout,
		clk:     clock.New(),
	}
	return toret, nil
}

// SetOperation supplies the operation to replicate. Must be called before
// Resolve.
func (d *Dispatcher) SetOperation(op Operation) {
	d.op = op
}

// SetClock replaces the wall clock used for the deadline. Tests use a mock
// clock to make timeouts deterministic.
func (d *Dispatcher) SetClock(clk clock.Clock) {
	d.clk = clk
}

// Failures returns the explicit per-miner failures observed during
// resolution, in dispatch order. Miners that never reported before the
// deadline appear in neither Failures nor the resolved values.
func (d *Dispatcher) Failures() []Outcome {
	return d.failures
}

// Resolve spawns one worker per miner and applies the yield policy.
//
// YieldFirst: returns a single-element slice holding the first success, or an
// *AllFailedError once every worker has failed, or ErrResolveTimeout at the
// deadline. YieldAll: returns the successes in dispatch order (possibly
// empty) and no error; failed and unreported miners are omitted.
//
// The accumulator below is touched only by this loop; workers communicate
// through the reports channel, which is buffered to the worker count so an
// abandoned worker can always complete its send and exit.
func (d *Dispatcher) Resolve(ctx context.Context) ([]Outcome, error) {
	if d.resolved {
		return nil, ErrAlreadyResolved
	}
	d.resolved = true
	if d.op == nil {
		return nil, ErrNoOperation
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := len(d.miners)
	reports := make(chan workerReport, n)
	for i := range d.miners {
		go runWorker(wctx, i, d.miners[i], d.op, reports)
	}

	var deadline <-chan time.Time
	if d.timeout != NoTimeout {
		timer := d.clk.Timer(d.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	values := make([]*Outcome, n)
	failed := make([]*Outcome, n)
	for pending := n; pending > 0; {
		select {
		case rep := <-reports:
			pending--
			m := d.miners[rep.idx]
			if rep.err != nil {
				failed[rep.idx] = &Outcome{Miner: m, Err: rep.err}
				continue
			}
			if d.yield == YieldFirst {
				d.noteFailures(failed)
				return []Outcome{{Miner: m, Value: rep.value}}, nil
			}
			values[rep.idx] = &Outcome{Miner: m, Value: rep.value}
		case <-deadline:
			d.noteFailures(failed)
			if d.yield == YieldFirst {
				return nil, ErrResolveTimeout
			}
			return compact(values), nil
		case <-ctx.Done():
			d.noteFailures(failed)
			return nil, ctx.Err()
		}
	}
	// every worker reported
	d.noteFailures(failed)
	if d.yield == YieldFirst {
		// the loop only runs dry when no success was ever observed
		return nil, &AllFailedError{Failures: d.failures}
	}
	return compact(values), nil
}

func (d *Dispatcher) noteFailures(failed []*Outcome) {
	d.failures = compact(failed)
}

// compact drops the unset slots, preserving dispatch order.
func compact(sparse []*Outcome) []Outcome {
	toret := make([]Outcome, 0, len(sparse))
	for _, o := range sparse {
		if o != nil {
			toret = append(toret, *o)
		}
	}
	return toret
}

// runWorker executes op against exactly one miner and reports exactly once.
// A panic inside op is normalized into an error report so one miner's fault
// never aborts its siblings.
func runWorker(ctx context.Context, idx int, m *Miner, op Operation, reports chan<- workerReport) {
	defer func() {
		if r := recover(); r != nil {
			reports <- workerReport{idx: idx, err: fmt.Errorf("worker fault: %v", r)}
		}
	}()
	value, err := op(ctx, m)
	reports <- workerReport{idx: idx, value: value, err: err}
}
