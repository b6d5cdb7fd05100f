// Package aggregator keeps the dashboard's fetch state current by running the
// acquire/parse/normalize pipeline on a timer and on demand.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"paydash/internal/core"
	"paydash/internal/log"
	"paydash/internal/metrics"
	"paydash/internal/sheets"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrStopped is returned by Refresh after Stop.
var ErrStopped = errors.New("aggregator stopped")

const refreshKey = "refresh"

// runBuffer is how many completed runs a SubscribeRuns channel queues
// before the oldest is dropped.
const runBuffer = 32

// Config holds configuration for the aggregator
type Config struct {
	// Interval between timer-driven runs (default: 30s)
	Interval time.Duration

	// FetchTimeout bounds a single run (default: 15s)
	FetchTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:     30 * time.Second,
		FetchTimeout: 15 * time.Second,
	}
}

// Aggregator owns the FetchState for one source.
type Aggregator struct {
	reader sheets.TableReader
	source string
	config Config
	logger *log.Logger
	slog   *log.StructuredLogger

	group singleflight.Group

	// Lifetime of the aggregator; cancelled by Stop so in-flight reads abort.
	lifeCtx context.Context
	cancel  context.CancelFunc

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopped bool
	doneCh  chan struct{}

	stateMu     sync.RWMutex
	records     []core.Record
	loading     bool
	errMsg      string
	lastUpdated *time.Time
	version     uint64
	completed   uint64

	subMu   sync.Mutex
	subs    map[uint64]chan core.Snapshot
	runSubs map[uint64]chan core.Snapshot
	nextSub uint64
}

// New creates an aggregator reading from r. The initial state is loading
// with no records.
func New(r sheets.TableReader, config Config, logger *log.Logger) *Aggregator {
	def := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = def.FetchTimeout
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentAggregator)

	lifeCtx, cancel := context.WithCancel(context.Background())
	return &Aggregator{
		reader:  r,
		source:  sheets.Describe(r),
		config:  config,
		logger:  logger,
		slog:    log.NewStructuredLogger(logger),
		lifeCtx: lifeCtx,
		cancel:  cancel,
		loading: true,
		subs:    make(map[uint64]chan core.Snapshot),
		runSubs: make(map[uint64]chan core.Snapshot),
	}
}

// Start runs one pipeline immediately and then every interval until Stop or
// ctx is done. Returns an error if already running or stopped.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return ErrStopped
	}
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("aggregator is already running")
	}
	a.running = true
	a.doneCh = make(chan struct{})
	a.mu.Unlock()

	go a.runLoop(ctx)

	a.logger.InfoContext(ctx, "Aggregator started",
		log.FieldSource, a.source,
		"interval", a.config.Interval,
		"fetch_timeout", a.config.FetchTimeout)

	return nil
}

// Stop cancels the timer and any in-flight run, then waits for the loop to exit.
func (a *Aggregator) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	running := a.running
	done := a.doneCh
	a.mu.Unlock()

	a.cancel()

	if running {
		select {
		case <-done:
			a.logger.InfoContext(ctx, "Aggregator stopped gracefully")
		case <-ctx.Done():
			a.logger.WarnContext(ctx, "Aggregator stop timed out")
			return ctx.Err()
		}
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	a.closeSubscribers()
	return nil
}

// IsRunning returns whether the timer loop is active
func (a *Aggregator) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *Aggregator) runLoop(ctx context.Context) {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	a.trigger()

	for {
		select {
		case <-a.lifeCtx.Done():
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.trigger()
		}
	}
}

// trigger starts or joins a run and waits for it.
func (a *Aggregator) trigger() {
	_, _, _ = a.group.Do(refreshKey, func() (any, error) {
		return a.run()
	})
}

// Refresh runs the pipeline now, or joins the run already in flight, and
// returns the resulting snapshot. ctx only bounds how long the caller waits;
// the run itself continues for other waiters.
func (a *Aggregator) Refresh(ctx context.Context) (core.Snapshot, error) {
	if a.lifeCtx.Err() != nil {
		return a.Snapshot(), ErrStopped
	}
	ch := a.group.DoChan(refreshKey, func() (any, error) {
		return a.run()
	})
	select {
	case res := <-ch:
		snap, _ := res.Val.(core.Snapshot)
		return snap, res.Err
	case <-ctx.Done():
		return a.Snapshot(), ctx.Err()
	}
}

func (a *Aggregator) run() (core.Snapshot, error) {
	runID := uuid.NewString()
	a.update(func() {
		a.loading = true
		a.errMsg = ""
	})

	ctx, cancel := context.WithTimeout(a.lifeCtx, a.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	table, err := a.reader.ReadTable(ctx)
	var records []core.Record
	if err == nil {
		records = core.NormalizeTable(table)
	}
	elapsed := time.Since(start)

	if err != nil {
		kind := core.ErrorKindOf(err)
		metrics.RecordRunFailure(elapsed, string(kind))
		if a.lifeCtx.Err() != nil {
			// Torn down mid-run: leave no error behind for viewers.
			snap := a.update(func() { a.loading = false })
			return snap, ErrStopped
		}
		msg := core.ErrorMessage(err)
		snap := a.update(func() {
			a.loading = false
			a.errMsg = msg
			a.completed++
		})
		a.notifyRun(snap)
		a.slog.LogRunFailed(ctx, runID, a.source, elapsed.Milliseconds(), err, string(kind))
		return snap, err
	}

	now := time.Now()
	snap := a.update(func() {
		a.records = records
		a.loading = false
		a.lastUpdated = &now
		a.completed++
	})
	a.notifyRun(snap)
	metrics.RecordRunSuccess(elapsed, len(records), snap.Summary.Total, now)
	a.slog.LogRunCompleted(ctx, runID, a.source, elapsed.Milliseconds(), len(records), snap.Summary.Total, snap.Version)
	return snap, nil
}

// update applies fn under the state lock, bumps the version and notifies
// subscribers with the resulting snapshot.
func (a *Aggregator) update(fn func()) core.Snapshot {
	snap := a.apply(fn)
	a.notify(snap)
	return snap
}

func (a *Aggregator) apply(fn func()) core.Snapshot {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	fn()
	a.version++
	return a.snapshotLocked()
}

// Snapshot returns a copy of the current state with a freshly computed summary.
func (a *Aggregator) Snapshot() core.Snapshot {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() core.Snapshot {
	snap := core.Snapshot{
		Records: core.CloneRecords(a.records),
		Loading: a.loading,
		Error:   a.errMsg,
		Summary: core.Summarize(a.records),
		Version: a.version,
	}
	if a.lastUpdated != nil {
		t := *a.lastUpdated
		snap.LastUpdated = &t
	}
	return snap
}

// Ready reports whether at least one run has completed.
func (a *Aggregator) Ready() bool {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.completed > 0
}

// Interval is the configured refresh period.
func (a *Aggregator) Interval() time.Duration { return a.config.Interval }

// Source labels the configured reader.
func (a *Aggregator) Source() string { return a.source }

// Subscribe returns a channel that always holds the latest snapshot. The
// current snapshot is delivered immediately. Call the returned func to
// unsubscribe; the channel is closed then, or when the aggregator stops.
func (a *Aggregator) Subscribe() (<-chan core.Snapshot, func()) {
	return a.subscribe(false)
}

// SubscribeRuns returns a channel that receives the snapshot of every
// completed run, successful or failed, in order. Nothing is coalesced: a
// reader that falls runBuffer runs behind loses the oldest ones.
func (a *Aggregator) SubscribeRuns() (<-chan core.Snapshot, func()) {
	return a.subscribe(true)
}

func (a *Aggregator) subscribe(runs bool) (<-chan core.Snapshot, func()) {
	size := 1
	if runs {
		size = runBuffer
	}
	ch := make(chan core.Snapshot, size)

	a.subMu.Lock()
	if a.subs == nil {
		// Already stopped.
		a.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := a.nextSub
	a.nextSub++
	set := a.subs
	if runs {
		set = a.runSubs
	} else {
		ch <- a.Snapshot()
	}
	set[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			if c, ok := set[id]; ok {
				delete(set, id)
				close(c)
			}
		})
	}
}

func (a *Aggregator) notify(snap core.Snapshot) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (a *Aggregator) notifyRun(snap core.Snapshot) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, ch := range a.runSubs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
		a.logger.Warn("Run subscriber fell behind, dropped oldest run", log.FieldVersion, snap.Version)
	}
}

func (a *Aggregator) closeSubscribers() {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for _, set := range []map[uint64]chan core.Snapshot{a.subs, a.runSubs} {
		for id, ch := range set {
			close(ch)
			delete(set, id)
		}
	}
	a.subs = nil
	a.runSubs = nil
}
