// Package autosave drives periodic snapshot saves on a fixed interval with
// non-overlapping ticks and an idempotent start/stop lifecycle.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Saver is the save operation a policy drives on each tick. Persist backends
// satisfy it.
type Saver interface {
	Save(ctx context.Context) error
}

const (
	// DefaultInterval is the reference tick period.
	DefaultInterval = time.Second
	// DefaultStopGrace bounds how long Stop waits for an in-flight save.
	DefaultStopGrace = 5 * time.Second
)

// Options tune a Policy. Zero values select the defaults.
type Options struct {
	Interval  time.Duration
	StopGrace time.Duration
	Logger    *slog.Logger
}

// Policy periodically saves through a Saver. One goroutine owns the ticker
// and runs each save inline, so two saves can never overlap; a tick that
// fires while a save is still running is dropped, not queued. A failed tick
// is logged and the schedule continues: the next tick is the retry.
type Policy struct {
	saver     Saver
	interval  time.Duration
	stopGrace time.Duration
	log       *slog.Logger

	mu     sync.Mutex
	quit   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}

	failStreak atomic.Int64
}

// New builds a stopped policy around saver.
func New(saver Saver, opts Options) *Policy {
	p := &Policy{
		saver:     saver,
		interval:  opts.Interval,
		stopGrace: opts.StopGrace,
		log:       opts.Logger,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.stopGrace <= 0 {
		p.stopGrace = DefaultStopGrace
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Start moves the policy to Running and begins ticking. Starting a running
// policy is a no-op.
func (p *Policy) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quit != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.quit = make(chan struct{})
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.quit, p.done)
	p.log.Info("autosave started", "interval", p.interval)
}

// Stop moves the policy to Stopped. Future ticks are cut off immediately, but
// an in-flight save keeps its context and gets up to the stop grace period to
// finish; the save's context is canceled only once the grace elapses.
// Stopping a stopped policy is a no-op; Stop is safe to call repeatedly and
// concurrently with a firing tick.
func (p *Policy) Stop() {
	p.mu.Lock()
	if p.quit == nil {
		p.mu.Unlock()
		return
	}
	quit, cancel, done := p.quit, p.cancel, p.done
	p.quit, p.cancel, p.done = nil, nil, nil
	p.mu.Unlock()

	close(quit)
	select {
	case <-done:
		p.log.Info("autosave stopped")
	case <-time.After(p.stopGrace):
		p.log.Warn("autosave stop grace elapsed, canceling the in-flight save", "grace", p.stopGrace)
	}
	cancel()
}

// Running reports whether the policy is currently in the Running state.
func (p *Policy) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quit != nil
}

// ConsecutiveFailures returns the current failed-tick streak.
func (p *Policy) ConsecutiveFailures() int64 {
	return p.failStreak.Load()
}

func (p *Policy) run(ctx context.Context, quit <-chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			// A tick racing with Stop must not start a save Stop would then
			// have to wait out.
			select {
			case <-quit:
				return
			default:
			}
			p.saveTick(ctx)
			// A tick that fired while the save was running would start
			// another save immediately; drop it so a slow save skips ticks
			// instead of queueing them.
			select {
			case <-ticker.C:
			default:
			}
		}
	}
}

func (p *Policy) saveTick(ctx context.Context) {
	start := time.Now()
	err := p.saver.Save(ctx)
	saveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		streak := p.failStreak.Add(1)
		savesTotal.WithLabelValues("error").Inc()
		consecutiveFailures.Set(float64(streak))
		p.log.Error("autosave tick failed", "error", err, "consecutive", streak)
		return
	}
	p.failStreak.Store(0)
	consecutiveFailures.Set(0)
	savesTotal.WithLabelValues("ok").Inc()
}
