// Package lifecycle performs best-effort final saves on termination signals
// and after unhandled faults in guarded goroutines. A Guard is registered
// once at startup and holds the specific store/saver pair it protects; there
// is no ambient global handler state.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"rostercore/internal/store"
)

// Saver is the save operation the guard triggers. Persist backends and the
// manager's archiving save both satisfy it.
type Saver interface {
	Save(ctx context.Context) error
}

// defaultSaveTimeout bounds every guard-triggered save so the guard can never
// hold up process exit indefinitely.
const defaultSaveTimeout = 5 * time.Second

// Guard owns the termination and fault hooks for one store/saver pair.
// Errors from guard-triggered saves are logged and suppressed, never
// propagated.
type Guard struct {
	store   *store.Store
	saver   Saver
	log     *slog.Logger
	timeout time.Duration

	registerOnce sync.Once
	termOnce     sync.Once
	done         chan struct{}
	signals      chan os.Signal
}

// New builds an unregistered guard for st and saver.
func New(st *store.Store, saver Saver, log *slog.Logger) *Guard {
	if log == nil {
		log = slog.Default()
	}
	return &Guard{
		store:   st,
		saver:   saver,
		log:     log,
		timeout: defaultSaveTimeout,
		done:    make(chan struct{}),
		signals: make(chan os.Signal, 1),
	}
}

// Register subscribes the guard to SIGINT and SIGTERM and starts the signal
// watcher. Registration is idempotent: repeated calls never produce a second
// subscription or a second save per event.
func (g *Guard) Register() {
	g.registerOnce.Do(func() {
		signal.Notify(g.signals, os.Interrupt, syscall.SIGTERM)
		go g.watch()
	})
}

func (g *Guard) watch() {
	sig := <-g.signals
	g.log.Info("termination signal received", "signal", sig.String())
	g.Shutdown()
}

// Shutdown performs the final termination save (only when the store is
// non-empty) and releases Done. Signal delivery and an explicit host call
// share one once, so a process performs at most one termination save no
// matter how shutdown begins.
func (g *Guard) Shutdown() {
	g.termOnce.Do(func() {
		if g.store.Len() > 0 {
			g.finalSave("termination")
		}
		close(g.done)
	})
}

// Done is closed once termination handling, including its final save, has
// completed. Hosts wait on it before exiting; the guard itself never blocks
// exit beyond the bounded final save.
func (g *Guard) Done() <-chan struct{} {
	return g.done
}

// Protect runs fn and contains any panic: the fault is logged, one
// best-effort save runs, and the surrounding goroutine ends without killing
// the process. Each fault triggers its own save.
func (g *Guard) Protect(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("guarded worker fault", "worker", name, "panic", r)
			g.finalSave("fault")
		}
	}()
	fn()
}

func (g *Guard) finalSave(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	if err := g.saver.Save(ctx); err != nil {
		g.log.Error("final save failed", "reason", reason, "error", err)
		return
	}
	g.log.Info("final save complete", "reason", reason, "records", g.store.Len())
}
