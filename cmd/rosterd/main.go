// Command rosterd runs the roster demo loop: it restores the last snapshot,
// starts periodic autosave, and feeds the store with generated records until
// a termination signal arrives or the requested count is reached.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"rostercore/internal/core"
	"rostercore/pkg/domain"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rosterd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path     string
		interval time.Duration
		rate     time.Duration
		maxAdds  int
	)
	fs.StringVar(&path, "path", "", "snapshot path (overrides ROSTERCORE_SNAPSHOT_PATH)")
	fs.DurationVar(&interval, "interval", 0, "autosave interval (overrides ROSTERCORE_AUTOSAVE_INTERVAL)")
	fs.DurationVar(&rate, "rate", 500*time.Millisecond, "delay between generated records")
	fs.IntVar(&maxAdds, "max", 0, "stop after this many records, 0 runs until a signal")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log := slog.New(slog.NewTextHandler(stderr, nil))
	cfg, err := core.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(stderr, "rosterd: %v\n", err)
		return 1
	}
	if path != "" {
		cfg.Path = path
	}
	if interval > 0 {
		cfg.AutosaveInterval = interval
	}
	cfg.Logger = log

	if err := run(cfg, rate, maxAdds, log); err != nil {
		fmt.Fprintf(stderr, "rosterd: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "roster persisted, shutting down")
	return 0
}

func run(cfg core.Config, rate time.Duration, maxAdds int, log *slog.Logger) error {
	ctx := context.Background()
	mgr, err := core.NewManager(ctx, cfg)
	if err != nil {
		return err
	}
	if err := mgr.Bootstrap(ctx); err != nil {
		_ = mgr.Stop()
		return err
	}
	mgr.Start()

	finished := make(chan struct{})
	go mgr.Guard().Protect("generator", func() {
		defer close(finished)
		generate(mgr, rate, maxAdds, log)
	})

	select {
	case <-mgr.Done():
	case <-finished:
	}
	return mgr.Stop()
}

var rosterNames = []string{"Alice", "Bob", "Carol", "Dave", "Erin", "Frank", "Grace", "Heidi"}

// generate adds one random record per tick. The name index relies on callers
// supplying unique names, so every generated name carries a sequence suffix
// that continues past whatever Bootstrap restored.
func generate(mgr *core.Manager, rate time.Duration, maxAdds int, log *slog.Logger) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	seq := mgr.Store().Len()
	for added := 0; maxAdds == 0 || added < maxAdds; added++ {
		select {
		case <-mgr.Done():
			return
		case <-ticker.C:
		}
		seq++
		name := fmt.Sprintf("%s-%04d", rosterNames[rng.Intn(len(rosterNames))], seq)
		rec := domain.NewRecord(name, 1+rng.Intn(100))
		if err := mgr.Store().Add(rec); err != nil {
			log.Error("generate record", "error", err)
			continue
		}
		log.Info("record added", "id", rec.ID, "name", rec.Name, "age", rec.Age)
	}
}
