// Package grinder implements the concurrent generate-and-test engine. A
// fixed pool of worker goroutines, one per CPU by default, draws random
// keypairs and evaluates each against every still-unsatisfied target in a
// single pass, so generation cost is amortized across all targets of a
// batch. Acceptance is coordinated by the Registry; accepted matches flow
// to a Sink for persistence and display.
package grinder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
)

const (
	// attemptFlushEvery batches worker-local attempt counts before adding
	// them to the shared counter, keeping the hot loop off the shared
	// cache line most of the time.
	attemptFlushEvery = 4096

	matchBuffer = 16
)

// Source produces one fresh candidate keypair per call. Implementations
// must be safe for concurrent use; the default draws from crypto/rand.
type Source func() (keypair.Keypair, error)

// Config controls a Grinder run. Zero values select defaults.
type Config struct {
	Workers        int           // worker goroutines; default runtime.NumCPU()
	ReportInterval time.Duration // progress line interval; default 1s
	Source         Source        // candidate source; default keypair.Generate
	Progress       io.Writer     // progress destination; nil silences the reporter
	Logger         *slog.Logger  // diagnostics; default slog.Default()
}

// Stats is an advisory snapshot of the search counters. Reads are
// eventually consistent; they never block workers.
type Stats struct {
	Attempts uint64
	Rate     float64 // keys per second since start
	Elapsed  time.Duration
}

// Summary describes a finished run.
type Summary struct {
	Found     uint64
	Requested uint64
	Attempts  uint64
	Elapsed   time.Duration
}

// Rate returns the average keys per second over the whole run.
func (s Summary) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Attempts) / secs
}

// Grinder owns the worker pool and the global attempt counter for one
// search. Create with New, run once with Run.
type Grinder struct {
	cfg      Config
	registry *Registry

	attempts atomic.Uint64
	start    time.Time
}

// New creates a grinder over the given registry.
func New(cfg Config, registry *Registry) *Grinder {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = time.Second
	}
	if cfg.Source == nil {
		cfg.Source = keypair.Generate
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Grinder{cfg: cfg, registry: registry}
}

// Registry returns the target registry the grinder runs against.
func (g *Grinder) Registry() *Registry { return g.registry }

// Stats returns the current counters. Safe to call from any goroutine.
func (g *Grinder) Stats() Stats {
	attempts := g.attempts.Load()
	elapsed := time.Since(g.start)
	var rate float64
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(attempts) / secs
	}
	return Stats{Attempts: attempts, Rate: rate, Elapsed: elapsed}
}

// Run searches until every target is satisfied or ctx is cancelled. Each
// accepted match is handed to sink before Run returns. Cancellation is
// cooperative: workers observe it within one iteration, flush their local
// counters, and exit; matches already accepted remain recorded.
func (g *Grinder) Run(ctx context.Context, sink Sink) (Summary, error) {
	if len(g.registry.Targets()) == 0 {
		return Summary{}, fmt.Errorf("no search targets")
	}

	// Fail fast if the entropy source is unusable; a broken source cannot
	// be retried from inside the hot loop.
	if _, err := g.cfg.Source(); err != nil {
		return Summary{}, fmt.Errorf("candidate source: %w", err)
	}

	g.start = time.Now()
	g.cfg.Logger.Info("search started",
		"workers", g.cfg.Workers,
		"targets", len(g.registry.Targets()))

	matches := make(chan Match, matchBuffer)
	var wg sync.WaitGroup
	for i := 0; i < g.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.worker(ctx, matches)
		}()
	}

	stopReporter := make(chan struct{})
	var reporterDone chan struct{}
	if g.cfg.Progress != nil {
		reporterDone = make(chan struct{})
		rep := newReporter(g, g.cfg.Progress, g.cfg.ReportInterval)
		go func() {
			defer close(reporterDone)
			rep.run(stopReporter)
		}()
	}

	go func() {
		wg.Wait()
		close(matches)
	}()

	for m := range matches {
		sink.Accept(m)
	}

	close(stopReporter)
	if reporterDone != nil {
		<-reporterDone
	}

	summary := g.summary()
	g.cfg.Logger.Info("search finished",
		"found", summary.Found,
		"requested", summary.Requested,
		"attempts", summary.Attempts,
		"elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

// worker is the hot loop: draw, evaluate against the current active
// snapshot, offer on match. It polls the stop conditions once per
// iteration so shutdown is always orderly.
func (g *Grinder) worker(ctx context.Context, matches chan<- Match) {
	var local uint64
	defer func() {
		g.attempts.Add(local % attemptFlushEvery)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if g.registry.Done() {
			return
		}

		kp, err := g.cfg.Source()
		if err != nil {
			// Transient generation failure: skip the candidate.
			continue
		}

		local++
		if local%attemptFlushEvery == 0 {
			g.attempts.Add(attemptFlushEvery)
		}

		var hits []Hit
		for _, t := range g.registry.Active() {
			if meta, ok := t.Pattern.Eval(kp.Public); ok {
				hits = append(hits, Hit{Target: t, Meta: meta})
			}
		}
		if len(hits) == 0 {
			continue
		}

		for _, m := range g.registry.Offer(kp, hits) {
			select {
			case matches <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (g *Grinder) summary() Summary {
	var found, requested uint64
	for _, t := range g.registry.Targets() {
		requested += t.Requested()
		found += t.Requested() - t.Remaining()
	}
	return Summary{
		Found:     found,
		Requested: requested,
		Attempts:  g.attempts.Load(),
		Elapsed:   time.Since(g.start),
	}
}
