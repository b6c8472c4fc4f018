package grinder

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dopplerlabs/doppler-keygen/internal/ui"
)

// reporter periodically prints a progress line. It only loads atomics and
// never takes a lock the workers contend on, so sampling cannot slow the
// search; the numbers it prints are eventually-consistent snapshots.
type reporter struct {
	g        *Grinder
	w        io.Writer
	interval time.Duration

	lastAttempts uint64
	lastTime     time.Time
}

func newReporter(g *Grinder, w io.Writer, interval time.Duration) *reporter {
	return &reporter{g: g, w: w, interval: interval}
}

func (r *reporter) run(stop <-chan struct{}) {
	r.lastTime = time.Now()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.report(now)
		}
	}
}

// report emits one progress line. Split out from run so tests can drive it
// without waiting on the ticker.
func (r *reporter) report(now time.Time) {
	attempts := r.g.attempts.Load()
	rate := 0.0
	if secs := now.Sub(r.lastTime).Seconds(); secs > 0 {
		rate = float64(attempts-r.lastAttempts) / secs
	}
	r.lastAttempts = attempts
	r.lastTime = now

	var found, requested uint64
	targets := r.g.registry.Targets()
	for _, t := range targets {
		requested += t.Requested()
		found += t.Requested() - t.Remaining()
	}

	line := fmt.Sprintf("Progress: %s attempts | %s | found %d/%d",
		ui.FormatNumber(attempts), ui.FormatRate(rate), found, requested)

	// In batch mode show how far along each pattern is.
	if len(targets) > 1 {
		parts := make([]string, 0, len(targets))
		for _, t := range targets {
			parts = append(parts, fmt.Sprintf("%s %d/%d",
				t.Pattern, t.Requested()-t.Remaining(), t.Requested()))
		}
		line += " [" + strings.Join(parts, ", ") + "]"
	}

	fmt.Fprintln(r.w, line)
}
