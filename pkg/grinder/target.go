package grinder

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// Target is one outstanding search goal: a pattern plus the number of
// matches still wanted. Its remaining counter is decremented with a CAS
// loop so that at most the requested number of matches is ever accepted,
// no matter how many workers find candidates simultaneously.
type Target struct {
	ID        uuid.UUID
	Pattern   pattern.Pattern
	requested uint64
	remaining atomic.Uint64

	mu    sync.Mutex
	found []Match
}

// NewTarget creates a target requesting count matches of p.
func NewTarget(p pattern.Pattern, count uint64) *Target {
	t := &Target{
		ID:        uuid.New(),
		Pattern:   p,
		requested: count,
	}
	t.remaining.Store(count)
	return t
}

// Requested returns the number of matches asked for at construction.
func (t *Target) Requested() uint64 { return t.requested }

// Remaining returns the number of matches still wanted.
func (t *Target) Remaining() uint64 { return t.remaining.Load() }

// Satisfied reports whether the target needs no further matches.
func (t *Target) Satisfied() bool { return t.remaining.Load() == 0 }

// Found returns a copy of the accepted match records, in acceptance order.
func (t *Target) Found() []Match {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Match, len(t.found))
	copy(out, t.found)
	return out
}

// claim attempts to take one remaining slot. It returns the sequence number
// of the accepted match (1-based) and whether a slot was available. Losing
// the race on the last slot returns ok=false; the caller discards the match.
func (t *Target) claim() (uint64, bool) {
	for {
		rem := t.remaining.Load()
		if rem == 0 {
			return 0, false
		}
		if t.remaining.CompareAndSwap(rem, rem-1) {
			return t.requested - rem + 1, true
		}
	}
}

func (t *Target) record(m Match) {
	t.mu.Lock()
	t.found = append(t.found, m)
	t.mu.Unlock()
}

// Match is an accepted find: the keypair, the target it satisfied, and the
// placement metadata from the predicate. Immutable once created.
type Match struct {
	Target  *Target
	Keypair keypair.Keypair
	Meta    pattern.Match
	Seq     uint64 // 1-based index of this match within its target
}

// Hit pairs a target with the metadata of a successful evaluation, before
// the coordinator has decided whether to accept it.
type Hit struct {
	Target *Target
	Meta   pattern.Match
}

// Registry holds the set of search targets and coordinates acceptance
// across the worker pool.
type Registry struct {
	targets []*Target

	// active is a copy-on-write snapshot of the unsatisfied targets.
	// Workers read it once per candidate; it may lag acceptance by an
	// iteration, which only costs a discarded late offer.
	active   atomic.Pointer[[]*Target]
	rebuild  sync.Mutex
	unfilled atomic.Int64 // total remaining slots across all targets
}

// NewRegistry creates a registry over the given targets.
func NewRegistry(targets ...*Target) *Registry {
	r := &Registry{targets: targets}
	var total int64
	for _, t := range targets {
		total += int64(t.Remaining())
	}
	r.unfilled.Store(total)
	snap := make([]*Target, len(targets))
	copy(snap, targets)
	r.active.Store(&snap)
	return r
}

// Targets returns all targets, satisfied or not.
func (r *Registry) Targets() []*Target { return r.targets }

// Active returns the current snapshot of unsatisfied targets.
func (r *Registry) Active() []*Target { return *r.active.Load() }

// Done reports whether every target is satisfied.
func (r *Registry) Done() bool { return r.unfilled.Load() <= 0 }

// Offer presents a candidate that matched one or more targets. For each hit
// it atomically claims a remaining slot; claims that lose the race are
// discarded, so a target never accepts more matches than it requested. The
// accepted records are returned and also appended to their targets' found
// lists. When a target becomes satisfied its pattern is dropped from the
// active snapshot so workers stop evaluating it.
func (r *Registry) Offer(kp keypair.Keypair, hits []Hit) []Match {
	var accepted []Match
	satisfied := false

	for _, h := range hits {
		seq, ok := h.Target.claim()
		if !ok {
			continue
		}
		m := Match{Target: h.Target, Keypair: kp, Meta: h.Meta, Seq: seq}
		h.Target.record(m)
		r.unfilled.Add(-1)
		if h.Target.Satisfied() {
			satisfied = true
		}
		accepted = append(accepted, m)
	}

	if satisfied {
		r.refreshActive()
	}
	return accepted
}

func (r *Registry) refreshActive() {
	r.rebuild.Lock()
	defer r.rebuild.Unlock()
	snap := make([]*Target, 0, len(r.targets))
	for _, t := range r.targets {
		if !t.Satisfied() {
			snap = append(snap, t)
		}
	}
	r.active.Store(&snap)
}
