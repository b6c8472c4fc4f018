package grinder

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// discard is a logger for tests that keeps output quiet.
var discard = slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))

// recordingSink collects accepted matches.
type recordingSink struct {
	mu      sync.Mutex
	matches []Match
}

func (s *recordingSink) Accept(m Match) {
	s.mu.Lock()
	s.matches = append(s.matches, m)
	s.mu.Unlock()
}

func (s *recordingSink) all() []Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// scriptedSource emits keys matching the wanted prefixes at a fixed cadence
// and filler keys otherwise. It cycles forever so a run can always make
// progress regardless of worker count.
func scriptedSource(every uint64, hits ...[]byte) Source {
	var n atomic.Uint64
	return func() (keypair.Keypair, error) {
		i := n.Add(1)
		pub := make([]byte, pattern.KeySize)
		for j := range pub {
			pub[j] = 0xAB
		}
		if i%every == 0 {
			copy(pub, hits[(i/every)%uint64(len(hits))])
		}
		return keypair.Keypair{Public: pub}, nil
	}
}

func TestRunSatisfiesAllTargetsIndependently(t *testing.T) {
	// Batch with A wanting 2 and B wanting 1: the run must not stop when B
	// is satisfied first; it ends only when both remaining counts are zero.
	a := NewTarget(mustPrefix(t, []byte{0x41, 0x41}), 2)
	b := NewTarget(mustPrefix(t, []byte{0x42, 0x42}), 1)
	reg := NewRegistry(a, b)

	g := New(Config{
		Workers: 4,
		Source:  scriptedSource(50, []byte{0x41, 0x41}, []byte{0x42, 0x42}),
		Logger:  discard,
	}, reg)

	sink := &recordingSink{}
	summary, err := g.Run(context.Background(), sink)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), summary.Found)
	assert.Equal(t, uint64(3), summary.Requested)
	assert.True(t, a.Satisfied())
	assert.True(t, b.Satisfied())
	assert.Len(t, a.Found(), 2)
	assert.Len(t, b.Found(), 1)
	assert.Len(t, sink.all(), 3)
	assert.Greater(t, summary.Attempts, uint64(0))

	for _, m := range sink.all() {
		_, ok := m.Target.Pattern.Eval(m.Keypair.Public)
		assert.True(t, ok, "sink received a non-matching keypair")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	target := NewTarget(mustPrefix(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}), 1)
	reg := NewRegistry(target)

	// Source never produces a match, so only cancellation can end the run.
	var n atomic.Uint64
	source := func() (keypair.Keypair, error) {
		n.Add(1)
		return keypair.Keypair{Public: make([]byte, pattern.KeySize)}, nil
	}

	g := New(Config{Workers: 2, Source: source, Logger: discard}, reg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	summary, err := g.Run(ctx, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), summary.Found)
	assert.False(t, target.Satisfied())
	assert.Greater(t, n.Load(), uint64(0))
}

func TestRunRejectsEmptyRegistry(t *testing.T) {
	g := New(Config{Logger: discard}, NewRegistry())
	_, err := g.Run(context.Background(), &recordingSink{})
	assert.Error(t, err)
}

func TestRunImmediateTarget(t *testing.T) {
	target := NewTarget(pattern.NewImmediate(), 1)
	reg := NewRegistry(target)

	// Every 20th key carries a sign-extension compatible first segment.
	g := New(Config{
		Workers: 2,
		Source:  scriptedSource(20, []byte{0x12, 0x34, 0x56, 0x78, 0x00, 0x00, 0x00, 0x00}),
		Logger:  discard,
	}, reg)

	sink := &recordingSink{}
	_, err := g.Run(context.Background(), sink)
	require.NoError(t, err)

	matches := sink.all()
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Meta.Segment)
}

func TestStatsAdvancesDuringRun(t *testing.T) {
	target := NewTarget(mustPrefix(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05}), 1)
	reg := NewRegistry(target)

	g := New(Config{Workers: 2, Source: scriptedSource(100_000, []byte{0x01, 0x02, 0x03, 0x04, 0x05}), Logger: discard}, reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Run(ctx, &recordingSink{})
	}()

	time.Sleep(100 * time.Millisecond)
	stats := g.Stats()
	cancel()
	<-done

	assert.Greater(t, stats.Elapsed, time.Duration(0))
	// Attempts are flushed in batches; after 100ms of spinning at least
	// one flush must have landed.
	assert.Greater(t, stats.Attempts, uint64(0))
}

func TestReporterLine(t *testing.T) {
	a := NewTarget(mustPrefix(t, []byte{1}), 2)
	b := NewTarget(mustPrefix(t, []byte{2}), 1)
	reg := NewRegistry(a, b)
	g := New(Config{Logger: discard}, reg)
	g.attempts.Store(1234567)
	reg.Offer(fakeKeypair(1), []Hit{{Target: a, Meta: pattern.Match{Segment: -1, Offset: 0}}})

	var buf bytes.Buffer
	rep := newReporter(g, &buf, time.Second)
	rep.lastTime = time.Now().Add(-time.Second)
	rep.report(time.Now())

	line := buf.String()
	assert.Contains(t, line, "Progress: 1,234,567 attempts")
	assert.Contains(t, line, "found 1/3")
	assert.Contains(t, line, "prefix:")
	assert.True(t, strings.HasSuffix(line, "]\n"), "batch mode should list per-target progress: %q", line)
}
