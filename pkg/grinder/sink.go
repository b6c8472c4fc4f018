package grinder

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/dopplerlabs/doppler-keygen/internal/ui"
	"github.com/dopplerlabs/doppler-keygen/pkg/asm"
	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// Sink receives accepted matches. Accept must not assume it is called from
// a single goroutine's hot loop; it runs on the coordinator side, off the
// workers' critical path.
type Sink interface {
	Accept(Match)
}

// FileSink persists each accepted match as a JSON keypair file and prints
// a found-key block to Out. A failed write is logged and the search
// continues: the match was already accepted and displayed, and a rare find
// is never thrown away because the disk was unhappy.
type FileSink struct {
	Dir string
	Out io.Writer
	Log *slog.Logger

	written  atomic.Uint64
	failures atomic.Uint64
}

// NewFileSink creates a sink writing keypair files into dir.
func NewFileSink(dir string, out io.Writer, log *slog.Logger) *FileSink {
	if log == nil {
		log = slog.Default()
	}
	return &FileSink{Dir: dir, Out: out, Log: log}
}

// Written returns the number of keypair files successfully persisted.
func (s *FileSink) Written() uint64 { return s.written.Load() }

// Failures returns the number of persistence attempts that failed.
func (s *FileSink) Failures() uint64 { return s.failures.Load() }

// Accept persists and displays one match.
func (s *FileSink) Accept(m Match) {
	path := filepath.Join(s.Dir, Filename(m))

	saveErr := keypair.Save(path, m.Keypair)
	if saveErr != nil {
		s.failures.Add(1)
		s.Log.Warn("failed to persist keypair, continuing search",
			"path", path, "error", saveErr)
	} else {
		s.written.Add(1)
	}

	if s.Out != nil {
		s.printFound(m, path, saveErr)
	}
}

// Filename returns the file name a match is persisted under: the base58
// address for immediate targets, vanity_<pattern>_<address> for vanity
// targets.
func Filename(m Match) string {
	address := m.Keypair.Address()
	if m.Target.Pattern.Kind() == pattern.Immediate {
		return address + ".json"
	}
	return fmt.Sprintf("vanity_%s_%s.json", m.Target.Pattern.Text(), address)
}

func (s *FileSink) printFound(m Match, path string, saveErr error) {
	w := s.Out
	t := m.Target
	key := m.Keypair.Public

	fmt.Fprintf(w, "\n%s%s✓ Found keypair %d/%d for %s%s\n",
		ui.ColorGreen, ui.ColorBold, m.Seq, t.Requested(), t.Pattern, ui.ColorReset)
	fmt.Fprintf(w, "  Address:          %s%s%s\n", ui.ColorCyan, m.Keypair.Address(), ui.ColorReset)
	fmt.Fprintf(w, "  Public key (hex): %s\n", hex.EncodeToString(key))

	if seg := m.Meta.Segment; seg >= 0 {
		off := seg * pattern.SegmentSize
		i32 := asm.SegmentI32(key, seg)
		i64 := int64(i32)
		fmt.Fprintf(w, "  Matched segment:  %d (bytes %d-%d)\n", seg, off, off+7)
		fmt.Fprintf(w, "  Segment bytes:    %s\n", ui.HexSegment(key[off:off+8]))
		fmt.Fprintf(w, "    i32 value: %d (0x%08x)\n", i32, uint32(i32))
		fmt.Fprintf(w, "    i64 value: %d (0x%016x)\n", i64, uint64(i64))
	} else {
		fmt.Fprintf(w, "  Matched at:       byte offset %d\n", m.Meta.Offset)
	}

	if saveErr != nil {
		fmt.Fprintf(w, "  %s! Not saved: %v%s\n", ui.ColorYellow, saveErr, ui.ColorReset)
	} else {
		fmt.Fprintf(w, "  Saved to:         %s\n", path)
	}
}
