// Package pattern implements the predicates a candidate public key is
// tested against. Two families exist: the immediate-segment family, which
// looks for 8-byte segments usable as sign-extended 32-bit immediates in
// generated assembly, and the vanity family, which matches a base58-decoded
// byte sequence at a fixed or floating position in the raw key.
//
// Patterns are validated and decoded once at construction. Evaluation is
// pure and allocation-free, so it is safe to share one Pattern value across
// all worker goroutines.
package pattern

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// KeySize is the length of an Ed25519 public key in bytes.
const KeySize = 32

// SegmentSize is the width of one immediate-compatible window.
const SegmentSize = 8

// Kind identifies the predicate family and placement.
type Kind int

const (
	Immediate Kind = iota // any 8-byte segment forms a valid sign-extended imm32
	Prefix                // decoded bytes at the start of the key
	Suffix                // decoded bytes at the end of the key
	Contains              // decoded bytes anywhere in the key
	At                    // decoded bytes at a fixed byte offset
)

// String returns the kind name as used in pattern specs.
func (k Kind) String() string {
	switch k {
	case Immediate:
		return "immediate"
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case Contains:
		return "contains"
	case At:
		return "at"
	default:
		return "unknown"
	}
}

// Match describes where a pattern matched within a key.
// For the immediate family Segment is the first matching segment index
// (0..3) and Offset is -1. For the vanity family Offset is the byte offset
// of the match and Segment is -1.
type Match struct {
	Segment int
	Offset  int
}

// Pattern is a compiled predicate over a 32-byte public key.
// The zero value is not valid; use the constructors.
type Pattern struct {
	kind    Kind
	text    string // original base58 literal, for display and filenames
	decoded []byte
	offset  int // At only
}

// NewImmediate returns the immediate-segment pattern. It has no parameters.
func NewImmediate() Pattern {
	return Pattern{kind: Immediate}
}

// NewPrefix compiles a prefix pattern from a base58 literal.
func NewPrefix(text string) (Pattern, error) {
	return newVanity(Prefix, text, 0)
}

// NewSuffix compiles a suffix pattern from a base58 literal.
func NewSuffix(text string) (Pattern, error) {
	return newVanity(Suffix, text, 0)
}

// NewContains compiles a contains pattern from a base58 literal.
func NewContains(text string) (Pattern, error) {
	return newVanity(Contains, text, 0)
}

// NewAt compiles a fixed-offset pattern from a base58 literal.
// The decoded bytes must fit entirely within the key: offset >= 0 and
// offset+len(decoded) <= 32.
func NewAt(offset int, text string) (Pattern, error) {
	return newVanity(At, text, offset)
}

func newVanity(kind Kind, text string, offset int) (Pattern, error) {
	decoded, err := base58.Decode(text)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: invalid base58: %w", text, err)
	}
	if len(decoded) == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: decodes to zero bytes", text)
	}
	if len(decoded) > KeySize {
		return Pattern{}, fmt.Errorf("pattern %q: decodes to %d bytes, longer than a %d-byte key",
			text, len(decoded), KeySize)
	}
	if kind == At {
		if offset < 0 {
			return Pattern{}, fmt.Errorf("pattern %q: negative offset %d", text, offset)
		}
		if offset+len(decoded) > KeySize {
			return Pattern{}, fmt.Errorf("pattern %q: offset %d plus %d decoded bytes exceeds key size %d",
				text, offset, len(decoded), KeySize)
		}
	}
	return Pattern{kind: kind, text: text, decoded: decoded, offset: offset}, nil
}

// Kind returns the predicate family/placement.
func (p Pattern) Kind() Kind { return p.kind }

// Text returns the original base58 literal. Empty for the immediate family.
func (p Pattern) Text() string { return p.text }

// String renders the pattern the way it is written on the command line.
func (p Pattern) String() string {
	switch p.kind {
	case Immediate:
		return "immediate"
	case At:
		return fmt.Sprintf("at:%d:%s", p.offset, p.text)
	default:
		return fmt.Sprintf("%s:%s", p.kind, p.text)
	}
}

// Eval tests a 32-byte public key against the pattern. It is pure: the same
// key always yields the same result. The boolean reports whether the key
// matched; the Match carries the placement metadata.
func (p Pattern) Eval(key []byte) (Match, bool) {
	if len(key) != KeySize {
		return Match{Segment: -1, Offset: -1}, false
	}

	switch p.kind {
	case Immediate:
		// Fixed ascending scan so the reported segment is deterministic.
		for seg := 0; seg < KeySize/SegmentSize; seg++ {
			if SegmentIsImm32(key, seg) {
				return Match{Segment: seg, Offset: -1}, true
			}
		}

	case Prefix:
		if bytes.HasPrefix(key, p.decoded) {
			return Match{Segment: -1, Offset: 0}, true
		}

	case Suffix:
		if bytes.HasSuffix(key, p.decoded) {
			return Match{Segment: -1, Offset: KeySize - len(p.decoded)}, true
		}

	case Contains:
		if i := bytes.Index(key, p.decoded); i >= 0 {
			return Match{Segment: -1, Offset: i}, true
		}

	case At:
		if bytes.Equal(key[p.offset:p.offset+len(p.decoded)], p.decoded) {
			return Match{Segment: -1, Offset: p.offset}, true
		}
	}

	return Match{Segment: -1, Offset: -1}, false
}

// SegmentIsImm32 reports whether segment seg (0..3) of key satisfies the
// sign-extension rule: with lo = bytes 0..3 of the segment as a
// little-endian i32, the high 4 bytes must be all 0x00 when bit 31 of lo is
// clear and all 0xFF when it is set. A segment passing this check holds the
// same value as an i64 and as its truncated i32, so it can be emitted as a
// 32-bit immediate.
func SegmentIsImm32(key []byte, seg int) bool {
	off := seg * SegmentSize
	hi := byte(0x00)
	if key[off+3] >= 0x80 {
		hi = 0xFF
	}
	return key[off+4] == hi && key[off+5] == hi && key[off+6] == hi && key[off+7] == hi
}
