// Package asm renders a public key as sBPF assembly constants and the
// comparison code that checks an account key against them. Segments whose
// bytes satisfy the sign-extension rule are emitted as 32-bit immediates,
// which jne can encode inline; the rest need a 64-bit load into a scratch
// register first.
package asm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// SegmentU64 returns segment seg (0..3) of key as a little-endian uint64.
func SegmentU64(key []byte, seg int) uint64 {
	off := seg * pattern.SegmentSize
	return binary.LittleEndian.Uint64(key[off : off+8])
}

// SegmentI32 returns the low 4 bytes of segment seg as a little-endian
// signed 32-bit value, the immediate a matching segment encodes.
func SegmentI32(key []byte, seg int) int32 {
	off := seg * pattern.SegmentSize
	return int32(binary.LittleEndian.Uint32(key[off : off+4]))
}

// WriteConstants emits one .equ per segment. Immediate-compatible segments
// use their truncated 32-bit value; the others keep the full 64 bits.
func WriteConstants(w io.Writer, key []byte) {
	for seg := 0; seg < 4; seg++ {
		if pattern.SegmentIsImm32(key, seg) {
			fmt.Fprintf(w, ".equ EXPECTED_ADMIN_KEY_%d, 0x%08x\n", seg, uint32(SegmentI32(key, seg)))
		} else {
			fmt.Fprintf(w, ".equ EXPECTED_ADMIN_KEY_%d, 0x%016x\n", seg, SegmentU64(key, seg))
		}
	}
}

// WriteComparisons emits the per-segment comparison stanzas jumping to
// abort on mismatch.
func WriteComparisons(w io.Writer, key []byte) {
	for seg := 0; seg < 4; seg++ {
		fmt.Fprintf(w, "  ldxdw r2, [r1+%d]\n", seg*pattern.SegmentSize)
		if pattern.SegmentIsImm32(key, seg) {
			fmt.Fprintf(w, "  jne r2, EXPECTED_ADMIN_KEY_%d, abort\n", seg)
		} else {
			fmt.Fprintf(w, "  lddw r3, EXPECTED_ADMIN_KEY_%d\n", seg)
			fmt.Fprintf(w, "  jne r2, r3, abort\n")
		}
		fmt.Fprintln(w)
	}
}
