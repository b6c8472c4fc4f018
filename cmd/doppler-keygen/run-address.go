package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"

	"github.com/dopplerlabs/doppler-keygen/pkg/asm"
	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
	"github.com/dopplerlabs/doppler-keygen/pkg/pattern"
)

// runAddress loads an existing keypair file and renders its public key as
// assembly constants plus the comparison code that checks a key against
// them. No search is involved.
func runAddress(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("address: a keypair file argument is required")
	}

	kp, err := keypair.Load(c.Args().First())
	if err != nil {
		return err
	}
	key := []byte(kp.Public)

	w := c.App.Writer
	fmt.Fprintf(w, "Public Key: %s\n", kp.Address())
	fmt.Fprintf(w, "\nPublic Key (hex): %s\n", hex.EncodeToString(key))

	fmt.Fprintf(w, "\nSegments:\n")
	for seg := 0; seg < 4; seg++ {
		status := "64-bit"
		if pattern.SegmentIsImm32(key, seg) {
			status = "imm32"
		}
		fmt.Fprintf(w, "  %d: 0x%016x (%s)\n", seg, asm.SegmentU64(key, seg), status)
	}

	fmt.Fprintf(w, "\n=== Assembly Constants ===\n")
	asm.WriteConstants(w, key)

	fmt.Fprintf(w, "\n=== Assembly Comparison Code ===\n")
	asm.WriteComparisons(w, key)

	return nil
}
