package main

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli"

	"github.com/dopplerlabs/doppler-keygen/internal/ui"
	"github.com/dopplerlabs/doppler-keygen/pkg/keypair"
)

// runNew generates one keypair with no pattern constraint, optionally
// derived from a fresh BIP-39 recovery phrase.
func runNew(c *cli.Context) error {
	cfg, _, err := loadSettings(c)
	if err != nil {
		return err
	}

	var kp keypair.Keypair
	var mnemonic string

	if c.Bool("mnemonic") {
		words := c.Int("words")
		var bits int
		switch words {
		case 12:
			bits = 128
		case 24:
			bits = 256
		default:
			return fmt.Errorf("new: words must be 12 or 24, got %d", words)
		}
		mnemonic, err = keypair.NewMnemonic(bits)
		if err != nil {
			return err
		}
		kp, err = keypair.FromMnemonic(mnemonic, "")
	} else {
		kp, err = keypair.Generate()
	}
	if err != nil {
		return err
	}

	path := c.String("outfile")
	if path == "" {
		path = filepath.Join(cfg.OutputDir, kp.Address()+".json")
	}
	if err := keypair.Save(path, kp); err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Address:  %s%s%s\n", ui.ColorCyan, kp.Address(), ui.ColorReset)
	if mnemonic != "" {
		fmt.Fprintf(w, "Mnemonic: %s\n", mnemonic)
		fmt.Fprintf(w, "%s%s! Anyone with this phrase controls the key.%s\n", ui.ColorRed, ui.ColorBold, ui.ColorReset)
	}
	fmt.Fprintf(w, "Saved to: %s\n", path)
	return nil
}
