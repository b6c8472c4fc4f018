// Command doppler-keygen searches for Ed25519 keypairs whose public keys
// have useful structure: segments that encode as sign-extended 32-bit
// immediates in generated sBPF assembly, or user-chosen vanity byte
// patterns. Found keypairs are written as JSON keypair files compatible
// with the standard Solana tooling.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/dopplerlabs/doppler-keygen/internal/config"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "0.2.0"

func main() {
	app := cli.NewApp()
	app.Name = "doppler-keygen"
	app.Usage = "mine Ed25519 keypairs for immediate-compatible or vanity public keys"
	app.Version = version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from `FILE` (YAML)",
		},
		cli.IntFlag{
			Name:  "workers, w",
			Usage: "worker goroutines, 0 = one per CPU `N`",
		},
		cli.StringFlag{
			Name:  "output-dir, o",
			Usage: "write keypair files into `DIR`",
		},
		cli.DurationFlag{
			Name:  "report-interval, r",
			Usage: "progress line interval `DURATION`",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable debug logging",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "grind",
			Usage:     "search for keys with a sign-extension compatible 8-byte segment",
			ArgsUsage: "[count]",
			Action:    runGrind,
		},
		{
			Name:      "vanity",
			Usage:     "search for a key matching a base58 byte pattern",
			ArgsUsage: "[prefix:|suffix:|contains:|at:<offset>:]<pattern>[:count]",
			Action:    runVanity,
		},
		{
			Name:      "batch",
			Usage:     "search for several patterns over one shared worker pool",
			ArgsUsage: "<pattern:count> [pattern:count ...]",
			Action:    runBatch,
		},
		{
			Name:      "address",
			Usage:     "render an existing keypair file as assembly constants",
			ArgsUsage: "<keypair-file>",
			Action:    runAddress,
		},
		{
			Name:  "new",
			Usage: "generate a single keypair without any pattern search",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "mnemonic, m",
					Usage: "derive the keypair from a fresh BIP-39 phrase",
				},
				cli.IntFlag{
					Name:  "words",
					Value: 12,
					Usage: "mnemonic length, 12 or 24 `WORDS`",
				},
				cli.StringFlag{
					Name:  "outfile, f",
					Usage: "write the keypair to `FILE` instead of <address>.json",
				},
			},
			Action: runNew,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "doppler-keygen: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings merges the optional config file with command-line
// overrides and builds the logger. Called at the top of every action so
// bad configuration is reported before any worker starts.
func loadSettings(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	if c.GlobalIsSet("workers") {
		cfg.Workers = c.GlobalInt("workers")
	}
	if c.GlobalIsSet("output-dir") {
		cfg.OutputDir = c.GlobalString("output-dir")
	}
	if c.GlobalIsSet("report-interval") {
		cfg.ReportInterval = config.Duration(c.GlobalDuration("report-interval"))
	}
	if c.GlobalBool("verbose") {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	return cfg, logger, nil
}
