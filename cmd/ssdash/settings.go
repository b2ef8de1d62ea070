package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/lib-ssdash"
	"github.com/spf13/pflag"
)

type SettingsCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection
}

var defaultSettingsCommand = &SettingsCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const SettingsHelp = `ssdash settings -- Show or change the settings of the checker server

Usage: ssdash settings [OPTIONS...] SERVER_URL

This command needs login.

Options:
  -i, --interval    Set the check interval in seconds.
      --config      Path to the YAML config file.
  -u, --user        Username and password for the checker server.
      --token-file  Path to keep the session token between runs.
      --verbose     Show debug logs.
  -h, --help        Show this help message and exit.
`

func (c SettingsCommand) Run(args []string) int {
	flags := pflag.NewFlagSet("ssdash settings", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	c.Connection.AddFlags(flags)
	interval := flags.Uint64P("interval", "i", 0, "Check interval in seconds")
	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[2:]); err != nil {
		printParseError(c.ErrStream, err, args[0]+" settings")
		return 2
	}

	if *help {
		io.WriteString(c.OutStream, SettingsHelp)
		return 0
	}

	if err := c.Connection.Load(flags, flags.Args()); err != nil {
		printParseError(c.ErrStream, fmt.Errorf("invalid argument: %w", err), args[0]+" settings")
		return 2
	}

	ctx := context.Background()
	logger := c.NewLogger(c.ErrStream)

	ctrl, _, err := c.Open(ctx, logger)
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to connect to the checker server: %s\n", err)
		return 1
	}

	var s ssdash.Settings
	if flags.Changed("interval") {
		s, err = ctrl.UpdateSettings(ctx, *interval)
	} else {
		s, err = ctrl.Settings(ctx)
	}
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		if errors.Is(err, ssdash.ErrInvalidSettings) {
			return 2
		}
		return 1
	}

	enc := json.NewEncoder(c.OutStream)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		return 1
	}

	return 0
}
