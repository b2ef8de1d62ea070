package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/macrat/ssdash/internal/export"
	"github.com/spf13/pflag"
)

type ExportCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection
}

var defaultExportCommand = &ExportCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const ExportHelp = `ssdash export -- Dump the check history of every endpoint

Usage: ssdash export [OPTIONS...] SERVER_URL

Options:
  -o, --output      Output file. (default stdout)

  -c, --csv         Export as CSV. (default format)
  -l, --ltsv        Export as LTSV.
  -x, --xlsx        Export as XLSX.

      --config      Path to the YAML config file.
  -u, --user        Username and password for the checker server.
                    The error messages are included only if logged in.
      --token-file  Path to keep the session token between runs.
      --verbose     Show debug logs.
  -h, --help        Show this help message and exit.
`

func (c ExportCommand) Run(args []string) int {
	flags := pflag.NewFlagSet("ssdash export", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	c.Connection.AddFlags(flags)
	outputPath := flags.StringP("output", "o", "", "Output file")

	toCsv := flags.BoolP("csv", "c", false, "Export as CSV")
	toLtsv := flags.BoolP("ltsv", "l", false, "Export as LTSV")
	toXlsx := flags.BoolP("xlsx", "x", false, "Export as XLSX")

	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[2:]); err != nil {
		printParseError(c.ErrStream, err, args[0]+" "+args[1])
		return 2
	}

	if *help {
		io.WriteString(c.OutStream, ExportHelp)
		return 0
	}

	count := 0
	for _, b := range []bool{*toCsv, *toLtsv, *toXlsx} {
		if b {
			count++
		}
	}
	if count > 1 {
		fmt.Fprintln(c.ErrStream, "error: flags for output format can not use multiple in the same time.")
		return 2
	}

	if err := c.Connection.Load(flags, flags.Args()); err != nil {
		printParseError(c.ErrStream, fmt.Errorf("invalid argument: %w", err), args[0]+" "+args[1])
		return 2
	}

	output := c.OutStream
	if *outputPath == "" || *outputPath == "-" {
		if *toXlsx && isTerminal(c.OutStream) {
			fmt.Fprintln(c.ErrStream, "error: can not write xlsx format to stdout. please redirect or use -o option.")
			return 2
		}
	}

	ctx := context.Background()
	logger := c.NewLogger(c.ErrStream)

	ctrl, _, err := c.Open(ctx, logger)
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to connect to the checker server: %s\n", err)
		return 1
	}
	if err := Fetch(ctx, ctrl); err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to fetch statuses: %s\n", err)
		return 1
	}

	snap := ctrl.Snapshot()
	rows := export.Rows(snap.Statuses, snap.Level)

	if *outputPath != "" && *outputPath != "-" {
		f, err := os.Create(*outputPath)
		if err != nil {
			fmt.Fprintf(c.ErrStream, "error: failed to open output file: %s\n", err)
			return 1
		}
		defer f.Close()
		output = f
	}

	switch {
	case *toLtsv:
		err = export.ToLTSV(output, rows)
	case *toXlsx:
		err = export.ToXlsx(output, rows, time.Now())
	default:
		err = export.ToCSV(output, rows)
	}
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to write: %s\n", err)
		return 1
	}

	return 0
}
