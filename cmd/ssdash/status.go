package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/internal/endpoint"
	"github.com/macrat/ssdash/internal/mcp"
	"github.com/macrat/ssdash/internal/view"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

type StatusCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection
}

var defaultStatusCommand = &StatusCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const StatusHelp = `ssdash status -- Fetch the endpoint statuses once and print them

Usage: ssdash status [OPTIONS...] SERVER_URL

Options:
      --config      Path to the YAML config file.
  -u, --user        Username and password for the checker server.
      --token-file  Path to keep the session token between runs.
  -n, --name        Instance name.
  -j, --json        Print as JSON.
  -q, --jq          Filter the JSON output by jq query.
      --verbose     Show debug logs.
  -h, --help        Show this help message and exit.

Exit codes:
  0  Every enabled endpoint is up or degraded.
  1  Failed to fetch, or some endpoints are down.
  2  Invalid arguments.
`

var markColors = strings.NewReplacer(
	"\n✓ ", "\n\x1b[32m✓\x1b[0m ",
	"\n! ", "\n\x1b[33m!\x1b[0m ",
	"\n✗ ", "\n\x1b[31m✗\x1b[0m ",
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c StatusCommand) Run(args []string) int {
	flags := pflag.NewFlagSet("ssdash status", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	c.Connection.AddFlags(flags)
	toJSON := flags.BoolP("json", "j", false, "Print as JSON")
	query := flags.StringP("jq", "q", "", "Filter the JSON output by jq query")
	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[2:]); err != nil {
		printParseError(c.ErrStream, err, args[0]+" "+args[1])
		return 2
	}

	if *help {
		io.WriteString(c.OutStream, StatusHelp)
		return 0
	}

	if err := c.Connection.Load(flags, flags.Args()); err != nil {
		printParseError(c.ErrStream, fmt.Errorf("invalid argument: %w", err), args[0]+" "+args[1])
		return 2
	}

	var jq mcp.JQQuery
	if *query != "" {
		var err error
		if jq, err = mcp.ParseJQ(*query); err != nil {
			printParseError(c.ErrStream, fmt.Errorf("invalid argument: jq: %w", err), args[0]+" "+args[1])
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

	report := endpoint.MakeStatusReport(ctrl.Snapshot(), time.Now())

	switch {
	case *query != "":
		err = c.printJQ(ctx, jq, report)
	case *toJSON:
		enc := json.NewEncoder(c.OutStream)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	default:
		err = c.printText(report)
	}
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		return 1
	}

	for _, e := range report.Endpoints {
		if e.Status == view.StatusDown {
			return 1
		}
	}
	return 0
}

func (c StatusCommand) printText(report endpoint.StatusReport) error {
	if !isTerminal(c.OutStream) || os.Getenv("NO_COLOR") != "" {
		return endpoint.StatusTextTemplate.Execute(c.OutStream, report)
	}

	var buf bytes.Buffer
	if err := endpoint.StatusTextTemplate.Execute(&buf, report); err != nil {
		return err
	}
	_, err := markColors.WriteString(c.OutStream, buf.String())
	return err
}

func (c StatusCommand) printJQ(ctx context.Context, jq mcp.JQQuery, report endpoint.StatusReport) error {
	input, err := mcp.ToJQValue(report)
	if err != nil {
		return err
	}

	out, err := jq.Run(ctx, input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.OutStream)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Result)
}
