package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/macrat/ssdash/internal/config"
	mcputil "github.com/macrat/ssdash/internal/mcp"
	"github.com/macrat/ssdash/internal/schedule"
	"github.com/macrat/ssdash/internal/stream"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
)

// MCPCommand represents the MCP subcommand.
type MCPCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection
}

var defaultMCPCommand = &MCPCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const MCPHelp = `ssdash mcp -- Start local MCP server that follows the checker server

Usage: ssdash mcp [OPTIONS...] SERVER_URL

The statuses are kept up to date by the push stream while the MCP session is open.

Options:
      --config      Path to the YAML config file.
  -u, --user        Username and password for the checker server.
                    check_endpoint tool needs this.
      --token-file  Path to keep the session token between runs.
  -n, --name        Instance name.
      --resync      Schedule of the full refetch. (default 5m)
      --verbose     Show debug logs.
  -h, --help        Show this help message and exit.
`

func (cmd *MCPCommand) Run(args []string) int {
	flags := pflag.NewFlagSet("ssdash mcp", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	cmd.Connection.AddFlags(flags)
	resync := flags.String("resync", "", "Schedule of the full refetch")
	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[2:]); err != nil {
		printParseError(cmd.ErrStream, err, args[0]+" mcp")
		return 2
	}

	if *help {
		io.WriteString(cmd.OutStream, MCPHelp)
		return 0
	}

	err := cmd.Connection.Load(flags, flags.Args(), func(cfg *config.Config) {
		if flags.Changed("resync") {
			cfg.Resync = *resync
		}
	})
	if err != nil {
		printParseError(cmd.ErrStream, fmt.Errorf("invalid argument: %w", err), args[0]+" mcp")
		return 2
	}

	sched, err := schedule.Parse(cmd.Config.Resync)
	if err != nil {
		printParseError(cmd.ErrStream, fmt.Errorf("invalid argument: resync: %w", err), args[0]+" mcp")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// stdout is the MCP transport, so logs must go to stderr.
	logger := cmd.NewLogger(cmd.ErrStream)

	ctrl, client, err := cmd.Open(ctx, logger)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to connect to the checker server: %s\n", err)
		return 1
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()
	defer cancel()

	signals := make(chan stream.Signal)
	wg.Add(2)
	go func() {
		stream.New(client, logger).Run(ctx, signals)
		wg.Done()
	}()
	go func() {
		ctrl.Run(ctx, signals)
		wg.Done()
	}()

	stopResync := schedule.Start(sched, ctrl.Refresh)
	defer stopResync()

	server := mcputil.NewServer(ctrl)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		fmt.Fprintf(cmd.ErrStream, "error: MCP server error: %s\n", err)
		return 1
	}

	return 0
}
