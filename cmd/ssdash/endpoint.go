package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/lib-ssdash"
	"github.com/spf13/pflag"
)

type EndpointCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection
}

var defaultEndpointCommand = &EndpointCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

const EndpointHelp = `ssdash endpoint -- Manage the endpoints on the checker server

Usage:
  ssdash endpoint add [OPTIONS...] SERVER_URL NAME HOST:PORT
  ssdash endpoint update [OPTIONS...] SERVER_URL ID
  ssdash endpoint remove [OPTIONS...] SERVER_URL ID
  ssdash endpoint check [OPTIONS...] SERVER_URL ID
  ssdash endpoint history [OPTIONS...] SERVER_URL ID

Every action except history needs login.

Options for add and update:
      --rename      New name of the endpoint. (update only)
      --address     New HOST:PORT of the endpoint. (update only)
      --password    Shared secret of the endpoint.
      --method      Cipher method. (default aes-256-gcm)
      --tags        Comma separated tags.
      --enable      Enable the endpoint.
      --disable     Disable the endpoint.

Options for history:
      --limit       Number of results to fetch. (default 20)

Common options:
      --config      Path to the YAML config file.
  -u, --user        Username and password for the checker server.
      --token-file  Path to keep the session token between runs.
      --verbose     Show debug logs.
  -h, --help        Show this help message and exit.
`

type endpointFlags struct {
	rename   string
	address  string
	password string
	method   string
	tags     string
	enable   bool
	disable  bool
	limit    int
}

func (c EndpointCommand) Run(args []string) int {
	command := args[0] + " endpoint"

	if len(args) < 3 || args[2] == "-h" || args[2] == "--help" {
		io.WriteString(c.OutStream, EndpointHelp)
		if len(args) < 3 {
			return 2
		}
		return 0
	}
	action := args[2]

	var f endpointFlags
	flags := pflag.NewFlagSet("ssdash endpoint "+action, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	c.Connection.AddFlags(flags)
	flags.StringVar(&f.rename, "rename", "", "New name")
	flags.StringVar(&f.address, "address", "", "New HOST:PORT")
	flags.StringVar(&f.password, "password", "", "Shared secret")
	flags.StringVar(&f.method, "method", "", "Cipher method")
	flags.StringVar(&f.tags, "tags", "", "Comma separated tags")
	flags.BoolVar(&f.enable, "enable", false, "Enable the endpoint")
	flags.BoolVar(&f.disable, "disable", false, "Disable the endpoint")
	flags.IntVar(&f.limit, "limit", 20, "Number of results")
	help := flags.BoolP("help", "h", false, "Show this message and exit")

	if err := flags.Parse(args[3:]); err != nil {
		printParseError(c.ErrStream, err, command)
		return 2
	}

	if *help {
		io.WriteString(c.OutStream, EndpointHelp)
		return 0
	}

	var want int
	switch action {
	case "add":
		want = 3
	case "update", "remove", "check", "history":
		want = 2
	default:
		printParseError(c.ErrStream, fmt.Errorf("unknown action: %q", action), command)
		return 2
	}
	if flags.NArg() != want {
		printParseError(c.ErrStream, fmt.Errorf("invalid argument: %s needs %d arguments but got %d", action, want, flags.NArg()), command)
		return 2
	}
	if f.enable && f.disable {
		printParseError(c.ErrStream, errors.New("invalid argument: --enable and --disable can not use in the same time"), command)
		return 2
	}

	rest := flags.Args()
	if err := c.Connection.Load(flags, rest[:1]); err != nil {
		printParseError(c.ErrStream, fmt.Errorf("invalid argument: %w", err), command)
		return 2
	}

	ctx := context.Background()
	logger := c.NewLogger(c.ErrStream)

	ctrl, _, err := c.Open(ctx, logger)
	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: failed to connect to the checker server: %s\n", err)
		return 1
	}

	var result any
	switch action {
	case "add":
		result, err = c.add(ctx, ctrl, flags, f, rest[1], rest[2])
	case "update":
		result, err = c.update(ctx, ctrl, flags, f, rest[1])
	case "remove":
		err = ctrl.DeleteEndpoint(ctx, rest[1])
	case "check":
		result, err = ctrl.TriggerCheck(ctx, rest[1])
	case "history":
		result, err = ctrl.History(ctx, rest[1], f.limit)
	}

	if err != nil {
		fmt.Fprintf(c.ErrStream, "error: %s\n", err)
		if errors.Is(err, ssdash.ErrInvalidEndpoint) {
			return 2
		}
		return 1
	}

	if result != nil {
		enc := json.NewEncoder(c.OutStream)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(c.ErrStream, "error: %s\n", err)
			return 1
		}
	}

	return 0
}

func parseAddress(addr string) (string, int, error) {
	host, rawPort, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", ssdash.ErrInvalidEndpoint, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid port: %q", ssdash.ErrInvalidEndpoint, rawPort)
	}
	return host, port, nil
}

// apply overwrites in with the flags that are set.
func (f endpointFlags) apply(flags *pflag.FlagSet, in *ssdash.EndpointInput) error {
	if flags.Changed("rename") {
		in.Name = f.rename
	}
	if flags.Changed("address") {
		host, port, err := parseAddress(f.address)
		if err != nil {
			return err
		}
		in.Host, in.Port = host, port
	}
	if flags.Changed("password") {
		in.Password = f.password
	}
	if flags.Changed("method") {
		in.Method = f.method
	}
	if flags.Changed("tags") {
		in.Tags = ssdash.ParseTags(f.tags)
	}
	if f.enable {
		in.Enabled = true
	}
	if f.disable {
		in.Enabled = false
	}
	return nil
}

func (c EndpointCommand) add(ctx context.Context, ctrl *reconcile.Controller, flags *pflag.FlagSet, f endpointFlags, name, address string) (ssdash.Endpoint, error) {
	if flags.Changed("rename") || flags.Changed("address") {
		return ssdash.Endpoint{}, fmt.Errorf("%w: --rename and --address are only for update", ssdash.ErrInvalidEndpoint)
	}

	host, port, err := parseAddress(address)
	if err != nil {
		return ssdash.Endpoint{}, err
	}

	in := ssdash.EndpointInput{
		Name:    name,
		Host:    host,
		Port:    port,
		Enabled: true,
		Tags:    []string{},
	}
	if err := f.apply(flags, &in); err != nil {
		return ssdash.Endpoint{}, err
	}

	return ctrl.CreateEndpoint(ctx, in)
}

func (c EndpointCommand) update(ctx context.Context, ctrl *reconcile.Controller, flags *pflag.FlagSet, f endpointFlags, id string) (ssdash.Endpoint, error) {
	current, err := ctrl.GetEndpoint(ctx, id)
	if err != nil {
		return ssdash.Endpoint{}, err
	}

	in := ssdash.InputOf(current)
	if err := f.apply(flags, &in); err != nil {
		return ssdash.Endpoint{}, err
	}

	return ctrl.UpdateEndpoint(ctx, id, in)
}
