package main

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/template"

	"github.com/macrat/ssdash/internal/config"
	"github.com/macrat/ssdash/internal/meta"
	"github.com/macrat/ssdash/internal/schedule"
	"github.com/spf13/pflag"
)

type SsdashCommand struct {
	OutStream io.Writer
	ErrStream io.Writer

	Connection

	Resync      schedule.Schedule
	ShowVersion bool
	ShowHelp    bool
	SaveConfig  string

	listen        string
	resync        string
	dashboardUser string
}

var defaultSsdashCommand = &SsdashCommand{
	OutStream: os.Stdout,
	ErrStream: os.Stderr,
}

//go:embed help.txt
var helpText string

func (cmd *SsdashCommand) PrintUsage(detail bool) {
	tmpl := template.Must(template.New("help.txt").Parse(helpText))
	tmpl.Execute(cmd.ErrStream, map[string]interface{}{
		"Version":       meta.Version,
		"DefaultListen": config.DefaultListen,
		"DefaultResync": config.DefaultResync,
		"Short":         !detail,
	})
}

func (cmd *SsdashCommand) ParseArgs(args []string) (exitCode int) {
	flags := pflag.NewFlagSet("ssdash", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	cmd.Connection.AddFlags(flags)
	flags.StringVarP(&cmd.listen, "listen", "l", "", "Listen address of the dashboard")
	flags.StringVar(&cmd.resync, "resync", "", "Schedule of the full refetch")
	flags.StringVar(&cmd.dashboardUser, "dashboard-user", "", "Username and password for the dashboard")
	flags.StringVar(&cmd.SaveConfig, "save-config", "", "Save the options to a config file and exit")
	flags.BoolVarP(&cmd.ShowVersion, "version", "v", false, "Show version")
	flags.BoolVarP(&cmd.ShowHelp, "help", "h", false, "Show help message")

	if err := flags.Parse(args[1:]); err != nil {
		printParseError(cmd.ErrStream, err, args[0])
		return 2
	}

	if cmd.ShowVersion || cmd.ShowHelp {
		return 0
	}

	if flags.NArg() == 0 && cmd.ConfigPath == "" {
		cmd.PrintUsage(false)
		return 2
	}

	err := cmd.Connection.Load(flags, flags.Args(), func(cfg *config.Config) {
		if flags.Changed("listen") {
			cfg.Listen = cmd.listen
		}
		if flags.Changed("resync") {
			cfg.Resync = cmd.resync
		}
		if flags.Changed("dashboard-user") {
			cfg.DashboardUser = cmd.dashboardUser
		}
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "invalid argument: %s\n", err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	cmd.Resync, err = schedule.Parse(cmd.Config.Resync)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "invalid argument: resync: %s\n", err)
		fmt.Fprintf(cmd.ErrStream, "\nPlease see `%s -h` for more information.\n", args[0])
		return 2
	}

	return 0
}

func (cmd *SsdashCommand) PrintVersion() {
	fmt.Fprintln(cmd.OutStream, meta.VersionString())
}

func (cmd *SsdashCommand) Run(args []string) (exitCode int) {
	if code := cmd.ParseArgs(args); code != 0 {
		return code
	}

	if cmd.ShowVersion {
		cmd.PrintVersion()
		return 0
	}

	if cmd.ShowHelp {
		cmd.PrintUsage(true)
		return 0
	}

	if cmd.SaveConfig != "" {
		if err := config.Save(cmd.SaveConfig, cmd.Config); err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: failed to save config: %s\n", err)
			return 1
		}
		fmt.Fprintf(cmd.OutStream, "config saved to %s\n", cmd.SaveConfig)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cmd.RunServer(ctx)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "status":
			os.Exit(defaultStatusCommand.Run(os.Args))
		case "export":
			os.Exit(defaultExportCommand.Run(os.Args))
		case "endpoint":
			os.Exit(defaultEndpointCommand.Run(os.Args))
		case "settings":
			os.Exit(defaultSettingsCommand.Run(os.Args))
		case "mcp":
			os.Exit(defaultMCPCommand.Run(os.Args))
		}
	}

	os.Exit(defaultSsdashCommand.Run(os.Args))
}
