package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/macrat/ssdash/internal/config"
	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/internal/session"
	"github.com/macrat/ssdash/internal/store"
	"github.com/macrat/ssdash/lib-ssdash"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Connection is the options to connect to the checker server.
// Every command shares these options.
type Connection struct {
	ConfigPath string
	Config     config.Config

	userInfo  string
	tokenFile string
	name      string
	verbose   bool
}

// AddFlags registers the connection options to flags.
func (c *Connection) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.ConfigPath, "config", "", "Path to config file")
	flags.StringVarP(&c.userInfo, "user", "u", "", "Username and password for the checker server")
	flags.StringVar(&c.tokenFile, "token-file", "", "Path to keep the session token")
	flags.StringVarP(&c.name, "name", "n", "", "Instance name")
	flags.BoolVar(&c.verbose, "verbose", false, "Show debug logs")
}

// Load reads the config file and overwrites it with the flags.
// The first positional argument is the server URL.
// The overrides are applied after the flags, to set the values of command specific flags.
func (c *Connection) Load(flags *pflag.FlagSet, args []string, overrides ...func(*config.Config)) error {
	if c.ConfigPath != "" {
		cfg, err := config.Load(c.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		c.Config = cfg
	}

	if flags.Changed("user") {
		c.Config.Username, c.Config.Password, _ = strings.Cut(c.userInfo, ":")
	}
	if flags.Changed("token-file") {
		c.Config.TokenFile = c.tokenFile
	}
	if flags.Changed("name") {
		c.Config.Name = c.name
	}

	switch len(args) {
	case 0:
	case 1:
		c.Config.Server = args[0]
	default:
		return fmt.Errorf("too many arguments: %s", strings.Join(args[1:], " "))
	}

	for _, f := range overrides {
		f(&c.Config)
	}

	config.ApplyDefaults(&c.Config)
	return config.Validate(c.Config)
}

// NewLogger makes a JSON logger that writes to w.
// The records are encoded by zap, and the packages receive it as *slog.Logger.
func (c *Connection) NewLogger(w io.Writer) *slog.Logger {
	level := zapcore.InfoLevel
	if c.verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)

	return slog.New(zapslog.NewHandler(core))
}

// Open makes a controller for the checker server.
//
// The saved session token is reused if it is still valid.
// Otherwise it logs in with the username and password if they are set, and saves the new token.
func (c *Connection) Open(ctx context.Context, logger *slog.Logger) (*reconcile.Controller, *ssdash.Client, error) {
	client, err := ssdash.NewClient(c.Config.Server)
	if err != nil {
		return nil, nil, err
	}

	s := store.New(c.Config.Name, logger)
	ctrl := reconcile.New(client, s, session.New(ssdash.AuthPublic), logger)

	token, err := config.LoadToken(c.Config.TokenFile)
	if err != nil {
		logger.Warn("failed to read token file", "path", c.Config.TokenFile, "error", err)
	}
	if token != "" {
		client.SetToken(token)
		ok, err := ctrl.CheckAuth(ctx)
		if err != nil && !errors.Is(err, ssdash.ErrUnauthorized) {
			return nil, nil, err
		}
		if !ok {
			logger.Info("saved session was expired")
			client.SetToken("")
		}
	}

	if ctrl.Gate.Level() != ssdash.AuthAuthenticated && c.Config.Username != "" {
		if err := ctrl.Login(ctx, c.Config.Username, c.Config.Password); err != nil {
			return nil, nil, err
		}
		if err := config.SaveToken(c.Config.TokenFile, client.Token()); err != nil {
			logger.Warn("failed to save token file", "path", c.Config.TokenFile, "error", err)
		}
	}

	return ctrl, client, nil
}

// Fetch replaces the store of ctrl with the current statuses on the checker server.
// It is for the commands that do not run the controller loop.
func Fetch(ctx context.Context, ctrl *reconcile.Controller) error {
	statuses, err := ctrl.Source.ListStatuses(ctx, ctrl.Gate.Level())
	if err != nil {
		return err
	}
	ctrl.Store.ReplaceAll(statuses)
	ctrl.Store.SetHealthy()
	return nil
}

func printParseError(w io.Writer, err error, command string) {
	fmt.Fprintln(w, err)
	fmt.Fprintf(w, "\nPlease see `%s -h` for more information.\n", command)
}
