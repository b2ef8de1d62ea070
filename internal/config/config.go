// Package config loads the configuration file of ssdash.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen = "127.0.0.1:9100"
	DefaultResync = "5m"
)

// Config is the settings of ssdash.
// Command line flags override the values in the file.
type Config struct {
	// Server is the base URL of the checker server.
	Server string `yaml:"server"`

	// Username and Password are used to login to the checker server.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// TokenFile is the path to keep the session token between invocations.
	TokenFile string `yaml:"token_file,omitempty"`

	// Listen is the address of the local dashboard.
	Listen string `yaml:"listen"`

	// Resync is the schedule of full refetch, like "5m" or "*/10 * * * ?".
	Resync string `yaml:"resync"`

	// DashboardUser is "user:password" for basic authentication of the local dashboard.
	// The password can be a bcrypt hash.
	DashboardUser string `yaml:"dashboard_user,omitempty"`

	// Name is the instance name shown in the dashboard.
	Name string `yaml:"name,omitempty"`
}

// Load reads a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes cfg as a YAML file.
// The file is readable only by the owner, because it may include the password.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// ApplyDefaults fills empty fields.
func ApplyDefaults(cfg *Config) {
	cfg.Server = strings.TrimSpace(cfg.Server)
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Resync == "" {
		cfg.Resync = DefaultResync
	}
}

// Validate checks the values.
func Validate(cfg Config) error {
	if cfg.Server == "" {
		return errors.New("server URL is required")
	}
	u, err := url.Parse(cfg.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL: %q", cfg.Server)
	}

	if (cfg.Username == "") != (cfg.Password == "") {
		return errors.New("username and password should be set together")
	}

	if cfg.DashboardUser != "" && !strings.Contains(cfg.DashboardUser, ":") {
		return fmt.Errorf("dashboard_user should be \"user:password\" format")
	}

	return nil
}

// LoadToken reads the session token from path.
// It returns an empty string without error if the file does not exist.
func LoadToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveToken writes the session token to path.
// An empty token removes the file.
func SaveToken(path, token string) error {
	if path == "" {
		return nil
	}

	if token == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}
