// Package config loads configuration from flags, environment variables and
// an optional TOML file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	// Server
	Host        string
	Port        int
	Directory   string // base directory for static files and relative scan roots
	MetricsAddr string // empty disables the metrics listener

	// Logging
	LogLevel  string
	LogFormat string

	// Change streams
	WatchInterval time.Duration

	// ConfigFile is the TOML file the values were read from, if any.
	ConfigFile string
}

// fileConfig mirrors Config for TOML decoding. Unset keys stay nil.
type fileConfig struct {
	Host          *string `toml:"host"`
	Port          *int    `toml:"port"`
	Directory     *string `toml:"directory"`
	MetricsAddr   *string `toml:"metrics_addr"`
	LogLevel      *string `toml:"log_level"`
	LogFormat     *string `toml:"log_format"`
	WatchInterval *string `toml:"watch_interval"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Host:          "localhost",
		Port:          8000,
		Directory:     ".",
		LogLevel:      "info",
		LogFormat:     "console",
		WatchInterval: 2 * time.Second,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration. Precedence, highest first: command-line
// flags, environment variables, the TOML file named by -config or
// SIMVIEWER_CONFIG, defaults.
func Load(args []string) (*Config, error) {
	def := Defaults()

	fset := flag.NewFlagSet("simviewer", flag.ContinueOnError)
	var (
		port          int
		host          string
		directory     string
		metricsAddr   string
		logLevel      string
		logFormat     string
		watchInterval time.Duration
		configFile    string
	)
	fset.IntVar(&port, "port", def.Port, "Port to run the server on")
	fset.IntVar(&port, "p", def.Port, "Port to run the server on (shorthand)")
	fset.StringVar(&host, "host", def.Host, "Host to bind the server to")
	fset.StringVar(&directory, "directory", def.Directory, "Directory to serve files from")
	fset.StringVar(&directory, "d", def.Directory, "Directory to serve files from (shorthand)")
	fset.StringVar(&metricsAddr, "metrics-addr", def.MetricsAddr, "Prometheus metrics listen address (empty disables)")
	fset.StringVar(&logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	fset.StringVar(&logFormat, "log-format", def.LogFormat, "Log format: console or json")
	fset.DurationVar(&watchInterval, "watch-interval", def.WatchInterval, "Polling interval for /api/events")
	fset.StringVar(&configFile, "config", "", "Optional TOML configuration file")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := def
	if configFile == "" {
		configFile = os.Getenv("SIMVIEWER_CONFIG")
	}
	if configFile != "" {
		if err := applyFile(cfg, configFile); err != nil {
			return nil, err
		}
		cfg.ConfigFile = configFile
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if set["port"] || set["p"] {
		cfg.Port = port
	}
	if set["host"] {
		cfg.Host = host
	}
	if set["directory"] || set["d"] {
		cfg.Directory = directory
	}
	if set["metrics-addr"] {
		cfg.MetricsAddr = metricsAddr
	}
	if set["log-level"] {
		cfg.LogLevel = logLevel
	}
	if set["log-format"] {
		cfg.LogFormat = logFormat
	}
	if set["watch-interval"] {
		cfg.WatchInterval = watchInterval
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Directory != nil {
		cfg.Directory = *fc.Directory
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.WatchInterval != nil {
		d, err := time.ParseDuration(*fc.WatchInterval)
		if err != nil {
			return fmt.Errorf("config %s: watch_interval: %w", path, err)
		}
		cfg.WatchInterval = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Host = envOr("HOST", cfg.Host)
	cfg.Directory = envOr("SERVE_DIR", cfg.Directory)
	cfg.MetricsAddr = envOr("METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("WATCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WATCH_INTERVAL: %w", err)
		}
		cfg.WatchInterval = d
	}
	return nil
}

// Validate checks the configuration and resolves Directory to an absolute
// path.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", c.WatchInterval)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.LogFormat)
	}

	dir, err := filepath.Abs(c.Directory)
	if err != nil {
		return fmt.Errorf("resolve directory: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	c.Directory = dir
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
