package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/foilwatch/internal/watch"
)

// Config captures everything foilwatch reads from config.toml.
type Config struct {
	APIBase        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	OutputDir      string
	LogFile        string
	LogLevel       string
	OutOfOrder     watch.OrderPolicy
	Backfill       bool
}

const (
	defaultConfigPath     = "~/.config/foilwatch/config.toml"
	defaultAPIBase        = "127.0.0.1:8081"
	defaultOutputDir      = "~/.local/share/foilwatch/outputs"
	defaultLogFile        = "~/.local/share/foilwatch/foilwatch.log"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Defaults returns the configuration used when no file exists.
func Defaults() Config {
	return Config{
		APIBase:        defaultAPIBase,
		PollInterval:   watch.DefaultInterval,
		RequestTimeout: defaultRequestTimeout,
		OutputDir:      mustExpand(defaultOutputDir),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		OutOfOrder:     watch.OrderSkip,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIBase          string `toml:"api_base"`
		PollIntervalMS   int    `toml:"poll_interval_ms"`
		RequestTimeoutMS int    `toml:"request_timeout_ms"`
		OutputDir        string `toml:"output_dir"`
		LogFile          string `toml:"log_file"`
		LogLevel         string `toml:"log_level"`
		OutOfOrder       string `toml:"out_of_order"`
		Backfill         bool   `toml:"backfill"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if base := strings.TrimSpace(raw.APIBase); base != "" {
		cfg.APIBase = base
	}
	if raw.PollIntervalMS < 0 || raw.RequestTimeoutMS < 0 {
		return Config{}, fmt.Errorf("parse config: durations must not be negative")
	}
	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.RequestTimeoutMS > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutMS) * time.Millisecond
	}
	if dir := strings.TrimSpace(raw.OutputDir); dir != "" {
		cfg.OutputDir = mustExpand(dir)
	}
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	order, err := watch.ParseOrderPolicy(raw.OutOfOrder)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.OutOfOrder = order
	cfg.Backfill = raw.Backfill

	return cfg, nil
}

// WatchConfig returns the poll-loop settings.
func (c Config) WatchConfig() watch.Config {
	return watch.Config{
		Interval: c.PollInterval,
		Order:    c.OutOfOrder,
		Backfill: c.Backfill,
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
