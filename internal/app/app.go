package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"github.com/five82/foilwatch/internal/config"
	"github.com/five82/foilwatch/internal/logging"
	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/prefs"
	"github.com/five82/foilwatch/internal/state"
	"github.com/five82/foilwatch/internal/ui"
	"github.com/five82/foilwatch/internal/watch"
)

// Options configure a foilwatch run. Zero values keep the config file's
// settings.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/foilwatch/prefs.toml
	APIBase     string
	PollEvery   time.Duration
	LogPath     string
	OutputDir   string
	Backfill    bool
	StrictOrder bool
	// Console receives a human-readable copy of the log when set.
	Console io.Writer
}

var (
	probeAttempts uint = 3
	probeDelay         = 300 * time.Millisecond
)

// Run boots the foilwatch TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer env.close()
	ctx = env.logger.WithContext(ctx)

	if err := ensureAvailable(ctx, env.client); err != nil {
		return err
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	store := &state.Store{}
	ctrl := newController(ctx, env, store, nil)

	env.logger.Info().Str("api", env.client.BaseURL()).Msg("tui-started")
	return ui.Run(ui.Options{
		Context:    ctx,
		Store:      store,
		Controller: ctrl,
		Prefs:      userPrefs,
		PrefsPath:  opts.PrefsPath,
		LogPath:    env.cfg.LogFile,
		APIBase:    env.client.BaseURL(),
		OutputDir:  env.cfg.OutputDir,
	})
}

type environment struct {
	cfg    config.Config
	logger zerolog.Logger
	closer io.Closer
	client *optimizer.Client
}

func (e *environment) close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// bootstrap loads config, applies option overrides, opens the log and builds
// the HTTP client.
func bootstrap(opts Options) (*environment, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyOverrides(&cfg, opts); err != nil {
		return nil, err
	}

	logger, closer, err := logging.Open(logging.Options{
		Path:    cfg.LogFile,
		Level:   cfg.LogLevel,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	client, err := optimizer.NewClient(cfg.APIBase, cfg.RequestTimeout)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init optimizer client: %w", err)
	}

	return &environment{cfg: cfg, logger: logger, closer: closer, client: client}, nil
}

func applyOverrides(cfg *config.Config, opts Options) error {
	if base := strings.TrimSpace(opts.APIBase); base != "" {
		cfg.APIBase = base
	}
	if opts.PollEvery < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = opts.PollEvery
	}
	if strings.TrimSpace(opts.LogPath) != "" {
		path, err := config.ExpandPath(opts.LogPath)
		if err != nil {
			return fmt.Errorf("log path: %w", err)
		}
		cfg.LogFile = path
	}
	if strings.TrimSpace(opts.OutputDir) != "" {
		dir, err := config.ExpandPath(opts.OutputDir)
		if err != nil {
			return fmt.Errorf("output dir: %w", err)
		}
		cfg.OutputDir = dir
	}
	if opts.Backfill {
		cfg.Backfill = true
	}
	if opts.StrictOrder {
		cfg.OutOfOrder = watch.OrderFail
	}
	return nil
}

// ensureAvailable checks the optimizer answers HTTP before any job is
// posted. A non-2xx reply still proves the server is up.
func ensureAvailable(ctx context.Context, client *optimizer.Client) error {
	logger := zerolog.Ctx(ctx)
	err := retry.Do(
		func() error {
			_, err := client.Status(ctx)
			var te *optimizer.TransportError
			if err != nil && errors.As(err, &te) && te.StatusCode != 0 {
				return nil
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(probeAttempts),
		retry.Delay(probeDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			logger.Warn().Err(err).Uint("n", n).Msg("probe-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return fmt.Errorf("optimizer not reachable at %s: %w", client.BaseURL(), err)
	}
	return nil
}
