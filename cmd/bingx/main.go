package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bingx/internal/adapters/config"
	"bingx/internal/adapters/errors/noop"
	"bingx/internal/adapters/errors/sentry"
	"bingx/internal/metrics"
	"bingx/pkg/account"
	"bingx/pkg/client"
	"bingx/pkg/errors"
	"bingx/pkg/logger"
	"bingx/pkg/retry"
	"bingx/pkg/spot"
)

const usage = `usage: bingx <command> [args]

commands:
  ticker <symbol>   latest trade of a spot symbol
  time              exchange server time
  permissions       permissions of the configured API key`

func main() {
	os.Exit(realMain())
}

func realMain() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()

	tracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(tracker)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		startMetrics(cfg.Metrics.Addr, log)
	}

	tracker.AddBreadcrumb(ctx, os.Args[1], "command", errors.LevelInfo, map[string]interface{}{"args": os.Args[2:]})
	err = run(ctx, cfg, log, os.Args[1], os.Args[2:])
	if err != nil {
		log.ErrorWithContext(ctx, err, map[string]string{"command": os.Args[1]})
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if ferr := tracker.Flush(flushCtx); ferr != nil {
		log.Warnf("Failed to flush error tracker: %v", ferr)
	}

	if err != nil {
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, cmd string, args []string) error {
	backend, err := cfg.Build(ctx)
	if err != nil {
		return errors.Wrap(err, "build cache")
	}
	defer backend.Close()

	clientCfg, err := cfg.ClientConfig(backend)
	if err != nil {
		return err
	}
	clientCfg.OnDiagnostic = func(d client.Diagnostic) {
		log.Debugw("Cache diagnostic", "kind", d.Kind, "path", d.Path)
	}

	c, err := client.New(clientCfg, client.WithLogger(log))
	if err != nil {
		return err
	}

	log.Infof("Starting %s against %s (%s mode)", cfg.App.Name, c.BaseURL(), c.Mode())

	policy := retry.New(retry.DefaultConfig())

	return client.Within(ctx, c, func(ctx context.Context, c *client.Client) error {
		out, err := retry.Do(ctx, policy, func(ctx context.Context) (any, error) {
			return dispatch(ctx, c, cmd, args)
		})
		if err != nil {
			return err
		}
		return printJSON(out)
	})
}

func dispatch(ctx context.Context, c *client.Client, cmd string, args []string) (any, error) {
	market := spot.NewMarket(c)
	async := c.Mode() == client.ModeAsync

	switch cmd {
	case "ticker":
		if len(args) != 1 {
			return nil, errors.Wrap(errors.ErrInvalidInput, "ticker needs a symbol")
		}
		if async {
			return market.TickerPriceAsync(ctx, args[0], client.Cached()).Await(ctx)
		}
		return market.TickerPrice(ctx, args[0], client.Cached())
	case "time":
		var (
			t   time.Time
			err error
		)
		if async {
			t, err = market.ServerTimeAsync(ctx).Await(ctx)
		} else {
			t, err = market.ServerTime(ctx)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"serverTime": t.UnixMilli(), "iso": t.UTC().Format(time.RFC3339Nano)}, nil
	case "permissions":
		return account.New(c).APIPermissions(ctx, 0, client.Cached())
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown command %q\n%s", cmd, usage)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Debug("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

func startMetrics(addr string, log *logger.Logger) {
	metrics.Init()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warnf("Metrics server stopped: %v", err)
		}
	}()
	log.Infof("Serving metrics on %s/metrics", addr)
}
