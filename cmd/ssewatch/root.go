package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tmaxmax/serverevents"
	"github.com/tmaxmax/serverevents/internal/config"
	"github.com/tmaxmax/serverevents/transport"
	"github.com/tmaxmax/serverevents/urlpolicy"
)

// app holds what every subcommand needs once flags and the config file are merged.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	reg    *prometheus.Registry
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ssewatch",
		Short:         "Watch a server-sent events endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("keep-alive", false, "deliver keep-alive events")
	flags.Bool("secure-only", true, "reject endpoints that are neither https nor localhost")
	flags.Int("max-retries", 0, "reconnection attempts after a failure; negative retries forever")
	flags.Duration("reconnection-time", 0, "initial delay before reconnecting")
	flags.StringToString("header", nil, "additional request headers (key=value)")
	flags.String("last-event-id", "", "resume after the event with this ID")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newListenCommand(a), newStreamCommand(a), newCheckCommand(), newGetCommand(a))

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("keep-alive") {
		cfg.KeepAliveFriendly, _ = flags.GetBool("keep-alive")
	}
	if flags.Changed("secure-only") {
		cfg.SecureOnly, _ = flags.GetBool("secure-only")
	}
	if flags.Changed("max-retries") {
		cfg.MaxRetries, _ = flags.GetInt("max-retries")
	}
	if flags.Changed("reconnection-time") {
		cfg.ReconnectionTime, _ = flags.GetDuration("reconnection-time")
	}
	if flags.Changed("header") {
		headers, _ := flags.GetStringToString("header")
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}
	if flags.Changed("last-event-id") {
		cfg.LastEventID, _ = flags.GetString("last-event-id")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return err
	}
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if a.logger, err = zcfg.Build(); err != nil {
		return err
	}

	a.cfg = cfg
	a.reg = prometheus.NewRegistry()

	return nil
}

// endpoint picks the URL from the arguments or the config file and applies the admission policy.
func (a *app) endpoint(args []string) (string, error) {
	if len(args) > 0 {
		a.cfg.URL = args[0]
	}
	if err := a.cfg.Validate(); err != nil {
		return "", err
	}
	if a.cfg.SecureOnly {
		if _, err := urlpolicy.Check(a.cfg.URL); err != nil {
			return "", fmt.Errorf("endpoint %q refused: %w", a.cfg.URL, err)
		}
	}
	return a.cfg.URL, nil
}

func (a *app) session(ctx context.Context, args []string) (*serverevents.Session, error) {
	u, err := a.endpoint(args)
	if err != nil {
		return nil, err
	}

	metrics, err := transport.NewMetrics(a.reg)
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(a.cfg.Headers))
	for k, v := range a.cfg.Headers {
		header.Set(k, v)
	}

	s, err := serverevents.New(u,
		serverevents.WithLogger(a.logger),
		serverevents.WithHeader(header),
		serverevents.WithMaxRetries(a.cfg.MaxRetries),
		serverevents.WithReconnectionTime(a.cfg.ReconnectionTime),
		serverevents.WithLastEventID(a.cfg.LastEventID),
		serverevents.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	if a.cfg.MetricsAddr != "" {
		a.serveMetrics(ctx)
	}

	return s, nil
}

func (a *app) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("serving metrics", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
