package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/remobj/remobj-go/internal/config"
	wstransport "github.com/remobj/remobj-go/pkg/transport/websocket"
	"github.com/remobj/remobj-go/pkg/remobj"
)

var (
	provideListenAddr string
	provideAllowWrite bool
	providePolicy     string
	provideDevMode    bool
)

var provideCmd = &cobra.Command{
	Use:   "provide",
	Short: "Expose a root value over a websocket listener",
	Long: `Start a websocket listener and expose a value as a remobj provider
for every connecting consumer.

provide exposes a small built-in demo value (hostname, start time, an echo
callable, and a clock callable) so the CLI is useful for smoke-testing a
channel end to end:

  remobj provide --listen 127.0.0.1:8080
  remobj consume --dial ws://127.0.0.1:8080/ --op call --path Now`,
	RunE: runProvide,
}

func init() {
	provideCmd.Flags().StringVar(&provideListenAddr, "listen", "", "address to listen on (overrides config server.listen_addr)")
	provideCmd.Flags().BoolVar(&provideAllowWrite, "allow-write", false, "permit `set` operations against the exposed tree")
	provideCmd.Flags().StringVar(&providePolicy, "policy", "", "CEL policy expression evaluated per request")
	provideCmd.Flags().BoolVar(&provideDevMode, "dev", false, "send full error messages instead of short codes")
	rootCmd.AddCommand(provideCmd)
}

func runProvide(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if provideListenAddr != "" {
		cfg.Server.ListenAddr = provideListenAddr
	}
	if provideAllowWrite {
		cfg.Provider.AllowWrite = true
	}
	if providePolicy != "" {
		cfg.Provider.Policy = providePolicy
	}
	if provideDevMode {
		cfg.DevMode = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	opts := []remobj.ProvideOption{
		remobj.WithAllowWrite(cfg.Provider.AllowWrite),
		remobj.WithDevMode(cfg.DevMode),
		remobj.WithProviderLogger(logger),
	}
	if cfg.Provider.Policy != "" {
		p, err := remobj.NewPolicy(cfg.Provider.Policy)
		if err != nil {
			return fmt.Errorf("compiling provider.policy: %w", err)
		}
		opts = append(opts, remobj.WithPolicy(p))
	}
	if cfg.Trace.Enabled {
		opts = append(opts, remobj.WithProviderTrace())
	}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		opts = append(opts, remobj.WithProviderMetrics(remobj.NewMetrics(registry)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	defer stop()

	root := newDemoRoot()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ep, err := wstransport.Accept(w, r, logger)
		if err != nil {
			logger.Warn("provide: websocket upgrade failed", "error", err)
			return
		}
		p := remobj.Provide(root, ep, opts...)
		go func() {
			<-ctx.Done()
			_ = p.Close()
		}()
		logger.Info("provide: consumer connected", "remote", r.RemoteAddr)
	})

	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		metricsServer := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metricsMux}
		go func() {
			<-ctx.Done()
			_ = metricsServer.Close()
		}()
		go func() {
			logger.Info("provide: metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("provide: metrics server failed", "error", err)
			}
		}()
	}

	logger.Info("provide: listening", "addr", cfg.Server.ListenAddr, "allow_write", cfg.Provider.AllowWrite)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("provider server failed: %w", err)
	}
	logger.Info("provide: stopped")
	return nil
}
