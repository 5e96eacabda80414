// Command server exposes the duplicate finder over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/valyala/fasthttp"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/httpapi"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/normalizer"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/store/tomlfile"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/app"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/config"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/aggregate"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/similarity"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/ports"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/warmup"
)

func main() {
	// Parse command-line flags; set flags override the config file.
	configFile := flag.String("config", "", "Config file (default: dedupe.yaml in ., ./config or /etc/dedupe)")
	port := flag.String("port", "", "HTTP server port")
	warmUp := flag.Bool("warm-up", false, "Perform system warm-up on startup")
	logFile := flag.String("log-file", "", "Log file path (empty = stdout)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "warm-up":
			cfg.Server.WarmUp = *warmUp
		case "log-file":
			cfg.Log.File = *logFile
		}
	})
	// The server always logs JSON lines.
	cfg.Log.JSON = true

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", "error", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger ports.Logger) error {
	logger.Info("Starting dedupe HTTP server",
		"port", cfg.Server.Port,
		"read_timeout", cfg.Server.ReadTimeout,
		"write_timeout", cfg.Server.WriteTimeout,
		"max_request_size", cfg.Server.MaxRequestBodySize,
		"concurrency", cfg.Server.Concurrency,
		"store", cfg.Store.Type,
		"threshold", cfg.Matching.Threshold,
	)

	store, err := app.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if ts, ok := store.(*tomlfile.Store); ok {
		err := ts.Watch(ctx, func(err error) {
			if err != nil {
				logger.Warn("Template file reload failed", "path", ts.Path(), "error", err)
				return
			}
			logger.Info("Template file reloaded", "path", ts.Path())
		})
		if err != nil {
			logger.Warn("Template file watch disabled", "error", err)
		}
	}

	matcher := app.NewMatcher(cfg.Matching, store, logger)
	if cfg.Server.WarmUp {
		warmUpComponents(ctx, cfg, logger)
	}

	handler := httpapi.NewHandler(httpapi.Options{
		Matcher: matcher,
		Logger:  logger,
		RateLimit: httpapi.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RatePerIP,
			BurstSize:         cfg.Server.RateBurst,
		},
	})

	server := &fasthttp.Server{
		Handler:               handler.ServeFastHTTP,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		MaxRequestBodySize:    cfg.Server.MaxRequestBodySize,
		Concurrency:           cfg.Server.Concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
		Name:                  "DedupeServer",
	}

	// Periodically drop idle rate-limit buckets.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Debug("Rate limiter swept", "clients", handler.Limiter().Sweep())
			}
		}
	}()

	// Set up graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()

		logger.Info("Shutting down server...")
		if err := server.Shutdown(); err != nil {
			logger.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	addr := ":" + cfg.Server.Port
	logger.Info("Server listening", "address", addr, "cpus", runtime.NumCPU())
	if err := server.ListenAndServe(addr); err != nil {
		stop()
		<-idleConnsClosed
		return err
	}

	<-idleConnsClosed
	logger.Info("Server stopped")
	return nil
}

// warmUpComponents exercises the scoring path before the first request.
func warmUpComponents(ctx context.Context, cfg *config.Config, logger ports.Logger) {
	wcfg := warmup.DefaultConfig()
	if cfg.Server.WarmUpDuration > 0 {
		wcfg.Duration = cfg.Server.WarmUpDuration
	}

	wm := warmup.NewManager(logger, wcfg)
	wm.RegisterScorer(similarity.NewScorer(nil))
	wm.RegisterPairScorer(aggregate.New(cfg.Matching.FieldWeights(), nil))
	wm.RegisterNormalizer(normalizer.NewDefaultNormalizer())
	wm.RegisterRecordNormalizer(normalizer.NewContactNormalizer(enabledSettings()))
	wm.WarmUp(ctx)
}

func enabledSettings() domain.NormalizationSettings {
	s := domain.DefaultNormalizationSettings()
	s.Email.Enabled = true
	s.Name.Enabled = true
	return s
}
