package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mstgnz/posgate/handler"
	"github.com/mstgnz/posgate/infra/config"
	"github.com/mstgnz/posgate/infra/ledger"
	"github.com/mstgnz/posgate/infra/lock"
	"github.com/mstgnz/posgate/infra/logger"
	"github.com/mstgnz/posgate/infra/middle"
	"github.com/mstgnz/posgate/infra/opensearch"
	"github.com/mstgnz/posgate/provider"
	"github.com/mstgnz/posgate/router"

	// adapters register their factories on import
	_ "github.com/mstgnz/posgate/provider/iyzico"
	_ "github.com/mstgnz/posgate/provider/kuveytturk"
	_ "github.com/mstgnz/posgate/provider/sipay"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; the process environment wins
	_ = godotenv.Load(".env")

	cfg := config.Load()

	var osLogger *opensearch.Logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opensearch disabled: %v\n", err)
		} else {
			osLogger = opensearch.NewLogger(osClient)
		}
	}
	logger.InitGlobalLogger(cfg, osLogger)

	if err := run(cfg, osLogger); err != nil {
		logger.Fatal("Server stopped", err)
	}
}

func run(cfg *config.AppConfig, osLogger *opensearch.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providerConfig := config.NewProviderConfig()
	providerConfig.LoadFromEnv()

	creds := make(map[string]provider.Credentials)
	for name, values := range providerConfig.All() {
		creds[name] = provider.Credentials(values)
	}
	registry, err := provider.BuildRegistry(creds)
	if err != nil {
		return fmt.Errorf("configuring providers: %w", err)
	}
	if len(registry.Names()) == 0 {
		logger.Warn("No payment providers configured", logger.LogContext{
			Fields: map[string]any{"available": provider.FactoryNames()},
		})
	}

	recorder, err := ledger.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer recorder.Close()

	locker, err := lock.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer locker.Close()

	gateway := provider.NewGateway(registry, provider.NewHTTPTransport(provider.HTTPClientConfig{
		Timeout: cfg.RequestTimeout,
	}))

	paymentOpts := handler.PaymentHandlerOptions{
		LockTTL: cfg.OrderLockTTL,
		Timeout: cfg.RequestTimeout + 5*time.Second,
	}
	if locker != nil {
		paymentOpts.Locker = locker
	}
	var (
		events   handler.EventLogger
		searcher handler.EventSearcher
	)
	if osLogger != nil {
		events = osLogger
		searcher = osLogger
		paymentOpts.Events = osLogger
	}

	rateLimiter := middle.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	r := router.New(router.Handlers{
		Health:   handler.NewHealthHandler(registry, recorder, cfg.Environment),
		Payment:  handler.NewPaymentHandler(gateway, paymentOpts),
		Callback: handler.NewCallbackHandler(provider.NewCallbackProcessor(registry), recorder, events),
		Records:  handler.NewRecordsHandler(recorder, searcher),
	}, router.Options{
		APIKey:      cfg.APIKey,
		RateLimiter: rateLimiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API is running", logger.LogContext{Fields: map[string]any{
			"port":       cfg.Port,
			"providers":  registry.Names(),
			"ledger":     recorder.Driver(),
			"order_lock": locker != nil,
		}})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
