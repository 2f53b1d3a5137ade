package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"swapmeet.ie/marketplace/internal/api"
	"swapmeet.ie/marketplace/internal/auth"
	"swapmeet.ie/marketplace/internal/config"
	"swapmeet.ie/marketplace/internal/core"
	"swapmeet.ie/marketplace/internal/logging"
	"swapmeet.ie/marketplace/internal/store"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.HTTPPort = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides HTTP_PORT)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger.Slog())
	if logging.ParseLevel(cfg.LogLevel) == slog.LevelDebug {
		logger.Debug(ctx, "service starting in DEBUG mode")
	}

	docStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer docStore.Close()

	var model core.Model = unconfiguredModel{}
	if cfg.GeminiAPIKey != "" {
		llmService, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, &http.Client{Timeout: 30 * time.Second}, logger)
		if err != nil {
			return err
		}
		defer llmService.Close()
		model = llmService
	} else {
		logger.Warn(ctx, "GEMINI_API_KEY not set, valuation endpoints will report errors")
	}

	if cfg.StripeKey == "" {
		logger.Warn(ctx, "STRIPE_KEY not set, payment endpoints will report processor errors")
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	logger.Info(ctx, "session tokens configured", "ttl", tokens.TTL().String())
	apiHandler := api.NewAPIHandler(api.Services{
		Identity:    core.NewIdentityService(docStore, tokens, cfg.BcryptCost, logger),
		Listings:    core.NewListingService(docStore, logger),
		Negotiation: core.NewNegotiationService(docStore, logger),
		Valuation:   core.NewValuationService(model, logger),
		Payments:    core.NewPaymentService(core.NewStripeProcessor(cfg.StripeKey), cfg.DeployURL, logger),
		Tokens:      tokens,
	}, logger)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // model calls with images can take a while
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "starting server", "addr", serverAddr, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("could not listen on %s: %w", serverAddr, err)
	case <-quit:
	}
	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info(ctx, "server exited gracefully")
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (store.DocumentStore, error) {
	switch cfg.StoreBackend {
	case config.BackendFirestore:
		s, err := store.NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize firestore: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewSQLiteStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return s, nil
	}
}

// unconfiguredModel stands in when no model key is set.
type unconfiguredModel struct{}

func (unconfiguredModel) GenerateJSON(ctx context.Context, system, prompt string, imageURLs []string) (string, error) {
	return "", errors.New("language model is not configured")
}
