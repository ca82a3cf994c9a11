package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"apshelper.com/job-helper/internal/api"
	"apshelper.com/job-helper/internal/config"
	"apshelper.com/job-helper/internal/core"
	"apshelper.com/job-helper/internal/logging"
	"apshelper.com/job-helper/internal/metrics"
	"apshelper.com/job-helper/internal/store"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg := config.AppConfig

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	seedFlag := flag.Bool("seed", false, "Seed the ILS reference data (with embeddings when an AI key is set) and exit")
	flag.Parse()

	if err := run(cfg, *seedFlag, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg config.Config, seed bool, logger *zap.Logger) error {
	ctx := context.Background()

	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbStore.Close()

	m := metrics.New()

	var llm core.LLM
	provider, err := core.NewLLM(ctx, cfg, m, logger)
	switch {
	case errors.Is(err, core.ErrAIUnavailable):
		logger.Warn("AI features disabled until an API key is configured", zap.String("env", cfg.APIKeyEnv()))
	case err != nil:
		return fmt.Errorf("failed to initialize AI provider: %w", err)
	default:
		llm = provider
		defer llm.Close()
	}

	if seed {
		var embed store.Embedder
		if llm != nil {
			embed = llm.Embed
		}
		n, err := dbStore.SeedILSReference(ctx, embed)
		if err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		logger.Info("Seeding complete, exiting", zap.Int("inserted", n), zap.Bool("embedded", embed != nil))
		return nil
	}

	ragService, err := core.NewRAGService(ctx, dbStore, llm, logger)
	if err != nil {
		return err
	}
	chatService := core.NewChatService(dbStore, ragService, llm, logger)
	entryService := core.NewEntryService(dbStore, llm, logger)
	assessmentService := core.NewAssessmentService(dbStore, llm, logger)

	apiHandler := api.NewAPIHandler(dbStore, chatService, entryService, assessmentService, cfg.APIKeyEnv(), logger)
	router := api.NewRouter(apiHandler, m, cfg.CORSOrigins)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // chat and assessment wait on the AI provider
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server. Press Ctrl+C to quit.", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("could not listen on %s: %w", serverAddr, err)
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case <-quit:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting gracefully")
	return nil
}
