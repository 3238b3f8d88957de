// alif-engine orchestrates the review engine: a gin HTTP API in front of a
// Postgres-backed knowledge store, with a background worker pool running
// material generation and flag evaluation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/alif-engine/core/pkg/api"
	"github.com/alif-engine/core/pkg/config"
	"github.com/alif-engine/core/pkg/database"
	"github.com/alif-engine/core/pkg/dispatch"
	"github.com/alif-engine/core/pkg/events"
	"github.com/alif-engine/core/pkg/flags"
	"github.com/alif-engine/core/pkg/grammar"
	"github.com/alif-engine/core/pkg/llm"
	"github.com/alif-engine/core/pkg/pipeline"
	"github.com/alif-engine/core/pkg/queue"
	"github.com/alif-engine/core/pkg/selector"
	"github.com/alif-engine/core/pkg/services"
	"github.com/alif-engine/core/pkg/store"
	"github.com/alif-engine/core/pkg/wordselector"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")
	gin.SetMode(getEnv("GIN_MODE", "release"))

	log.Printf("Starting alif-engine")
	log.Printf("HTTP Port: %s", httpPort)

	ctx := context.Background()

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to PostgreSQL database, schema migrated")

	llmRegistry, err := config.LoadLLMProviderRegistryFromEnv()
	if err != nil {
		log.Fatalf("Failed to load LLM provider registry: %v", err)
	}
	if llmRegistry.Len() == 0 {
		slog.Warn("no LLM providers configured; material generation and flag evaluation will fail every job")
	}

	s := store.New(dbClient.DB())
	recorder := events.NewRecorder(s)

	srsSvc := services.NewSRSService(s)
	acquisitionSvc := services.NewAcquisitionService(s, srsSvc)
	grammarSvc := grammar.NewService(s)
	wordSelectorSvc := wordselector.NewService(s, acquisitionSvc)
	selectorSvc := selector.NewService(s, wordSelectorSvc, grammarSvc, recorder)
	dispatchSvc := dispatch.NewService(s, acquisitionSvc, srsSvc, grammarSvc, recorder)

	llmAdapter := llm.NewAdapter(llmRegistry)
	materialPipeline := pipeline.NewPipeline(s, llmAdapter, wordSelectorSvc, recorder)
	flagEvaluator := flags.NewEvaluator(s, llmAdapter, recorder)

	podID := getEnv("POD_ID", hostnameOrFallback())
	jobSource := queue.NewDBJobSource(s, podID)
	queueCfg, err := config.LoadQueueConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load queue config: %v", err)
	}
	executor := &pipelineExecutor{pipeline: materialPipeline, evaluator: flagEvaluator}
	workerPool := queue.NewWorkerPool(podID, jobSource, queueCfg, executor)

	if err := workerPool.Start(ctx); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}
	stopWarmCacheSweep := startWarmCacheSweep(ctx, materialPipeline, queueCfg.WarmCacheInterval)

	server := api.NewServer(s, dbClient, llmRegistry)
	server.SetSelector(selectorSvc)
	server.SetDispatch(dispatchSvc)
	server.SetGrammar(grammarSvc)
	server.SetAcquisition(acquisitionSvc)
	server.SetSRS(srsSvc)
	server.SetWorkerPool(workerPool)
	if err := server.ValidateWiring(); err != nil {
		log.Fatalf("Server wiring incomplete: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s", httpPort)
		if err := server.Start(":" + httpPort); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down", sig)
	case err := <-errCh:
		log.Printf("HTTP server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), queueCfg.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	close(stopWarmCacheSweep)
	workerPool.Stop()

	if err := dbClient.Close(); err != nil {
		log.Printf("Error closing database client: %v", err)
	}

	log.Println("Shutdown complete")
}

// pipelineExecutor dispatches one worker pool's jobs to whichever
// component owns that job kind: gap-fill/warm-cache sweeps go to the
// material pipeline, flag-raise jobs go to the content flag evaluator. A
// single pool schedules all three kinds through one queue, matching the
// teacher's one-pool-many-job-kinds dispatch loop.
type pipelineExecutor struct {
	pipeline  *pipeline.Pipeline
	evaluator *flags.Evaluator
}

func (e *pipelineExecutor) Execute(ctx context.Context, job *queue.Job) *queue.JobResult {
	if job.Kind == queue.JobKindFlagEval {
		return e.evaluator.Execute(ctx, job)
	}
	return e.pipeline.Execute(ctx, job)
}

// startWarmCacheSweep periodically enqueues a warm-cache run at interval,
// independent of the per-job poll loop, and returns a channel that stops
// the sweep when closed.
func startWarmCacheSweep(ctx context.Context, p *pipeline.Pipeline, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := p.WarmCache(ctx); err != nil {
					slog.Error("warm cache sweep failed", "error", err)
				}
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return stop
}

func hostnameOrFallback() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return fmt.Sprintf("pod-%d", time.Now().UnixNano())
}
