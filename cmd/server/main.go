// Package main is the entry point for the Reader Tools API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimizu-Technology/reader-tools-api/internal/config"
	"github.com/Shimizu-Technology/reader-tools-api/internal/database"
	"github.com/Shimizu-Technology/reader-tools-api/internal/handlers"
	"github.com/Shimizu-Technology/reader-tools-api/internal/router"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/ingest"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/llm"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/progress"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/storage"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/summarize"
	"github.com/Shimizu-Technology/reader-tools-api/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 Reader Tools API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, chunk_size=%d, gin_mode=%s",
		cfg.Port, cfg.WorkerCount, cfg.ChunkSize, cfg.GinMode)

	os.Setenv("GIN_MODE", cfg.GinMode)

	// Step 2: Connect to Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✅ Database connected")

	// Run migrations
	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Step 3: Create Services
	store, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize object storage: %v", err)
	}
	log.Printf("✅ Object storage ready (bucket: %s)", cfg.S3Bucket)

	ingestor := ingest.New(db, store, cfg.ChunkSize)

	llmClient := llm.New(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	if llmClient.IsConfigured() {
		log.Printf("✅ AI features enabled (model: %s)", cfg.OpenRouterModel)
	} else {
		log.Println("⚠️  AI features disabled (set OPENROUTER_API_KEY to enable summaries and Q&A)")
	}

	summarizer := summarize.New(db, &progress.Windower{DB: db})

	// Step 4: Create and Start Worker Pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, ingestor)
	wp.Start()
	defer wp.Stop()

	// Step 5: Setup HTTP Router
	h := handlers.NewHandler(db, wp, ingestor, store, llmClient, summarizer, cfg.JWTSecret)
	r := router.Setup(h, db, cfg.AllowedOrigins, cfg.DefaultRateLimit)

	// Step 6: Start the HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // summary generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 Health check: http://localhost:%s/api/v1/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 7: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("👋 Server stopped. Goodbye!")
}
