package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-vacation-planner/internal/app"
	"ai-vacation-planner/internal/config"
	"ai-vacation-planner/internal/llm"
	"ai-vacation-planner/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Configuration
	godotenv.Load()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// 2. Initialize the reasoning backend
	var reasoner llm.Reasoner
	switch cfg.ReasonerBackend {
	case "openai":
		reasoner = llm.NewOpenAIReasoner(cfg)
	default:
		var closer llm.Closer
		reasoner, closer, err = llm.NewGeminiReasoner(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini reasoner: %v", err)
		}
		defer closer.Close()
	}

	// 3. Wire the application and HTTP layer
	application := app.New(cfg, reasoner)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(application).Router(),
	}

	// 4. Start Server with Graceful Shutdown
	go func() {
		log.Printf("Vacation planner API listening on port %s (model %s)", cfg.Port, reasoner.Model())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
