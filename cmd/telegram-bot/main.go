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
	"ai-vacation-planner/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Configuration
	godotenv.Load()
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramWebhookURL == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN and TELEGRAM_WEBHOOK_URL must be set for the bot")
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

	// 3. Wire the application and the Telegram bot
	application := app.New(cfg, reasoner)
	bot, err := telegram.NewBot(cfg, application)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 4. Start Server with Graceful Shutdown
	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", cfg.Port)
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
