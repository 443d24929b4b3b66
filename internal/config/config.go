package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the agent loop bounds. MaxRounds caps the reasoning loop so
// an assembler invocation always terminates; MaxRepairs is the number of
// automatic re-prompts after a failed plan validation.
const (
	DefaultMaxRounds   = 8
	DefaultMaxRepairs  = 1
	DefaultCallTimeout = 30 * time.Second
)

// Config holds the configuration for the application.
type Config struct {
	// ReasonerBackend selects the LLM backend: "gemini" (default) or "openai".
	ReasonerBackend string

	GeminiAPIKey    string
	GeminiModelName string

	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModelName string

	// Agent loop bounds
	MaxRounds   int
	MaxRepairs  int
	CallTimeout time.Duration

	// HTTP API
	Port string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	backend := os.Getenv("REASONER_BACKEND")
	if backend == "" {
		backend = "gemini"
	}
	if backend != "gemini" && backend != "openai" {
		return nil, fmt.Errorf("REASONER_BACKEND must be \"gemini\" or \"openai\", got %q", backend)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if backend == "gemini" && geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	geminiModelName := os.Getenv("GEMINI_MODEL_NAME")
	if geminiModelName == "" {
		geminiModelName = "gemini-1.5-flash"
	}

	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if backend == "openai" && openAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	openAIModelName := os.Getenv("OPENAI_MODEL_NAME")
	if openAIModelName == "" {
		openAIModelName = "gpt-4o-mini"
	}
	openAIBaseURL := os.Getenv("OPENAI_BASE_URL")

	maxRounds, err := intFromEnv("PLANNER_MAX_ROUNDS", DefaultMaxRounds)
	if err != nil {
		return nil, err
	}
	maxRepairs, err := intFromEnv("PLANNER_MAX_REPAIRS", DefaultMaxRepairs)
	if err != nil {
		return nil, err
	}

	callTimeout := DefaultCallTimeout
	if raw := os.Getenv("PLANNER_CALL_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("PLANNER_CALL_TIMEOUT_SECONDS must be a positive integer, got %q", raw)
		}
		callTimeout = time.Duration(secs) * time.Second
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Telegram Config (optional for the API server, required for the bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	var allowedIDs []int64
	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID %q: %w", raw, err)
		}
	}

	return &Config{
		ReasonerBackend:        backend,
		GeminiAPIKey:           geminiAPIKey,
		GeminiModelName:        geminiModelName,
		OpenAIAPIKey:           openAIAPIKey,
		OpenAIBaseURL:          openAIBaseURL,
		OpenAIModelName:        openAIModelName,
		MaxRounds:              maxRounds,
		MaxRepairs:             maxRepairs,
		CallTimeout:            callTimeout,
		Port:                   port,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
	}, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}
