package config

import (
	"os"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("GEMINI_MODEL_NAME")
		os.Unsetenv("REASONER_BACKEND")
		os.Unsetenv("PLANNER_MAX_ROUNDS")
		os.Unsetenv("PLANNER_MAX_REPAIRS")
		os.Unsetenv("PORT")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.ReasonerBackend != "gemini" {
			t.Errorf("Expected gemini backend by default, got %q", cfg.ReasonerBackend)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got %q", cfg.GeminiAPIKey)
		}
		if cfg.GeminiModelName != "gemini-1.5-flash" {
			t.Errorf("Expected default model, got %q", cfg.GeminiModelName)
		}
		if cfg.MaxRounds != DefaultMaxRounds {
			t.Errorf("Expected default max rounds %d, got %d", DefaultMaxRounds, cfg.MaxRounds)
		}
		if cfg.MaxRepairs != DefaultMaxRepairs {
			t.Errorf("Expected default max repairs %d, got %d", DefaultMaxRepairs, cfg.MaxRepairs)
		}
		if cfg.CallTimeout != DefaultCallTimeout {
			t.Errorf("Expected default call timeout, got %v", cfg.CallTimeout)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default port 8080, got %q", cfg.Port)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("REASONER_BACKEND")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("OpenAIBackend", func(t *testing.T) {
		t.Setenv("REASONER_BACKEND", "openai")
		t.Setenv("OPENAI_API_KEY", "openai_key")
		os.Unsetenv("GEMINI_API_KEY")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.OpenAIAPIKey != "openai_key" {
			t.Errorf("Expected OpenAIAPIKey to be 'openai_key', got %q", cfg.OpenAIAPIKey)
		}
		if cfg.OpenAIModelName != "gpt-4o-mini" {
			t.Errorf("Expected default OpenAI model, got %q", cfg.OpenAIModelName)
		}
	})

	t.Run("MissingOpenAIKey", func(t *testing.T) {
		t.Setenv("REASONER_BACKEND", "openai")
		os.Unsetenv("OPENAI_API_KEY")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for missing OPENAI_API_KEY, got nil")
		}
	})

	t.Run("InvalidBackend", func(t *testing.T) {
		t.Setenv("REASONER_BACKEND", "llama-at-home")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an unknown backend, got nil")
		}
	})

	t.Run("CustomBounds", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLANNER_MAX_ROUNDS", "12")
		t.Setenv("PLANNER_MAX_REPAIRS", "2")
		t.Setenv("PLANNER_CALL_TIMEOUT_SECONDS", "5")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.MaxRounds != 12 {
			t.Errorf("Expected max rounds 12, got %d", cfg.MaxRounds)
		}
		if cfg.MaxRepairs != 2 {
			t.Errorf("Expected max repairs 2, got %d", cfg.MaxRepairs)
		}
		if cfg.CallTimeout != 5*time.Second {
			t.Errorf("Expected 5s call timeout, got %v", cfg.CallTimeout)
		}
	})

	t.Run("InvalidRounds", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("PLANNER_MAX_ROUNDS", "zero")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a non-numeric round cap, got nil")
		}
	})

	t.Run("AllowedUserIDs", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123, 456")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[0] != 123 || cfg.TelegramAllowedUserIDs[1] != 456 {
			t.Errorf("Expected [123 456], got %v", cfg.TelegramAllowedUserIDs)
		}
	})
}
