package config

import (
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(t *testing.T, env map[string]string) {
		t.Helper()
		for _, key := range []string{
			"LLM_PROVIDER", "OPENROUTER_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "LLM_MAX_TOKENS",
			"LLM_TIMEOUT", "DATABASE_PATH", "PORT", "MEAL_BATCH_MODE", "TELEGRAM_ALLOWED_USER_IDS",
			"ADMIN_TELEGRAM_ID",
		} {
			t.Setenv(key, env[key])
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		setEnv(t, map[string]string{"OPENROUTER_API_KEY": "or_key"})

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderOpenRouter {
			t.Errorf("Expected provider %q, got %q", ProviderOpenRouter, cfg.LLMProvider)
		}
		if cfg.LLMModel != "google/gemini-2.0-flash-lite-001" {
			t.Errorf("Unexpected default model %q", cfg.LLMModel)
		}
		if cfg.LLMMaxTokens != 1024 {
			t.Errorf("Expected max tokens 1024, got %d", cfg.LLMMaxTokens)
		}
		if cfg.LLMTimeout != 300*time.Second {
			t.Errorf("Expected timeout 300s, got %s", cfg.LLMTimeout)
		}
		if cfg.MealBatchMode != BatchModeAtomic {
			t.Errorf("Expected batch mode atomic, got %q", cfg.MealBatchMode)
		}
		if cfg.DatabasePath != "data/planner.db" {
			t.Errorf("Unexpected database path %q", cfg.DatabasePath)
		}
		if cfg.APIKey() != "or_key" {
			t.Errorf("Expected APIKey to be 'or_key', got '%s'", cfg.APIKey())
		}
	})

	t.Run("MissingOpenRouterAPIKey", func(t *testing.T) {
		setEnv(t, map[string]string{})

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing OPENROUTER_API_KEY, got nil")
		}
		expectedError := "OPENROUTER_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("GeminiProvider", func(t *testing.T) {
		setEnv(t, map[string]string{"LLM_PROVIDER": "gemini", "GEMINI_API_KEY": "gemini_key"})

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.APIKey() != "gemini_key" {
			t.Errorf("Expected APIKey to be 'gemini_key', got '%s'", cfg.APIKey())
		}
		if cfg.LLMModel != "gemini-2.0-flash-lite" {
			t.Errorf("Unexpected default model %q", cfg.LLMModel)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		setEnv(t, map[string]string{"LLM_PROVIDER": "gemini", "OPENROUTER_API_KEY": "or_key"})

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		setEnv(t, map[string]string{
			"OPENROUTER_API_KEY":        "or_key",
			"LLM_MODEL":                 "custom/model",
			"LLM_MAX_TOKENS":            "2048",
			"LLM_TIMEOUT":               "45s",
			"MEAL_BATCH_MODE":           "Partial",
			"TELEGRAM_ALLOWED_USER_IDS": "11, 22",
			"ADMIN_TELEGRAM_ID":         "11",
		})

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMModel != "custom/model" || cfg.LLMMaxTokens != 2048 || cfg.LLMTimeout != 45*time.Second {
			t.Errorf("Overrides not applied: %+v", cfg)
		}
		if cfg.MealBatchMode != BatchModePartial {
			t.Errorf("Expected batch mode partial, got %q", cfg.MealBatchMode)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 22 {
			t.Errorf("Unexpected allowed IDs %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 11 {
			t.Errorf("Expected admin 11, got %d", cfg.AdminTelegramID)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		cases := map[string]map[string]string{
			"timeout":             {"OPENROUTER_API_KEY": "k", "LLM_TIMEOUT": "soon"},
			"max tokens":          {"OPENROUTER_API_KEY": "k", "LLM_MAX_TOKENS": "-1"},
			"max tokens overflow": {"OPENROUTER_API_KEY": "k", "LLM_MAX_TOKENS": "3000000000"},
			"batch mode":          {"OPENROUTER_API_KEY": "k", "MEAL_BATCH_MODE": "whatever"},
			"provider":            {"OPENROUTER_API_KEY": "k", "LLM_PROVIDER": "groq"},
			"user ids":            {"OPENROUTER_API_KEY": "k", "TELEGRAM_ALLOWED_USER_IDS": "1,abc"},
		}
		for name, env := range cases {
			t.Run(name, func(t *testing.T) {
				setEnv(t, env)
				if _, err := NewFromEnv(); err == nil {
					t.Error("Expected an error, got nil")
				}
			})
		}
	})
}
