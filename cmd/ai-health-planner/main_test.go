package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueToken(t *testing.T) {
	t.Run("WorksWithoutProviderKeys", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("LLM_PROVIDER", "openrouter")
		t.Setenv("OPENROUTER_API_KEY", "")
		t.Setenv("GEMINI_API_KEY", "")

		var out bytes.Buffer
		if err := issueToken([]string{"-ttl", "1h", "u1"}, &out); err != nil {
			t.Fatalf("issueToken failed: %v", err)
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(strings.TrimSpace(out.String()), claims, func(*jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if claims.Subject != "u1" {
			t.Errorf("expected subject u1, got %q", claims.Subject)
		}
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		if err := issueToken([]string{"u1"}, &bytes.Buffer{}); err == nil {
			t.Fatal("expected an error without JWT_SECRET")
		}
	})

	t.Run("MissingUser", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		if err := issueToken(nil, &bytes.Buffer{}); err == nil {
			t.Fatal("expected a usage error without a user id")
		}
	})
}
