package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Add accumulates another usage into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	if u.Model == "" {
		u.Model = other.Model
	}
}

// Execution statuses recorded alongside agent metadata.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// AgentMeta holds operational metadata for a single generation call.
type AgentMeta struct {
	AgentName string
	UserID    string
	Usage     TokenUsage
	Latency   time.Duration
	Status    string
}
