//go:build !integration

package ai_test

import (
	"context"
	"testing"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
	ai "conversation-agent/internal/infra/adapters/ai"
)

func TestNewCompletionClient(t *testing.T) {
	base := model.Settings{APIKey: "k", BaseURL: "http://localhost:1", Model: "m"}

	for _, p := range []string{"", ai.ProviderOpenAICompat, ai.ProviderOpenAISDK, ai.ProviderNoop} {
		s := base
		s.Provider = p
		if _, err := ai.NewCompletionClient(s, nil); err != nil {
			t.Errorf("provider %q: %v", p, err)
		}
	}
	s := base
	s.Provider = "gemini"
	if _, err := ai.NewCompletionClient(s, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNoopAdapter(t *testing.T) {
	reply, err := ai.NewNoopAdapter(nil).Complete(context.Background(), adapter.CompletionRequest{Model: "m"})
	if err != nil || reply == "" {
		t.Fatalf("reply=%q err=%v", reply, err)
	}
}
