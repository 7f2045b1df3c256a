package ai

import (
	"fmt"

	"github.com/rs/zerolog"

	"conversation-agent/internal/domain/model"
	"conversation-agent/internal/domain/ports/adapter"
)

const (
	ProviderOpenAICompat = "openai_compat"
	ProviderOpenAISDK    = "openai_sdk"
	ProviderNoop         = "noop"
)

// NewCompletionClient builds the client for the provider named in the settings.
func NewCompletionClient(s model.Settings, logger *zerolog.Logger) (adapter.CompletionClient, error) {
	switch s.Provider {
	case "", ProviderOpenAICompat:
		return NewOpenAICompatAdapter(s.APIKey, s.BaseURL)
	case ProviderOpenAISDK:
		return NewOpenAISDKAdapter(s.APIKey, s.BaseURL)
	case ProviderNoop:
		return NewNoopAdapter(logger), nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", s.Provider)
	}
}
