package assistant

import (
	"context"
	"fmt"

	"github.com/cexll/agentsdk-go/pkg/model"
	"github.com/lumenedu/schooldesk/internal/config"
)

// NewCompleter builds the configured completion-service client:
// Anthropic by default, OpenAI when the provider type says so.
func NewCompleter(cfg *config.Config) (Completer, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("API key not set. Run 'schooldesk onboard' or set SCHOOLDESK_API_KEY / ANTHROPIC_API_KEY")
	}

	var provider model.Provider
	switch cfg.Provider.Type {
	case "openai":
		provider = &model.OpenAIProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Assistant.Model,
			MaxTokens: cfg.Assistant.MaxTokens,
		}
	default: // "anthropic" or empty
		provider = &model.AnthropicProvider{
			APIKey:    cfg.Provider.APIKey,
			BaseURL:   cfg.Provider.BaseURL,
			ModelName: cfg.Assistant.Model,
			MaxTokens: cfg.Assistant.MaxTokens,
		}
	}

	mdl, err := provider.Model(context.Background())
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	return mdl, nil
}
