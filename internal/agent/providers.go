package agent

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/yolodolo42/notecompanion/internal/auth"
	"github.com/yolodolo42/notecompanion/internal/llm"
)

// CreateProvider builds the provider for providerID from available
// credentials. The proxy works without a token when user management is off.
func CreateProvider(authManager *auth.Manager, providerID llm.ProviderID) (llm.Provider, error) {
	key, keyErr := authManager.GetAPIKey(providerID)

	switch providerID {
	case llm.ProviderProxy:
		return llm.NewProxyProvider(key, viper.GetString("proxy.url")), nil

	case llm.ProviderOpenAI:
		if keyErr != nil {
			return nil, keyErr
		}
		return llm.NewOpenAIProvider(key, viper.GetString("llm.providers.openai.model"), viper.GetString("llm.providers.openai.base_url"))

	case llm.ProviderAnthropic:
		if keyErr != nil {
			return nil, keyErr
		}
		return llm.NewAnthropicProvider(key, viper.GetString("llm.providers.anthropic.model"))

	default:
		return nil, fmt.Errorf("unknown provider: %s", providerID)
	}
}

// ResolveProvider picks providerID if set, otherwise the configured default,
// falling back to the first provider with credentials.
func ResolveProvider(authManager *auth.Manager, providerID string) (llm.Provider, error) {
	target := authManager.GetDefaultProvider()
	if providerID != "" {
		id, err := llm.ParseProviderID(providerID)
		if err != nil {
			return nil, err
		}
		target = id
	}

	provider, err := CreateProvider(authManager, target)
	if err == nil {
		return provider, nil
	}
	if providerID != "" {
		return nil, err
	}

	for _, id := range authManager.ListConnected() {
		if p, cerr := CreateProvider(authManager, id); cerr == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no LLM provider available. Run 'notecompanion auth set <provider> <key>' or set an API key environment variable: %w", err)
}
