package auth

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/yolodolo42/notecompanion/internal/llm"
)

// Manager resolves provider credentials
type Manager struct {
	store *Store
}

// NewManager creates a new auth manager
func NewManager(dataDir string) (*Manager, error) {
	store, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store}, nil
}

// GetAPIKey returns the key for a provider using priority resolution:
// 1. Environment variable
// 2. Config file (with env substitution)
// 3. Stored auth.json
func (m *Manager) GetAPIKey(providerID llm.ProviderID) (string, error) {
	if envVar := llm.EnvVarForProvider(providerID); envVar != "" {
		if key := os.Getenv(envVar); key != "" {
			return key, nil
		}
	}

	if key := viper.GetString(configKey(providerID)); key != "" {
		if resolved := resolveEnvSubstitution(key); resolved != "" {
			return resolved, nil
		}
	}

	cred, err := m.store.GetCredential(providerID)
	if err == nil && cred.Key != "" {
		return cred.Key, nil
	}

	return "", fmt.Errorf("no API key found for provider: %s", providerID)
}

// SetAPIKey stores an API key for a provider
func (m *Manager) SetAPIKey(providerID llm.ProviderID, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	return m.store.SetCredential(providerID, Credential{Key: key})
}

// RemoveCredential removes stored credentials for a provider
func (m *Manager) RemoveCredential(providerID llm.ProviderID) error {
	return m.store.RemoveCredential(providerID)
}

// HasCredential checks if a key for the provider is available from any source
func (m *Manager) HasCredential(providerID llm.ProviderID) bool {
	_, err := m.GetAPIKey(providerID)
	return err == nil
}

// ListConnected returns all providers with credentials
func (m *Manager) ListConnected() []llm.ProviderID {
	connected := make([]llm.ProviderID, 0)
	for _, id := range llm.AllProviderIDs() {
		if m.HasCredential(id) {
			connected = append(connected, id)
		}
	}
	return connected
}

// GetDefaultProvider returns the default provider ID. The config key
// llm.default_provider overrides what auth.json records.
func (m *Manager) GetDefaultProvider() llm.ProviderID {
	if name := viper.GetString("llm.default_provider"); name != "" {
		if id, err := llm.ParseProviderID(name); err == nil {
			return id
		}
	}
	return m.store.GetDefaultProvider()
}

// SetDefaultProvider sets the default provider
func (m *Manager) SetDefaultProvider(providerID llm.ProviderID) error {
	return m.store.SetDefaultProvider(providerID)
}

func configKey(providerID llm.ProviderID) string {
	return fmt.Sprintf("llm.providers.%s.api_key", providerID)
}

var envRef = regexp.MustCompile(`\{env:([^}]+)\}`)

// resolveEnvSubstitution replaces {env:VAR_NAME} with environment variable values
func resolveEnvSubstitution(value string) string {
	if !strings.Contains(value, "{env:") {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[5 : len(match)-1])
	})
}
