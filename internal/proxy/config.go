package proxy

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultAddr        = ":8080"
	DefaultModel       = "gpt-4-turbo"
	DefaultUpstreamURL = "https://api.openai.com/v1/chat/completions"
	DefaultUnkeyURL    = "https://api.unkey.dev"

	// MaxRequestBodySize caps client request bodies (1 MiB)
	MaxRequestBodySize = 1 << 20
)

// Config holds the proxy settings
type Config struct {
	Addr                 string
	EnableUserManagement bool
	OpenAIAPIKey         string
	Model                string
	UpstreamURL          string
	UnkeyAPIID           string
	UnkeyRootKey         string
	UnkeyURL             string
}

// DefaultConfig returns a config with every default filled in
func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		Model:       DefaultModel,
		UpstreamURL: DefaultUpstreamURL,
		UnkeyURL:    DefaultUnkeyURL,
	}
}

// envBindings maps config keys to the environment variables the proxy has
// always been configured with.
var envBindings = map[string]string{
	"proxy.enable_user_management": "ENABLE_USER_MANAGEMENT",
	"proxy.openai_api_key":         "OPENAI_API_KEY",
	"proxy.unkey_api_id":           "UNKEY_API_ID",
	"proxy.unkey_root_key":         "UNKEY_ROOT_KEY",
}

// ConfigFromViper reads the proxy.* keys of v. User management is on only
// when the setting is the literal string "true".
func ConfigFromViper(v *viper.Viper) Config {
	defaults := DefaultConfig()
	v.SetDefault("proxy.addr", defaults.Addr)
	v.SetDefault("proxy.model", defaults.Model)
	v.SetDefault("proxy.upstream_url", defaults.UpstreamURL)
	v.SetDefault("proxy.unkey_url", defaults.UnkeyURL)
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	return Config{
		Addr:                 v.GetString("proxy.addr"),
		EnableUserManagement: v.GetString("proxy.enable_user_management") == "true",
		OpenAIAPIKey:         v.GetString("proxy.openai_api_key"),
		Model:                orDefault(v.GetString("proxy.model"), defaults.Model),
		UpstreamURL:          orDefault(v.GetString("proxy.upstream_url"), defaults.UpstreamURL),
		UnkeyAPIID:           v.GetString("proxy.unkey_api_id"),
		UnkeyRootKey:         v.GetString("proxy.unkey_root_key"),
		UnkeyURL:             strings.TrimRight(orDefault(v.GetString("proxy.unkey_url"), defaults.UnkeyURL), "/"),
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
