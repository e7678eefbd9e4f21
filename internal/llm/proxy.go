package llm

import "strings"

// DefaultProxyURL is the OpenAI-compatible base of a locally running
// `notecompanion serve`.
const DefaultProxyURL = "http://localhost:8080/v1"

// proxyAnonymousToken is sent when the proxy runs without user management;
// go-openai always sets an Authorization header.
const proxyAnonymousToken = "anonymous"

// ProxyProvider sends chat completions through a notecompanion proxy. The
// proxy chooses the upstream model, so the model list holds only its default.
type ProxyProvider struct {
	*OpenAIProvider
}

// ProxyModels lists the model the proxy forwards to by default
var ProxyModels = []Model{
	{
		ID:            "gpt-4-turbo",
		Name:          "GPT-4 Turbo (via proxy)",
		ContextWindow: 128000,
		SupportsTools: true,
	},
}

// NewProxyProvider creates a provider for the proxy at baseURL. An empty
// token is allowed for proxies with user management disabled.
func NewProxyProvider(token, baseURL string) *ProxyProvider {
	if token == "" {
		token = proxyAnonymousToken
	}
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &ProxyProvider{OpenAIProvider: newOpenAIProvider(token, ProxyModels[0].ID, baseURL)}
}

func (p *ProxyProvider) ID() ProviderID { return ProviderProxy }
func (p *ProxyProvider) Name() string { return "Note Companion proxy" }
func (p *ProxyProvider) Models() []Model { return ProxyModels }
func (p *ProxyProvider) BaseURL() string { return p.baseURL }

func (p *ProxyProvider) SetModel(modelID string) error {
	if err := ValidateModelID(modelID, ProxyModels); err != nil {
		return err
	}
	p.model = modelID
	return nil
}
