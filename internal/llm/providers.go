// Package llm provides the LLM provider catalog and an invocation client
// for OpenAI-compatible chat-completion endpoints, in both synchronous and
// SSE-streaming form.
package llm

import "strings"

// KnownProvider is one of the built-in provider presets offered when a
// user configures a provider card.
type KnownProvider struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	BaseURL     string `json:"base_url"`
	LogoEmoji   string `json:"logo_emoji,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

// knownProviders lists the presets in display order.
var knownProviders = []KnownProvider{
	{Key: "openai", Name: "OpenAI", Description: "OpenAI chat completion API.", BaseURL: "https://api.openai.com/v1", LogoEmoji: "🤖"},
	{Key: "deepseek", Name: "DeepSeek", Description: "DeepSeek OpenAI-compatible API.", BaseURL: "https://api.deepseek.com/v1", LogoEmoji: "🐋"},
	{Key: "moonshot", Name: "Moonshot", Description: "Moonshot (Kimi) OpenAI-compatible API.", BaseURL: "https://api.moonshot.cn/v1", LogoEmoji: "🌙"},
	{Key: "zhipu", Name: "Zhipu", Description: "Zhipu GLM OpenAI-compatible API.", BaseURL: "https://open.bigmodel.cn/api/paas/v4", LogoEmoji: "🧠"},
	{Key: "ollama", Name: "Ollama", Description: "Local Ollama instance.", BaseURL: "http://localhost:11434/v1", LogoEmoji: "🦙"},
}

// CommonProviders returns the provider presets in display order.
func CommonProviders() []KnownProvider {
	return append([]KnownProvider(nil), knownProviders...)
}

// ProviderDefaults looks up a preset by its normalized key. The second
// return value reports whether the key is known.
func ProviderDefaults(key string) (KnownProvider, bool) {
	normalized := NormalizeKey(key)
	for _, provider := range knownProviders {
		if provider.Key == normalized {
			return provider, true
		}
	}
	return KnownProvider{}, false
}

// NormalizeKey lowercases and trims a provider key.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NormalizeBaseURL strips trailing slashes so path joining stays stable.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// MaskAPIKey hides the middle of an API key for display. Keys of six
// characters or fewer are fully masked.
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 6 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:4] + strings.Repeat("*", len(apiKey)-6) + apiKey[len(apiKey)-2:]
}
