package config

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = ".matterflow.yml"

// providerModels maps each provider to its default chat and embedding
// models.
var providerModels = map[ProviderType]struct {
	Model          string
	EmbeddingModel string
}{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3", EmbeddingModel: "nomic-embed-text"},
}

// DefaultConfig returns a Config with sensible defaults. The smart
// extraction pass is off until a provider is configured.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:       ":8080",
		DatabasePath:     "matterflow.db",
		ExtractTimeoutMS: 5000,
		AllowedOrigins:   []string{"*"},
	}
}

// DefaultModels returns the default chat and embedding models for the
// provider.
func DefaultModels(provider ProviderType) (model, embeddingModel string) {
	m, ok := providerModels[provider]
	if !ok {
		return "", ""
	}
	return m.Model, m.EmbeddingModel
}
