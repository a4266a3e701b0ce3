package config

// ProviderType identifies an LLM provider used for the smart extraction
// pass. Empty disables the smart pass; deterministic extraction always
// runs.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level matterflow configuration, corresponding to
// .matterflow.yml.
type Config struct {
	ListenAddr        string       `yaml:"listen_addr" koanf:"listen_addr"`
	DatabasePath      string       `yaml:"database_path" koanf:"database_path"`
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	ExtractTimeoutMS  int          `yaml:"extract_timeout_ms" koanf:"extract_timeout_ms"`
	HandoffWebhookURL string       `yaml:"handoff_webhook_url" koanf:"handoff_webhook_url"`
	AllowedOrigins    []string     `yaml:"allowed_origins" koanf:"allowed_origins"`
}
