package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to .matterflow.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to matterflow! Let's configure your intake server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Listen address.
	listenPrompt := promptui.Prompt{
		Label:   "Listen address",
		Default: cfg.ListenAddr,
	}
	listenAddr, err := listenPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen address: %w", err)
	}
	cfg.ListenAddr = listenAddr

	// 2. Database path.
	dbPrompt := promptui.Prompt{
		Label:   "SQLite database path",
		Default: cfg.DatabasePath,
	}
	dbPath, err := dbPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	cfg.DatabasePath = dbPath

	// 3. Smart extraction provider.
	providerPrompt := promptui.Select{
		Label: "Smart extraction provider",
		Items: []string{"none (deterministic only)", "openai", "ollama"},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	switch idx {
	case 1:
		cfg.Provider = ProviderOpenAI
	case 2:
		cfg.Provider = ProviderOllama
	}

	if cfg.Provider != "" {
		model, embeddingModel := DefaultModels(cfg.Provider)
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: model,
		}
		if cfg.Model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.EmbeddingProvider = cfg.Provider
		cfg.EmbeddingModel = embeddingModel

		if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running matterflow serve.\n", envVar)
		}
	}

	// 4. Handoff webhook.
	webhookPrompt := promptui.Prompt{
		Label:   "Handoff webhook URL (leave blank to disable delivery)",
		Default: "",
	}
	if cfg.HandoffWebhookURL, err = webhookPrompt.Run(); err != nil {
		return nil, fmt.Errorf("webhook url: %w", err)
	}

	if err := cfg.Save(DefaultConfigPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultConfigPath)
	return cfg, nil
}
