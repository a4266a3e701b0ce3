package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty listen addr",
			mutate:  func(c *Config) { c.ListenAddr = "" },
			wantErr: "listen_addr",
		},
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.DatabasePath = "" },
			wantErr: "database_path",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "carrier-pigeon"; c.Model = "x" },
			wantErr: "invalid provider",
		},
		{
			name:    "provider without model",
			mutate:  func(c *Config) { c.Provider = ProviderOpenAI },
			wantErr: "model is required",
		},
		{
			name:    "negative extract timeout",
			mutate:  func(c *Config) { c.ExtractTimeoutMS = -1 },
			wantErr: "extract_timeout_ms",
		},
		{
			name:   "provider with model",
			mutate: func(c *Config) { c.Provider = ProviderOllama; c.Model = "llama3.1:8b" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".matterflow.yml")

	cfg := DefaultConfig()
	cfg.ListenAddr = ":9090"
	cfg.Provider = ProviderOpenAI
	cfg.Model = "gpt-4o-mini"
	cfg.HandoffWebhookURL = "https://hooks.example.com/intake"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ListenAddr != ":9090" || loaded.Provider != ProviderOpenAI || loaded.Model != "gpt-4o-mini" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.HandoffWebhookURL != "https://hooks.example.com/intake" {
		t.Errorf("webhook url = %q", loaded.HandoffWebhookURL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultConfig()
	if loaded.ListenAddr != def.ListenAddr || loaded.DatabasePath != def.DatabasePath {
		t.Errorf("loaded = %+v, want defaults", loaded)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MATTERFLOW_LISTEN_ADDR", ":7777")
	t.Setenv("MATTERFLOW_DATABASE_PATH", "/tmp/override.db")

	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ListenAddr != ":7777" {
		t.Errorf("listen_addr = %q, want env override", loaded.ListenAddr)
	}
	if loaded.DatabasePath != "/tmp/override.db" {
		t.Errorf("database_path = %q, want env override", loaded.DatabasePath)
	}
}
