// Package config loads and persists application settings. Settings live in a
// YAML file with environment overrides for credentials and the generation
// endpoint, so the same file can be shared between the build CLI and the
// assistant shell.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderDashScope = "dashscope"

	ThemeLight = "light"
	ThemeDark  = "dark"

	// DashScopeBaseURL is the OpenAI-compatible endpoint of the DashScope
	// embedding service.
	DashScopeBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// APIKeyEnv names the environment variable holding the embedding
	// service credential.
	APIKeyEnv = "DASHSCOPE_API_KEY"

	minRetrievalK = 1
	maxRetrievalK = 10
)

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BaseURL   string `yaml:"base_url"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type StoreConfig struct {
	Type        string `yaml:"type"` // sqlite or postgres
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type Config struct {
	DocsDir    string          `yaml:"docs_dir"`
	DataDir    string          `yaml:"data_dir"`
	Collection string          `yaml:"collection"`
	Chunking   ChunkingConfig  `yaml:"chunking"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	LLM        LLMConfig       `yaml:"llm"`
	Store      StoreConfig     `yaml:"store"`
	RetrievalK int             `yaml:"retrieval_k"`
	Theme      string          `yaml:"theme"`
}

// APIKey reads the embedding service credential from the environment.
func (c Config) APIKey() string {
	return os.Getenv(APIKeyEnv)
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// LoadDefault tries ./rag-assistant.yaml first, then the user config
// directory. If neither exists the defaults are written to the user path so
// later edits have a file to land in.
func LoadDefault() (Config, string, error) {
	cwdPath := "rag-assistant.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}

	userPath, err := userConfigPath()
	if err != nil {
		return Config{}, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}

	cfg := Default()
	applyEnvOverrides(&cfg)
	if err := Save(userPath, cfg); err != nil {
		return Config{}, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func Default() Config {
	return Config{
		DocsDir:    "docs",
		DataDir:    "data",
		Collection: "api_reference",
		Chunking:   ChunkingConfig{Size: 1000, Overlap: 200},
		Embedding: EmbeddingConfig{
			Provider: ProviderDashScope,
			Model:    "text-embedding-v3",
			BaseURL:  DashScopeBaseURL,
		},
		LLM: LLMConfig{
			Provider: ProviderOllama,
			Model:    "llama3.1",
			BaseURL:  "http://localhost:11434",
		},
		Store:      StoreConfig{Type: "sqlite"},
		RetrievalK: 3,
		Theme:      ThemeLight,
	}
}

// ClampK bounds a retrieval result count to the supported range.
func ClampK(k int) int {
	if k < minRetrievalK {
		return minRetrievalK
	}
	if k > maxRetrievalK {
		return maxRetrievalK
	}
	return k
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DocsDir == "" {
		cfg.DocsDir = def.DocsDir
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.Chunking.Size <= 0 {
		cfg.Chunking.Size = def.Chunking.Size
	}
	if cfg.Chunking.Overlap < 0 || cfg.Chunking.Overlap >= cfg.Chunking.Size {
		cfg.Chunking.Overlap = cfg.Chunking.Size / 5
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding = def.Embedding
	}
	if cfg.Embedding.BaseURL == "" && cfg.Embedding.Provider == ProviderDashScope {
		cfg.Embedding.BaseURL = DashScopeBaseURL
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM = def.LLM
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.RetrievalK == 0 {
		cfg.RetrievalK = def.RetrievalK
	}
	cfg.RetrievalK = ClampK(cfg.RetrievalK)
	if cfg.Theme == "" {
		cfg.Theme = def.Theme
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.LLM.Model = getEnv("LLM_MODEL_NAME", cfg.LLM.Model)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.Store.PostgresDSN = getEnv("POSTGRES_DSN", cfg.Store.PostgresDSN)
}

func userConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag-assistant", "config.yaml"), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
