package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 200 {
		t.Errorf("chunking defaults = %+v", cfg.Chunking)
	}
	if cfg.Embedding.Provider != ProviderDashScope {
		t.Errorf("embedding provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.BaseURL != DashScopeBaseURL {
		t.Errorf("embedding base URL = %q", cfg.Embedding.BaseURL)
	}
	if cfg.LLM.Provider != ProviderOllama {
		t.Errorf("llm provider = %q", cfg.LLM.Provider)
	}
	if cfg.RetrievalK != 3 {
		t.Errorf("retrieval k = %d", cfg.RetrievalK)
	}
	if cfg.Store.Type != "sqlite" {
		t.Errorf("store type = %q", cfg.Store.Type)
	}
}

func TestClampK(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{10, 10},
		{11, 10},
		{100, 10},
	}
	for _, c := range cases {
		if got := ClampK(c.in); got != c.want {
			t.Errorf("ClampK(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	path := filepath.Join(t.TempDir(), "rag-assistant.yaml")

	cfg := Default()
	cfg.DocsDir = "pandas-docs"
	cfg.Collection = "pandas"
	cfg.RetrievalK = 7
	cfg.Theme = ThemeDark
	cfg.Store = StoreConfig{Type: "postgres", PostgresDSN: "postgres://localhost/rag"}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DocsDir != "pandas-docs" || got.Collection != "pandas" {
		t.Errorf("paths did not round trip: %+v", got)
	}
	if got.RetrievalK != 7 {
		t.Errorf("retrieval k = %d, want 7", got.RetrievalK)
	}
	if got.Theme != ThemeDark {
		t.Errorf("theme = %q", got.Theme)
	}
	if got.Store.Type != "postgres" || got.Store.PostgresDSN != "postgres://localhost/rag" {
		t.Errorf("store did not round trip: %+v", got.Store)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Collection != Default().Collection {
		t.Errorf("collection = %q", cfg.Collection)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "docs_dir: mydocs\nretrieval_k: 99\n"
	if err := os.WriteFile(path, []byte(partial), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DocsDir != "mydocs" {
		t.Errorf("docs dir = %q", cfg.DocsDir)
	}
	if cfg.Chunking.Size != 1000 {
		t.Errorf("chunk size = %d, want default 1000", cfg.Chunking.Size)
	}
	if cfg.Embedding.Provider != ProviderDashScope {
		t.Errorf("embedding provider = %q", cfg.Embedding.Provider)
	}
	if cfg.RetrievalK != 10 {
		t.Errorf("retrieval k = %d, want clamp to 10", cfg.RetrievalK)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("LLM_MODEL_NAME", "qwen2.5")
	t.Setenv("LLM_BASE_URL", "http://gpu-box:11434")
	t.Setenv("POSTGRES_DSN", "postgres://gpu-box/rag")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Model != "qwen2.5" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "http://gpu-box:11434" {
		t.Errorf("llm base URL = %q", cfg.LLM.BaseURL)
	}
	if cfg.Store.PostgresDSN != "postgres://gpu-box/rag" {
		t.Errorf("postgres dsn = %q", cfg.Store.PostgresDSN)
	}
}

func TestAPIKeyReadsEnvironment(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-test")
	if got := (Config{}).APIKey(); got != "sk-test" {
		t.Errorf("APIKey = %q", got)
	}
}
