package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document QA tool.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorkspaceConfig locates the workspace state directory.
type WorkspaceConfig struct {
	Dir      string `yaml:"dir"`       // relative to the root directory unless absolute
	InMemory bool   `yaml:"in_memory"` // keep the index for the process lifetime only
}

// IngestConfig holds document intake configuration.
type IngestConfig struct {
	Accept    []string `yaml:"accept"` // globs on the file name, case-insensitive
	Extractor string   `yaml:"extractor"` // "native" or "pdftotext"
}

// ChunkConfig holds chunking configuration, in characters.
type ChunkConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "ollama", "openai", "hash"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`

	// Remote providers only. 0 disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	K              int           `yaml:"k"`
	FetchK         int           `yaml:"fetch_k"`
	LambdaMult     float64       `yaml:"lambda_mult"`
	DedupThreshold float64       `yaml:"dedup_threshold"` // 0 = disabled
	MinScore       float64       `yaml:"min_score"`       // 0 = disabled
	CacheSize      int           `yaml:"cache_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// LLMConfig holds generative model configuration.
type LLMConfig struct {
	Provider      string        `yaml:"provider"` // "ollama" or "openai"
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKeyEnv     string        `yaml:"api_key_env"`
	Temperature   float64       `yaml:"temperature"`
	NumCtx        int           `yaml:"num_ctx"`
	ReserveTokens int           `yaml:"reserve_tokens"` // kept free for the answer
	Timeout       time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Dir: ".docqa",
		},
		Ingest: IngestConfig{
			Accept:    []string{"*.pdf"},
			Extractor: "native",
		},
		Chunk: ChunkConfig{
			Size:    800,
			Overlap: 150,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			BaseURL:   "http://localhost:11434/v1",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 32,
		},
		Retrieve: RetrieveConfig{
			K:          4,
			FetchK:     20,
			LambdaMult: 0.7,
			CacheSize:  100,
			CacheTTL:   5 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:      "ollama",
			Model:         "llama3",
			BaseURL:       "http://localhost:11434",
			APIKeyEnv:     "OPENAI_API_KEY",
			Temperature:   0.1,
			NumCtx:        4096,
			ReserveTokens: 512,
			Timeout:       120 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate checks the invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Chunk.Size <= 0 {
		return fmt.Errorf("chunk.size must be positive, got %d", c.Chunk.Size)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.Size {
		return fmt.Errorf("chunk.overlap must be in [0, %d), got %d", c.Chunk.Size, c.Chunk.Overlap)
	}
	if c.Retrieve.K <= 0 {
		return fmt.Errorf("retrieve.k must be positive, got %d", c.Retrieve.K)
	}
	if c.Retrieve.FetchK < c.Retrieve.K {
		return fmt.Errorf("retrieve.fetch_k (%d) must be >= retrieve.k (%d)", c.Retrieve.FetchK, c.Retrieve.K)
	}
	if c.Retrieve.LambdaMult < 0 || c.Retrieve.LambdaMult > 1 {
		return fmt.Errorf("retrieve.lambda_mult must be in [0, 1], got %f", c.Retrieve.LambdaMult)
	}
	if c.LLM.NumCtx <= c.LLM.ReserveTokens {
		return fmt.Errorf("llm.num_ctx (%d) must exceed llm.reserve_tokens (%d)", c.LLM.NumCtx, c.LLM.ReserveTokens)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WorkspaceDir resolves the workspace directory against the root directory.
func (c *Config) WorkspaceDir(root string) string {
	if filepath.IsAbs(c.Workspace.Dir) {
		return c.Workspace.Dir
	}
	return filepath.Join(root, c.Workspace.Dir)
}

// IndexDir returns the directory holding the persisted index.
// Removing it is the only supported way to reset a workspace.
func (c *Config) IndexDir(root string) string {
	return filepath.Join(c.WorkspaceDir(root), "index")
}

// IndexDBPath returns the path to the index database.
func (c *Config) IndexDBPath(root string) string {
	return filepath.Join(c.IndexDir(root), "index.db")
}
