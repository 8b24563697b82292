package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures the OpenAI-compatible completion/embedding endpoint.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Key            string `yaml:"key"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	VisionModel    string `yaml:"vision_model"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects the vector store implementation.
type VectorStoreConfig struct {
	Type       string       `yaml:"type"` // qdrant | chromem | memory
	Collection string       `yaml:"collection"`
	Qdrant     QdrantConfig `yaml:"qdrant"`
	ChromemDir string       `yaml:"chromem_dir"`
}

// DatabaseConfig points at the Postgres instance holding global settings.
// An empty DSN means the static (config-file) settings source is used.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// EmailConfig configures the mailbox poll loop.
type EmailConfig struct {
	Address           string `yaml:"address"`
	Password          string `yaml:"password"`
	IMAPServer        string `yaml:"imap_server"`
	CheckIntervalSecs int    `yaml:"check_interval_secs"`
	AttachmentTempDir string `yaml:"attachment_temp_dir"`
}

// AnonymizeConfig carries the anonymization inputs read at startup.
type AnonymizeConfig struct {
	ExpressionsFile string `yaml:"expressions_file"`
	Countries       string `yaml:"countries"` // comma-separated allow-list
}

type Config struct {
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	Database    DatabaseConfig    `yaml:"database"`
	Email       EmailConfig       `yaml:"email"`
	Anonymize   AnonymizeConfig   `yaml:"anonymize"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "customgpt_embeddings"
	}
	if cfg.VectorStore.Qdrant.URL == "" {
		cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-3.5-turbo"
	}
	if cfg.LLM.EmbeddingModel == "" {
		cfg.LLM.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.Email.CheckIntervalSecs == 0 {
		cfg.Email.CheckIntervalSecs = 60
	}
	if cfg.Email.AttachmentTempDir == "" {
		cfg.Email.AttachmentTempDir = os.TempDir()
	}
}

// QdrantTimeout returns the configured qdrant client timeout.
func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.VectorStore.Qdrant.TimeoutSecs) * time.Second
}

// CheckInterval returns the mailbox poll interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Email.CheckIntervalSecs) * time.Second
}
