package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"port"`
	UploadDir   string `mapstructure:"upload_dir"`
	MaxFileSize int64  `mapstructure:"max_file_size"`

	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	TopK int `mapstructure:"top_k"`
	// SimilarityThreshold is a Weaviate certainty in [0,1]; higher is more
	// similar and retrieved chunks below it are dropped.
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	GenerationTimeout   time.Duration `mapstructure:"generation_timeout"`

	AIBackend      string `mapstructure:"ai_backend"` // "openai" or "gemini"
	OpenAIBaseURL  string `mapstructure:"openai_base_url"`
	OpenAIModel    string `mapstructure:"openai_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
	GeminiModel    string `mapstructure:"gemini_model"`

	OpenAIAPIKey  string   `mapstructure:"OPENAI_API_KEY"`
	GeminiAPIKeys []string `mapstructure:"GEMINI_API_KEYS"`

	FeedbackFile string `mapstructure:"feedback_file"`

	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`
}

type WeaviateStoreConfig struct {
	Host   string `mapstructure:"host"`
	APIKey string `mapstructure:"WEAVIATE_APIKEY"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("port", "8000")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_file_size", 10<<20)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("top_k", 5)
	v.SetDefault("similarity_threshold", 0.6)
	v.SetDefault("generation_timeout", "60s")
	v.SetDefault("ai_backend", "openai")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("feedback_file", "feedback_data.jsonl")

	// Set up Viper to read from environment variables
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("GEMINI_API_KEYS")
	v.BindEnv("weaviate_store_config.WEAVIATE_APIKEY", "WEAVIATE_APIKEY")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			config.ChunkOverlap, config.ChunkSize)
	}

	return &config, nil
}
