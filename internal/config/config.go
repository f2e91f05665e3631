package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "./configs/config.yaml"

type Config struct {
	Server       ServerConfig    `yaml:"server"`
	Log          LogConfig       `yaml:"log"`
	Database     DatabaseConfig  `yaml:"database"`
	Storage      StorageConfig   `yaml:"storage"`
	Vector       VectorConfig    `yaml:"vector"`
	EmbedLLM     LLMConfig       `yaml:"embed_llm"`
	InferenceLLM LLMConfig       `yaml:"inference_llm"`
	RAG          RAGConfig       `yaml:"rag"`
	Auth         AuthConfig      `yaml:"auth"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	Driver         string        `yaml:"driver"`
	Debug          bool          `yaml:"debug"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`
	MaxOverflow    int           `yaml:"max_overflow"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend"`
	DocsDir string      `yaml:"docs_dir"`
	Minio   MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VectorConfig struct {
	Dir        string `yaml:"dir"`
	Collection string `yaml:"collection"`
	Compress   bool   `yaml:"compress"`
}

// LLMConfig describes one model endpoint. Provider is "openai" (any
// OpenAI-compatible API) or "ollama".
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`

	// Dimension is the embedding width, when known up front.
	Dimension int `yaml:"dimension"`
}

type RAGConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	TopK         int `yaml:"top_k"`
	HistoryLimit int `yaml:"history_limit"`
}

type AuthConfig struct {
	SecretKey string        `yaml:"secret_key"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RateLimitConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	Prefix        string        `yaml:"prefix"`
	Limit         int           `yaml:"limit"`
	Window        time.Duration `yaml:"window"`
}

// LoadConfig reads the YAML file at path, then applies defaults and
// environment overrides. A missing file is not an error as long as the
// environment provides the required values.
func LoadConfig(path string) (*Config, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	if path == "" {
		path = DefaultConfigPath
	}
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:8501"}
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 10 * 1024 * 1024
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.MaxOverflow == 0 {
		cfg.Database.MaxOverflow = 10
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = 5 * time.Second
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.DocsDir == "" {
		cfg.Storage.DocsDir = "./data/documentos"
	}
	if cfg.Vector.Dir == "" {
		cfg.Vector.Dir = "./chroma_db"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "documentos"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "openai"
	}
	if cfg.InferenceLLM.Provider == "" {
		cfg.InferenceLLM.Provider = "openai"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1500
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
	if cfg.RAG.HistoryLimit == 0 {
		cfg.RAG.HistoryLimit = 6
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 30 * time.Minute
	}
	if cfg.RateLimit.Prefix == "" {
		cfg.RateLimit.Prefix = "legalai:ratelimit"
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = 30
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

// Override with environment variables
func applyEnv(cfg *Config) {
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Auth.SecretKey, "SECRET_KEY")
	setString(&cfg.Storage.DocsDir, "DOCS_DIR")
	setString(&cfg.Vector.Dir, "CHROMA_DIR")
	setString(&cfg.EmbedLLM.Key, "EMBED_API_KEY")
	setString(&cfg.EmbedLLM.BaseURL, "EMBED_BASE_URL")
	setString(&cfg.EmbedLLM.Model, "EMBED_MODEL")
	setString(&cfg.InferenceLLM.Key, "LLM_API_KEY")
	setString(&cfg.InferenceLLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.InferenceLLM.Model, "LLM_MODEL")
	setString(&cfg.RateLimit.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RateLimit.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitOrigins(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitOrigins(v string) []string {
	var origins []string
	for _, origin := range strings.Split(v, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func validateConfig(cfg *Config) error {
	if cfg.Database.URL == "" {
		return errors.New("config: database.url is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.Auth.SecretKey == "" {
		return errors.New("config: auth.secret_key is required (set in config.yaml or SECRET_KEY)")
	}
	switch cfg.Database.Driver {
	case "pgdriver", "pq":
	default:
		return fmt.Errorf("config: unknown database.driver %q", cfg.Database.Driver)
	}
	switch cfg.Storage.Backend {
	case "local":
	case "minio":
		if cfg.Storage.Minio.Endpoint == "" || cfg.Storage.Minio.Bucket == "" {
			return errors.New("config: storage.minio.endpoint and storage.minio.bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", cfg.Storage.Backend)
	}
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return errors.New("config: rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	return nil
}
