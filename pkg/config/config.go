package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Assembly AssemblyAIConfig
	Whisper  WhisperConfig
	Groq     GroqConfig
	Pipeline PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration. An empty host disables Redis and
// the live-transcript mirror falls back to the in-memory store.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds MinIO object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
}

// AssemblyAIConfig holds the primary transcription engine configuration
type AssemblyAIConfig struct {
	APIKey string
}

// WhisperConfig holds the fallback transcription engine configuration
// (any OpenAI-compatible audio transcription endpoint).
type WhisperConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GroqConfig holds the analysis provider configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// PipelineConfig holds pipeline tuning knobs, loaded via envconfig.
type PipelineConfig struct {
	MaxChunkDurationMs  int     `envconfig:"PIPELINE_MAX_CHUNK_DURATION_MS" default:"300000"`
	ChunkBatchSize      int     `envconfig:"PIPELINE_CHUNK_BATCH_SIZE" default:"3"`
	MaxRetries          int     `envconfig:"PIPELINE_MAX_RETRIES" default:"3"`
	InitialRetryDelayMs int     `envconfig:"PIPELINE_INITIAL_RETRY_DELAY_MS" default:"1000"`
	MaxConcurrent       int     `envconfig:"PIPELINE_MAX_CONCURRENT_SESSIONS" default:"2"`
	MaxOutputTokens     int     `envconfig:"PIPELINE_MAX_OUTPUT_TOKENS" default:"8000"`
	Temperature         float64 `envconfig:"PIPELINE_TEMPERATURE" default:"0.2"`
	DictationSampleRate int     `envconfig:"PIPELINE_DICTATION_SAMPLE_RATE" default:"16000"`
	LiveMirrorTTLSec    int     `envconfig:"PIPELINE_LIVE_MIRROR_TTL_SEC" default:"3600"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "echoscribe"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "echoscribe-captures"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Assembly: AssemblyAIConfig{
			APIKey: getEnv("ASSEMBLYAI_API_KEY", ""),
		},
		Whisper: WhisperConfig{
			APIKey:  getEnv("WHISPER_API_KEY", ""),
			BaseURL: getEnv("WHISPER_API_URL", "https://api.openai.com"),
			Model:   getEnv("WHISPER_MODEL", "whisper-1"),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_API_URL", "https://api.groq.com"),
			Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
	}

	if err := envconfig.Process("", &config.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.Pipeline.ChunkBatchSize < 1 {
		return fmt.Errorf("PIPELINE_CHUNK_BATCH_SIZE must be at least 1")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// MaxChunkDuration returns the per-request provider duration limit.
func (c *PipelineConfig) MaxChunkDuration() time.Duration {
	return time.Duration(c.MaxChunkDurationMs) * time.Millisecond
}

// InitialRetryDelay returns the first backoff interval.
func (c *PipelineConfig) InitialRetryDelay() time.Duration {
	return time.Duration(c.InitialRetryDelayMs) * time.Millisecond
}

// LiveMirrorTTL returns how long live transcript mirror entries are kept.
func (c *PipelineConfig) LiveMirrorTTL() time.Duration {
	return time.Duration(c.LiveMirrorTTLSec) * time.Second
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
