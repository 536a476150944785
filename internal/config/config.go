// Package config loads service configuration from an optional YAML file,
// applies defaults and then lets environment variables override it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

// Store backend names.
const (
	RecordsFirestore = "firestore"
	RecordsMongo     = "mongo"
	RecordsMemory    = "memory"

	BlobsGCS    = "gcs"
	BlobsGridFS = "gridfs"
	BlobsMinio  = "minio"
	BlobsMemory = "memory"
)

// LLM provider names.
const (
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	Store    StoreConfig    `yaml:"store"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type LLMConfig struct {
	Provider          string        `yaml:"provider"`
	ProjectID         string        `yaml:"project_id"`
	Region            string        `yaml:"region"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	ExtractionModel   string        `yaml:"extraction_model"`
	AnalysisModel     string        `yaml:"analysis_model"`
	ModelingModel     string        `yaml:"modeling_model"`
	Temperature       float64       `yaml:"temperature"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type StoreConfig struct {
	Records    string      `yaml:"records"`
	Blobs      string      `yaml:"blobs"`
	ProjectID  string      `yaml:"project_id"`
	Collection string      `yaml:"collection"`
	Bucket     string      `yaml:"bucket"`
	URI        string      `yaml:"uri"`
	Database   string      `yaml:"database"`
	Minio      MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type PipelineConfig struct {
	ParallelStages   bool    `yaml:"parallel_stages"`
	DebugDir         string  `yaml:"debug_dir"`
	ExampleModelPath string  `yaml:"example_model_path"`
	RenderDPI        float64 `yaml:"render_dpi"`
}

type IngestConfig struct {
	Bucket           string `yaml:"bucket"`
	WorkflowID       string `yaml:"workflow_id"`
	WorkflowLocation string `yaml:"workflow_location"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load reads the YAML file at path when it exists. A missing file is not an
// error: the service can be configured from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := mergeWithEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 60 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		// Three LLM round trips plus a storage write happen inside one request.
		cfg.Server.WriteTimeout = 10 * time.Minute
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 100
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderVertex
	}
	if cfg.LLM.Region == "" {
		cfg.LLM.Region = "us-central1"
	}
	if cfg.LLM.ExtractionModel == "" {
		cfg.LLM.ExtractionModel = defaultModel(cfg.LLM.Provider, true)
	}
	if cfg.LLM.AnalysisModel == "" {
		cfg.LLM.AnalysisModel = defaultModel(cfg.LLM.Provider, false)
	}
	if cfg.LLM.ModelingModel == "" {
		cfg.LLM.ModelingModel = defaultModel(cfg.LLM.Provider, false)
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 120 * time.Second
	}
	if cfg.LLM.RequestsPerSecond == 0 {
		cfg.LLM.RequestsPerSecond = 2
	}
	if cfg.LLM.Burst == 0 {
		cfg.LLM.Burst = 3
	}

	if cfg.Store.Records == "" {
		cfg.Store.Records = RecordsFirestore
	}
	if cfg.Store.Blobs == "" {
		cfg.Store.Blobs = BlobsGCS
	}
	if cfg.Store.ProjectID == "" {
		cfg.Store.ProjectID = cfg.LLM.ProjectID
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = "csv_files"
	}
	if cfg.Store.Database == "" {
		cfg.Store.Database = "funnel"
	}
	if cfg.Store.Minio.Bucket == "" {
		cfg.Store.Minio.Bucket = "financial-statements"
	}

	if cfg.Pipeline.ExampleModelPath == "" {
		cfg.Pipeline.ExampleModelPath = "example_model.csv"
	}
	if cfg.Pipeline.RenderDPI == 0 {
		cfg.Pipeline.RenderDPI = 150
	}

	if cfg.Ingest.WorkflowLocation == "" {
		cfg.Ingest.WorkflowLocation = cfg.LLM.Region
	}
}

func defaultModel(provider string, extraction bool) string {
	if provider == ProviderOpenAI {
		if extraction {
			return "gpt-4.1-mini"
		}
		return "gpt-4.1"
	}
	return "gemini-1.5-pro"
}

func mergeWithEnv(cfg *Config) error {
	if port := GetEnv("PORT", ""); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	cfg.Log.Level = GetEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = GetEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.LLM.Provider = GetEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.ProjectID = GetEnv("PROJECT_ID", cfg.LLM.ProjectID)
	cfg.LLM.Region = GetEnv("VERTEX_AI_REGION", cfg.LLM.Region)
	cfg.LLM.APIKey = GetEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = GetEnv("OPENAI_BASE_URL", cfg.LLM.BaseURL)

	cfg.Store.Records = GetEnv("STORE_RECORDS", cfg.Store.Records)
	cfg.Store.Blobs = GetEnv("STORE_BLOBS", cfg.Store.Blobs)
	cfg.Store.URI = GetEnv("MONGODB_URI", cfg.Store.URI)
	cfg.Store.Bucket = GetEnv("CSV_BUCKET", cfg.Store.Bucket)
	cfg.Store.Collection = GetEnv("FIRESTORE_COLLECTION", cfg.Store.Collection)
	cfg.Store.Minio.Endpoint = GetEnv("MINIO_ENDPOINT", cfg.Store.Minio.Endpoint)
	cfg.Store.Minio.AccessKey = GetEnv("MINIO_ACCESS_KEY", cfg.Store.Minio.AccessKey)
	cfg.Store.Minio.SecretKey = GetEnv("MINIO_SECRET_KEY", cfg.Store.Minio.SecretKey)

	cfg.Pipeline.DebugDir = GetEnv("DEBUG_DIR", cfg.Pipeline.DebugDir)
	cfg.Pipeline.ExampleModelPath = GetEnv("EXAMPLE_MODEL_PATH", cfg.Pipeline.ExampleModelPath)

	cfg.Ingest.Bucket = GetEnv("INGEST_BUCKET", cfg.Ingest.Bucket)
	cfg.Ingest.WorkflowID = GetEnv("WORKFLOW_ID", cfg.Ingest.WorkflowID)
	cfg.Ingest.WorkflowLocation = GetEnv("WORKFLOW_LOCATION", cfg.Ingest.WorkflowLocation)

	return nil
}
