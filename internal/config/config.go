package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the textembed configuration
type Config struct {
	// Model contains the pretrained model selection.
	Model struct {
		// ID is the model repository identifier, e.g. "sentence-transformers/all-MiniLM-L6-v2".
		ID string `json:"id" env:"MODEL_ID" validate:"required"`

		// Revision is the repository revision to fetch.
		Revision string `json:"revision" env:"MODEL_REVISION"`

		// UsePTH selects the legacy pytorch checkpoint instead of safetensors.
		UsePTH bool `json:"use_pth" env:"MODEL_USE_PTH"`

		// CacheDir is where downloaded artifacts are kept.
		CacheDir string `json:"cache_dir" env:"MODEL_CACHE_DIR"`
	} `json:"model"`

	// Encoder contains the inference backend configuration.
	Encoder struct {
		// Provider is the encoder backend to use ("onnx", "stub").
		Provider string `json:"provider" env:"ENCODER_PROVIDER"`

		// ONNXModelPath is the path to the exported model.onnx file.
		ONNXModelPath string `json:"onnx_model_path" env:"ENCODER_ONNX_MODEL_PATH"`

		// ONNXLibraryPath optionally points at the onnxruntime shared library.
		ONNXLibraryPath string `json:"onnx_library_path" env:"ENCODER_ONNX_LIBRARY_PATH"`
	} `json:"encoder"`

	// Pipeline contains the aggregation policy knobs.
	Pipeline struct {
		// LeadChunkWeight is the aggregation weight of the first chunk.
		LeadChunkWeight float64 `json:"lead_chunk_weight" env:"PIPELINE_LEAD_CHUNK_WEIGHT"`

		// RenormalizeAggregate rescales the final vector to unit norm.
		RenormalizeAggregate bool `json:"renormalize_aggregate" env:"PIPELINE_RENORMALIZE_AGGREGATE"`
	} `json:"pipeline"`

	// Cache contains the embedding cache configuration.
	Cache struct {
		// Enabled turns the embedding cache on.
		Enabled bool `json:"enabled" env:"CACHE_ENABLED"`

		// SQLitePath is the path to the SQLite cache file.
		SQLitePath string `json:"sqlite_path" env:"CACHE_SQLITE_PATH"`
	} `json:"cache"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".textembedconfig"
	DefaultSQLitePath     = ".textembed-cache.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultRevision       = "main"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.Model.Revision = DefaultRevision
	config.Encoder.Provider = "onnx"
	config.Pipeline.LeadChunkWeight = 1.2
	config.Cache.SQLitePath = DefaultSQLitePath
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Create a default logger for configuration loading
	stdLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create default configuration
	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	// Check if the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// File doesn't exist, return default config
		stdLogger.Info("Config file not found, using default configuration", "path", configPath)
		cfg.configPath = configPath
		cfg.lastModifiedAt = time.Now()
		return cfg, nil
	}

	stdLogger.Info("Loading configuration", "path", configPath)

	// Create configurator instance
	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider()).
		WithProvider(configurator.NewFileProvider(configPath)).
		WithProvider(configurator.NewEnvProvider("TEXTEMBED")).
		WithValidator(configurator.NewDefaultValidator())

	// Load configuration
	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Store the config path for future operations
	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Save using configurator's SaveToFile function
	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Update internal state
	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}
