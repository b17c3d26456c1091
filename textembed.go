// Package textembed embeds texts of any length into fixed-size semantic
// vectors using a bounded-context transformer encoder. Long inputs are
// split into overlapping token windows, each window is encoded and pooled
// independently, and the per-window vectors are combined into one.
package textembed

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/localrivet/textembed/internal/config"
	"github.com/localrivet/textembed/internal/encoder"
	"github.com/localrivet/textembed/internal/errortypes"
	"github.com/localrivet/textembed/internal/hub"
	"github.com/localrivet/textembed/internal/model"
	"github.com/localrivet/textembed/internal/pipeline"
	"github.com/localrivet/textembed/internal/server"
	"github.com/localrivet/textembed/internal/telemetry"
	"github.com/localrivet/textembed/internal/tokenizer"
	"github.com/localrivet/textembed/internal/util"
	"github.com/localrivet/textembed/internal/vector"
	"github.com/localrivet/textembed/internal/vectorcache"
	"github.com/localrivet/textembed/internal/weights"
)

// Config represents the configuration for the textembed service.
type Config = config.Config

// Model is a loaded embedding model ready to serve predictions. It bundles
// the tokenizer, the encoder backend, the checkpoint store, and the chunking
// pipeline behind a single handle.
type Model struct {
	config      *config.Config
	modelID     string
	revision    string
	modelConfig *model.Config
	tok         tokenizer.Tokenizer
	enc         encoder.Encoder
	store       weights.Store
	pipe        *pipeline.Pipeline
	cache       vectorcache.Cache
	metrics     *telemetry.MetricsCollector
	logger      *slog.Logger

	// mu serializes Predict calls: the encoder backend is not safe for
	// concurrent forward passes.
	mu sync.Mutex
}

// Options defines the options for creating a new Model.
type Options struct {
	Config     *Config      // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath string       // Path to config file. Used if Config is nil. If both are empty, DefaultConfig() is used.
	Logger     *slog.Logger // External logger. If nil, slog.Default() is used.
}

// DefaultConfig returns the default configuration for the textembed service.
func DefaultConfig() *Config {
	return config.NewConfig()
}

// Create loads the pretrained model identified by modelID and returns a
// handle ready for Predict. Artifacts are fetched from the model hub into
// the local cache on first use.
func Create(modelID string, opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
		logger.Info("Using provided Config object for model creation")
	} else if opts.ConfigPath != "" {
		logger.Info("Loading configuration for model creation", "path", opts.ConfigPath)
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			logger.Error("Failed to load configuration from path", "path", opts.ConfigPath, "error", err)
			return nil, errortypes.ConfigError(err, "failed to load configuration from path: "+opts.ConfigPath)
		}
	} else {
		cfg = DefaultConfig()
	}

	if modelID == "" {
		modelID = cfg.Model.ID
	}
	if modelID == "" {
		return nil, errortypes.ConfigError(
			fmt.Errorf("model id must not be empty"), "no model selected")
	}

	return create(cfg, modelID, logger)
}

// CreateWithConfig builds a Model from a fully resolved configuration.
func CreateWithConfig(cfg *Config, logger *slog.Logger) (*Model, error) {
	return create(cfg, cfg.Model.ID, logger)
}

// create wires the components for one model handle. The caller's Config is
// read, never written; the resolved model identity lives on the handle.
func create(cfg *Config, modelID string, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics := telemetry.NewMetricsCollector()

	revision := cfg.Model.Revision
	if revision == "" {
		revision = config.DefaultRevision
	}

	hubClient := hub.NewClient(hub.Options{
		CacheDir: cfg.Model.CacheDir,
		Logger:   logger,
		Metrics:  metrics,
	})

	logger.Info("Fetching model artifacts",
		"model_id", modelID, "revision", revision, "use_pth", cfg.Model.UsePTH)

	configPath, err := hubClient.Get(modelID, revision, hub.ConfigFile)
	if err != nil {
		return nil, errortypes.ModelLoadError(err, "failed to fetch model config")
	}
	tokenizerPath, err := hubClient.Get(modelID, revision, hub.TokenizerFile)
	if err != nil {
		return nil, errortypes.ModelLoadError(err, "failed to fetch tokenizer")
	}
	weightsFile := hub.SafetensorsFile
	if cfg.Model.UsePTH {
		weightsFile = hub.LegacyWeightsFile
	}
	weightsPath, err := hubClient.Get(modelID, revision, weightsFile)
	if err != nil {
		return nil, errortypes.ModelLoadError(err, "failed to fetch model weights")
	}

	modelConfig, err := model.ParseFile(configPath)
	if err != nil {
		return nil, errortypes.ModelLoadError(err, "failed to parse model config").
			WithField("path", configPath)
	}
	logger.Info("Parsed model config",
		"max_seq_len", modelConfig.MaxSeqLen, "hidden_size", modelConfig.HiddenSize)

	store, err := weights.Open(weightsPath, cfg.Model.UsePTH)
	if err != nil {
		return nil, errortypes.ModelLoadError(err, "failed to open checkpoint").
			WithField("path", weightsPath)
	}
	if err := weights.CheckHiddenSize(store, modelConfig.HiddenSize); err != nil {
		store.Close()
		return nil, errortypes.ModelLoadError(err, "checkpoint does not match model config")
	}
	logger.Info("Opened checkpoint",
		"format", store.Format(), "tensors", len(store.Tensors()))

	tok, err := tokenizer.NewHFTokenizer(tokenizerPath)
	if err != nil {
		store.Close()
		return nil, errortypes.ModelLoadError(err, "failed to load tokenizer").
			WithField("path", tokenizerPath)
	}

	enc, err := createEncoder(cfg, modelConfig, logger)
	if err != nil {
		tok.Close()
		store.Close()
		return nil, err
	}

	pipe := pipeline.New(enc, modelConfig.MaxSeqLen, modelConfig.HiddenSize, pipeline.Options{
		LeadChunkWeight:      cfg.Pipeline.LeadChunkWeight,
		RenormalizeAggregate: cfg.Pipeline.RenormalizeAggregate,
		Logger:               logger,
		Metrics:              metrics,
	})

	var cache vectorcache.Cache
	if cfg.Cache.Enabled {
		logger.Info("Initializing embedding cache", "path", cfg.Cache.SQLitePath)
		sqliteCache := vectorcache.NewSQLiteCache()
		if err := sqliteCache.Initialize(cfg.Cache.SQLitePath); err != nil {
			tok.Close()
			enc.Close()
			store.Close()
			return nil, errortypes.DatabaseError(err, "failed to initialize embedding cache")
		}
		cache = sqliteCache
	}

	logger.Info("Model ready",
		"model_id", modelID, "revision", revision,
		"max_input_len", modelConfig.MaxSeqLen, "hidden_size", modelConfig.HiddenSize)

	return &Model{
		config:      cfg,
		modelID:     modelID,
		revision:    revision,
		modelConfig: modelConfig,
		tok:         tok,
		enc:         enc,
		store:       store,
		pipe:        pipe,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// createEncoder builds the configured encoder backend.
func createEncoder(cfg *Config, modelConfig *model.Config, logger *slog.Logger) (encoder.Encoder, error) {
	switch cfg.Encoder.Provider {
	case encoder.ProviderONNX, "":
		logger.Info("Initializing ONNX encoder", "model_path", cfg.Encoder.ONNXModelPath)
		enc, err := encoder.NewONNXEncoder(encoder.ONNXConfig{
			ModelPath:   cfg.Encoder.ONNXModelPath,
			LibraryPath: cfg.Encoder.ONNXLibraryPath,
		})
		if err != nil {
			return nil, errortypes.ModelLoadError(err, "failed to initialize ONNX encoder")
		}
		return enc, nil
	case encoder.ProviderStub:
		logger.Warn("Using stub encoder; output vectors carry no semantics")
		return encoder.NewStubEncoder(modelConfig.HiddenSize), nil
	default:
		return nil, errortypes.ConfigError(
			fmt.Errorf("unknown encoder provider %q", cfg.Encoder.Provider),
			"invalid encoder configuration")
	}
}

// Predict embeds one text into a fixed-size vector. The text may be of any
// length; inputs longer than the encoder's context window are chunked and
// the chunk vectors combined. Calls are serialized on the handle.
func (m *Model) Predict(text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.IncrementCounter(telemetry.MetricPredictCalls, 1)
	start := time.Now()

	embedding, err := m.predictLocked(text)
	if err != nil {
		m.metrics.IncrementCounter(telemetry.MetricPredictFailure, 1)
		return nil, err
	}

	m.metrics.IncrementCounter(telemetry.MetricPredictSuccess, 1)
	m.metrics.RecordTimer(telemetry.MetricPredictTime, time.Since(start))
	return embedding, nil
}

func (m *Model) predictLocked(text string) ([]float32, error) {
	var cacheKey string
	if m.cache != nil {
		cacheKey = util.CacheKey(m.modelID, m.revision, text)
		cached, ok, err := m.cache.Get(cacheKey)
		if err != nil {
			// A broken cache must not take predictions down with it.
			m.logger.Warn("Embedding cache lookup failed", "error", err)
		} else if ok {
			m.metrics.IncrementCounter(telemetry.MetricCacheHits, 1)
			m.logger.Debug("Embedding cache hit", "text_length", len(text))
			return cached, nil
		} else {
			m.metrics.IncrementCounter(telemetry.MetricCacheMisses, 1)
		}
	}

	tokenizeStart := time.Now()
	tokens, err := m.tok.Encode(text)
	if err != nil {
		return nil, errortypes.TokenizeError(err, "failed to tokenize input").
			WithField("text_length", len(text))
	}
	m.metrics.RecordTimer(telemetry.MetricTokenizeTime, time.Since(tokenizeStart))
	m.logger.Debug("Tokenized input", "text_length", len(text), "tokens", len(tokens))

	embedding, err := m.pipe.Embed(tokens)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		if err := m.cache.Put(cacheKey, embedding, time.Now()); err != nil {
			m.logger.Warn("Failed to store embedding in cache", "error", err)
		}
	}
	return embedding, nil
}

// MaxInputLen returns the encoder's maximum token window size. Longer
// inputs are accepted by Predict and chunked internally.
func (m *Model) MaxInputLen() int {
	return m.modelConfig.MaxSeqLen
}

// HiddenSize returns the dimensionality of the vectors Predict produces.
func (m *Model) HiddenSize() int {
	return m.modelConfig.HiddenSize
}

// Describe returns the loaded model's identity and checkpoint details.
func (m *Model) Describe() server.ModelInfo {
	return server.ModelInfo{
		ModelID:      m.modelID,
		Revision:     m.revision,
		WeightFormat: m.store.Format(),
		TensorCount:  len(m.store.Tensors()),
	}
}

// Metrics returns the model's metrics collector.
func (m *Model) Metrics() *telemetry.MetricsCollector {
	return m.metrics
}

// Serve exposes the model over MCP on stdio. It blocks until the client
// disconnects.
func (m *Model) Serve() error {
	toolServer := server.NewEmbedToolServer(m)
	if err := toolServer.Initialize(); err != nil {
		return err
	}
	return toolServer.Start()
}

// CosineSimilarity returns the cosine similarity of two embeddings, so
// callers comparing Predict outputs do not need their own vector math.
func CosineSimilarity(a, b []float32) (float64, error) {
	return vector.CosineSimilarity(a, b)
}

// Close releases the tokenizer, encoder, checkpoint, and cache resources.
// The handle must not be used afterwards.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if err := m.tok.Close(); err != nil {
		firstErr = err
	}
	if err := m.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := m.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if m.cache != nil {
		if err := m.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.logger.Info("Model closed", "model_id", m.modelID)
	return firstErr
}
