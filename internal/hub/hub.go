// Package hub fetches pretrained model artifacts from a model repository
// and caches them on local disk. Downloads are never retried here; callers
// decide whether a failed fetch is fatal.
package hub

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/localrivet/textembed/internal/telemetry"
)

// Well-known artifact filenames within a model repository.
const (
	ConfigFile        = "config.json"
	TokenizerFile     = "tokenizer.json"
	SafetensorsFile   = "model.safetensors"
	LegacyWeightsFile = "pytorch_model.bin"
)

const (
	// DefaultBaseURL is the HuggingFace hub endpoint.
	DefaultBaseURL = "https://huggingface.co"

	// DefaultRevision is the repository revision fetched when none is given.
	DefaultRevision = "main"

	// DefaultTimeout bounds a single artifact download. Weight files can be
	// hundreds of megabytes, so this is far looser than an API call timeout.
	DefaultTimeout = 10 * time.Minute
)

// Client downloads model artifacts and maintains a local file cache.
type Client struct {
	baseURL    string
	cacheDir   string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *telemetry.MetricsCollector
}

// Options configures a hub Client.
type Options struct {
	// BaseURL overrides the hub endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// CacheDir is where downloaded artifacts are kept. Defaults to
	// ~/.cache/textembed (or the OS temp dir when home is unavailable).
	CacheDir string

	// Timeout bounds a single download. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger receives download progress logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records download and cache-hit counts.
	Metrics *telemetry.MetricsCollector
}

// DefaultCacheDir returns the default location for cached artifacts.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "textembed")
	}
	return filepath.Join(home, ".cache", "textembed")
}

// NewClient creates a hub client with the given options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CacheDir == "" {
		opts.CacheDir = DefaultCacheDir()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		cacheDir: opts.CacheDir,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Get returns the local path of the named artifact for (modelID, revision),
// downloading it into the cache first if it is not already present.
func (c *Client) Get(modelID, revision, filename string) (string, error) {
	if modelID == "" {
		return "", fmt.Errorf("model id must not be empty")
	}
	if revision == "" {
		revision = DefaultRevision
	}

	localPath := c.cachePath(modelID, revision, filename)
	if _, err := os.Stat(localPath); err == nil {
		c.logger.Debug("Using cached artifact", "model", modelID, "revision", revision, "file", filename, "path", localPath)
		if c.metrics != nil {
			c.metrics.IncrementCounter(telemetry.MetricHubCacheHits, 1)
		}
		return localPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	fileURL := fmt.Sprintf("%s/%s/resolve/%s/%s",
		c.baseURL, modelID, url.PathEscape(revision), url.PathEscape(filename))

	c.logger.Info("Downloading artifact", "model", modelID, "revision", revision, "file", filename)
	if err := c.download(fileURL, localPath); err != nil {
		return "", err
	}

	if c.metrics != nil {
		c.metrics.IncrementCounter(telemetry.MetricHubDownloads, 1)
	}
	c.logger.Info("Downloaded artifact", "file", filename, "path", localPath)
	return localPath, nil
}

// download fetches fileURL into localPath, writing through a temp file so a
// partial download never lands at the final cache path.
func (c *Client) download(fileURL, localPath string) error {
	resp, err := c.httpClient.Get(fileURL)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: unexpected status %d", fileURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move download into cache: %w", err)
	}
	return nil
}

// cachePath maps (modelID, revision, filename) onto the cache layout.
// Slashes in the model id become directory separators under a models root,
// keeping one directory per snapshot.
func (c *Client) cachePath(modelID, revision, filename string) string {
	safeModel := strings.ReplaceAll(modelID, "/", "--")
	return filepath.Join(c.cacheDir, "models--"+safeModel, revision, filename)
}
