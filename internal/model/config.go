// Package model parses the pretrained encoder's configuration file into the
// two scalars the embedding pipeline depends on.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Config holds the encoder configuration values fixed for the lifetime of
// one loaded model instance.
type Config struct {
	// MaxSeqLen is the encoder's maximum token window size, taken from the
	// max_position_embeddings field of config.json.
	MaxSeqLen int

	// HiddenSize is the dimensionality of the encoder's per-token output.
	HiddenSize int
}

var (
	// ErrMissingMaxPositionEmbeddings indicates config.json lacks the
	// max_position_embeddings field.
	ErrMissingMaxPositionEmbeddings = errors.New("max position embeddings not found")

	// ErrMissingHiddenSize indicates config.json lacks the hidden_size field.
	ErrMissingHiddenSize = errors.New("hidden size not found")
)

// rawConfig mirrors only the config.json fields this service reads;
// everything else in the file belongs to the encoder.
type rawConfig struct {
	MaxPositionEmbeddings *int `json:"max_position_embeddings"`
	HiddenSize            *int `json:"hidden_size"`
}

// Parse extracts MaxSeqLen and HiddenSize from config.json contents.
// Both fields are required; absence or non-positive values are errors.
func Parse(contents []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model config: %w", err)
	}

	if raw.MaxPositionEmbeddings == nil || *raw.MaxPositionEmbeddings <= 0 {
		return nil, ErrMissingMaxPositionEmbeddings
	}
	if raw.HiddenSize == nil || *raw.HiddenSize <= 0 {
		return nil, ErrMissingHiddenSize
	}

	return &Config{
		MaxSeqLen:  *raw.MaxPositionEmbeddings,
		HiddenSize: *raw.HiddenSize,
	}, nil
}

// ParseFile reads and parses a config.json file from disk.
func ParseFile(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}
	return Parse(contents)
}
