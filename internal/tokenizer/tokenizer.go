// Package tokenizer adapts subword tokenizers to the embedding pipeline.
//
// The pipeline only needs one operation: text in, token ids out, with the
// tokenizer's special tokens included and neither padding nor truncation
// applied. Padding and truncation behavior is fixed at construction time and
// never reconfigured per call, so a tokenizer instance can be shared across
// calls without racing on its settings.
package tokenizer

import (
	"fmt"

	"github.com/daulet/tokenizers"
)

// Tokenizer converts text into an ordered sequence of token ids.
type Tokenizer interface {
	// Encode tokenizes text with special tokens included.
	Encode(text string) ([]int64, error)

	// Close releases tokenizer resources.
	Close() error
}

// HFTokenizer wraps a HuggingFace tokenizer.json vocabulary.
type HFTokenizer struct {
	tk *tokenizers.Tokenizer
}

// NewHFTokenizer loads a tokenizer.json file from disk. The loaded tokenizer
// applies no padding and no truncation; long inputs are handled downstream
// by the chunker.
func NewHFTokenizer(path string) (*HFTokenizer, error) {
	tk, err := tokenizers.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer from %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}

// Encode tokenizes text with special tokens included.
func (t *HFTokenizer) Encode(text string) ([]int64, error) {
	if t.tk == nil {
		return nil, fmt.Errorf("tokenizer is closed")
	}

	ids, _ := t.tk.Encode(text, true)
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out, nil
}

// Close releases the underlying tokenizer.
func (t *HFTokenizer) Close() error {
	if t.tk != nil {
		t.tk.Close()
		t.tk = nil
	}
	return nil
}
