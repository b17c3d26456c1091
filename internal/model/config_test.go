package model

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		contents       string
		wantMaxSeqLen  int
		wantHiddenSize int
		wantErr        error
	}{
		{
			name:           "valid bert config",
			contents:       `{"max_position_embeddings": 512, "hidden_size": 384, "num_attention_heads": 12}`,
			wantMaxSeqLen:  512,
			wantHiddenSize: 384,
		},
		{
			name:     "missing max_position_embeddings",
			contents: `{"hidden_size": 384}`,
			wantErr:  ErrMissingMaxPositionEmbeddings,
		},
		{
			name:     "missing hidden_size",
			contents: `{"max_position_embeddings": 512}`,
			wantErr:  ErrMissingHiddenSize,
		},
		{
			name:     "zero max_position_embeddings",
			contents: `{"max_position_embeddings": 0, "hidden_size": 384}`,
			wantErr:  ErrMissingMaxPositionEmbeddings,
		},
		{
			name:     "negative hidden_size",
			contents: `{"max_position_embeddings": 512, "hidden_size": -1}`,
			wantErr:  ErrMissingHiddenSize,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Parse([]byte(test.contents))
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Errorf("Parse() error = %v, expected %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			if cfg.MaxSeqLen != test.wantMaxSeqLen {
				t.Errorf("MaxSeqLen = %d, expected %d", cfg.MaxSeqLen, test.wantMaxSeqLen)
			}
			if cfg.HiddenSize != test.wantHiddenSize {
				t.Errorf("HiddenSize = %d, expected %d", cfg.HiddenSize, test.wantHiddenSize)
			}
		})
	}
}

func TestParseMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("Parse() expected error for malformed JSON, got nil")
	}
}
