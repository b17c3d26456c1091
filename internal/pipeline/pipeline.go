package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/localrivet/textembed/internal/encoder"
	"github.com/localrivet/textembed/internal/errortypes"
	"github.com/localrivet/textembed/internal/telemetry"
)

// Pipeline turns a token sequence of any length into one fixed-size vector
// using a bounded-context encoder. It holds no per-call state; every Embed
// invocation is independent.
type Pipeline struct {
	enc        encoder.Encoder
	maxSeqLen  int
	hiddenSize int

	// LeadChunkWeight is the aggregation weight of the first chunk.
	LeadChunkWeight float64

	// RenormalizeAggregate rescales the final vector to unit norm when set.
	// Off by default: the aggregate of unit vectors is deliberately left
	// with norm <= 1, matching the historical behavior consumers see.
	RenormalizeAggregate bool

	logger  *slog.Logger
	metrics *telemetry.MetricsCollector
}

// Options configures optional Pipeline behavior.
type Options struct {
	LeadChunkWeight      float64
	RenormalizeAggregate bool
	Logger               *slog.Logger
	Metrics              *telemetry.MetricsCollector
}

// New creates a Pipeline over the given encoder and model geometry.
func New(enc encoder.Encoder, maxSeqLen, hiddenSize int, opts Options) *Pipeline {
	if opts.LeadChunkWeight <= 0 {
		opts.LeadChunkWeight = DefaultLeadChunkWeight
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		enc:                  enc,
		maxSeqLen:            maxSeqLen,
		hiddenSize:           hiddenSize,
		LeadChunkWeight:      opts.LeadChunkWeight,
		RenormalizeAggregate: opts.RenormalizeAggregate,
		logger:               opts.Logger,
		metrics:              opts.Metrics,
	}
}

// Overlap returns the window overlap derived from the max sequence length.
func (p *Pipeline) Overlap() int {
	return p.maxSeqLen / OverlapDivisor
}

// validate checks the chunking parameters before any chunking work begins.
// A non-positive window or an overlap at or above the window size would make
// the chunker loop forever instead of failing.
func (p *Pipeline) validate() error {
	if p.maxSeqLen <= 0 {
		return errortypes.InvalidConfigError(
			fmt.Errorf("max sequence length %d must be positive", p.maxSeqLen),
			"invalid chunking configuration")
	}
	if overlap := p.Overlap(); overlap >= p.maxSeqLen {
		return errortypes.InvalidConfigError(
			fmt.Errorf("overlap %d must be smaller than max sequence length %d", overlap, p.maxSeqLen),
			"invalid chunking configuration")
	}
	if p.hiddenSize <= 0 {
		return errortypes.InvalidConfigError(
			fmt.Errorf("hidden size %d must be positive", p.hiddenSize),
			"invalid chunking configuration")
	}
	return nil
}

// Embed runs the full pipeline over a tokenized input: chunk, then for each
// chunk in order encode, pool, and normalize, then aggregate. Chunks are
// processed strictly in sequence because aggregation weights the first chunk
// by position. If any chunk fails, the whole call fails; there is no
// partial-result mode.
func (p *Pipeline) Embed(tokens []int64) ([]float32, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	chunks := chunkTokens(tokens, p.maxSeqLen, p.Overlap())
	p.logger.Debug("Chunked token sequence",
		"tokens", len(tokens), "chunks", len(chunks),
		"max_seq_len", p.maxSeqLen, "overlap", p.Overlap())
	if p.metrics != nil {
		p.metrics.IncrementCounter(telemetry.MetricTokensProcessed, int64(len(tokens)))
		p.metrics.IncrementCounter(telemetry.MetricChunksProcessed, int64(len(chunks)))
	}

	chunkVectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		vec, err := p.embedChunk(chunk)
		if err != nil {
			var appErr *errortypes.AppError
			if errors.As(err, &appErr) {
				appErr.WithField("chunk_index", i).WithField("chunk_start", chunk.Start)
			}
			return nil, err
		}
		chunkVectors = append(chunkVectors, vec)
	}

	result := aggregate(chunkVectors, p.LeadChunkWeight)
	if p.RenormalizeAggregate && len(result) > 0 {
		if err := normalize(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// embedChunk encodes one window and reduces it to a unit vector.
func (p *Pipeline) embedChunk(chunk Chunk) ([]float32, error) {
	// The encoder contract takes a token-type vector alongside the ids;
	// single-segment input uses all zeros.
	tokenTypeIDs := make([]int64, len(chunk.IDs))

	start := time.Now()
	hidden, err := p.enc.Forward(chunk.IDs, tokenTypeIDs)
	if err != nil {
		return nil, errortypes.EncodeError(err, "encoder forward pass failed")
	}
	if p.metrics != nil {
		p.metrics.RecordTimer(telemetry.MetricEncodeTime, time.Since(start))
	}

	if len(hidden) != len(chunk.IDs) {
		return nil, errortypes.EncodeError(
			fmt.Errorf("encoder returned %d hidden rows for %d tokens", len(hidden), len(chunk.IDs)),
			"encoder output shape mismatch")
	}
	for _, row := range hidden {
		if len(row) != p.hiddenSize {
			return nil, errortypes.EncodeError(
				fmt.Errorf("encoder returned hidden row of size %d, expected %d", len(row), p.hiddenSize),
				"encoder output shape mismatch")
		}
	}

	pooled := meanPool(hidden)
	if err := normalize(pooled); err != nil {
		return nil, err
	}
	return pooled, nil
}
