// Package encoder defines the narrow capability interface the embedding
// pipeline requires from a transformer encoder, plus the built-in backends.
//
// The pipeline assumes nothing about the encoder beyond this contract: given
// one window of token ids (batch size 1) and a token-type vector of the same
// length, it returns one hidden-state row per token. Any compliant
// implementation can be substituted.
package encoder

// Encoder runs one forward pass of a transformer encoder over a single
// window of tokens.
type Encoder interface {
	// Forward returns per-token hidden states, one row of hidden_size
	// values per input token.
	Forward(tokenIDs, tokenTypeIDs []int64) ([][]float32, error)

	// Close releases any backend resources held by the encoder.
	Close() error
}

// Provider names selectable in configuration.
const (
	ProviderONNX = "onnx"
	ProviderStub = "stub"
)
