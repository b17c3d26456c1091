package encoder

import "fmt"

// StubEncoder is a deterministic Encoder implementation for tests and dry
// runs. Each token's hidden state is its token id broadcast across all
// hidden channels, so pipeline results can be computed by hand.
type StubEncoder struct {
	hiddenSize int
}

// NewStubEncoder creates a StubEncoder producing vectors of the given size.
func NewStubEncoder(hiddenSize int) *StubEncoder {
	if hiddenSize <= 0 {
		hiddenSize = 8
	}
	return &StubEncoder{hiddenSize: hiddenSize}
}

// Forward broadcasts each token id across all hidden channels.
func (e *StubEncoder) Forward(tokenIDs, tokenTypeIDs []int64) ([][]float32, error) {
	if len(tokenTypeIDs) != len(tokenIDs) {
		return nil, fmt.Errorf("token type ids length %d does not match token ids length %d",
			len(tokenTypeIDs), len(tokenIDs))
	}

	hidden := make([][]float32, len(tokenIDs))
	for i, id := range tokenIDs {
		row := make([]float32, e.hiddenSize)
		for j := range row {
			row[j] = float32(id)
		}
		hidden[i] = row
	}
	return hidden, nil
}

// Close is a no-op for the stub backend.
func (e *StubEncoder) Close() error {
	return nil
}
