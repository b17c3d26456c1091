package pipeline

// meanPool reduces per-token hidden states to a single vector by taking the
// unweighted arithmetic mean over the token axis. No attention mask is
// applied: structural tokens emitted by the tokenizer contribute equally.
// This is a known approximation carried over deliberately, not a bug.
func meanPool(hidden [][]float32) []float32 {
	if len(hidden) == 0 {
		return nil
	}

	hiddenSize := len(hidden[0])
	pooled := make([]float32, hiddenSize)
	for _, row := range hidden {
		for j, val := range row {
			pooled[j] += val
		}
	}

	inv := 1.0 / float32(len(hidden))
	for j := range pooled {
		pooled[j] *= inv
	}
	return pooled
}
