// Package pipeline implements the embedding pipeline core: splitting a token
// sequence into overlapping windows, pooling and normalizing each window's
// hidden states, and aggregating the window vectors into one document vector.
package pipeline

// Chunk is one contiguous window of a token sequence. Start is the offset of
// the window within the original sequence; IDs is never mutated after
// creation.
type Chunk struct {
	Start int
	IDs   []int64
}

// OverlapDivisor derives the window overlap from the window size:
// overlap = maxSeqLen / OverlapDivisor (integer division).
const OverlapDivisor = 10

// chunkTokens splits tokens into ordered windows of at most maxSeqLen ids,
// with consecutive windows sharing overlap ids. The final window may be
// shorter than maxSeqLen and may share fewer than overlap ids with its
// predecessor when truncated by the sequence end. Concatenating the windows'
// non-overlapping ranges reconstructs the input exactly.
//
// Callers must have validated maxSeqLen > 0 and overlap < maxSeqLen, or the
// loop makes no forward progress.
func chunkTokens(tokens []int64, maxSeqLen, overlap int) []Chunk {
	var chunks []Chunk
	start := 0

	for start < len(tokens) {
		end := start + maxSeqLen
		if end > len(tokens) {
			end = len(tokens)
		}
		ids := make([]int64, end-start)
		copy(ids, tokens[start:end])
		chunks = append(chunks, Chunk{Start: start, IDs: ids})
		// A window that reaches the sequence end is the last one; advancing
		// past it would emit a redundant suffix window when the sequence
		// length lands exactly on a window boundary.
		if end == len(tokens) {
			break
		}
		start += maxSeqLen - overlap
	}

	return chunks
}
