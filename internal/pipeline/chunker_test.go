package pipeline

import (
	"reflect"
	"testing"
)

func seqTokens(n int) []int64 {
	tokens := make([]int64, n)
	for i := range tokens {
		tokens[i] = int64(i)
	}
	return tokens
}

func TestChunkTokensShortSequence(t *testing.T) {
	tests := []struct {
		name      string
		length    int
		maxSeqLen int
		overlap   int
	}{
		{name: "shorter than window", length: 5, maxSeqLen: 10, overlap: 1},
		{name: "exactly one window", length: 10, maxSeqLen: 10, overlap: 1},
		{name: "single token", length: 1, maxSeqLen: 10, overlap: 9},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens := seqTokens(test.length)
			chunks := chunkTokens(tokens, test.maxSeqLen, test.overlap)

			if len(chunks) != 1 {
				t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
			}
			if chunks[0].Start != 0 {
				t.Errorf("chunk start = %d, expected 0", chunks[0].Start)
			}
			if !reflect.DeepEqual(chunks[0].IDs, tokens) {
				t.Errorf("chunk ids = %v, expected full sequence %v", chunks[0].IDs, tokens)
			}
		})
	}
}

func TestChunkTokensOverlappingWindows(t *testing.T) {
	// 25 tokens, window 10, overlap 1: windows [0,10) [9,19) [18,25).
	tokens := seqTokens(25)
	chunks := chunkTokens(tokens, 10, 1)

	wantStarts := []int{0, 9, 18}
	wantLens := []int{10, 10, 7}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Start != wantStarts[i] {
			t.Errorf("chunk %d start = %d, expected %d", i, chunk.Start, wantStarts[i])
		}
		if len(chunk.IDs) != wantLens[i] {
			t.Errorf("chunk %d length = %d, expected %d", i, len(chunk.IDs), wantLens[i])
		}
		for j, id := range chunk.IDs {
			if id != int64(chunk.Start+j) {
				t.Errorf("chunk %d id[%d] = %d, expected %d", i, j, id, chunk.Start+j)
			}
		}
	}

	// Consecutive windows share exactly one token.
	if chunks[0].IDs[9] != chunks[1].IDs[0] {
		t.Error("expected 1-token overlap between chunks 0 and 1")
	}
	if chunks[1].IDs[9] != chunks[2].IDs[0] {
		t.Error("expected 1-token overlap between chunks 1 and 2")
	}
}

func TestChunkTokensWindowBoundaryEnd(t *testing.T) {
	// When the last window ends exactly at the sequence end, no further
	// suffix window may be emitted after it.
	tests := []struct {
		name       string
		length     int
		maxSeqLen  int
		overlap    int
		wantStarts []int
	}{
		{name: "second window reaches end", length: 19, maxSeqLen: 10, overlap: 1, wantStarts: []int{0, 9}},
		{name: "no overlap even split", length: 20, maxSeqLen: 10, overlap: 0, wantStarts: []int{0, 10}},
		{name: "third window reaches end", length: 28, maxSeqLen: 10, overlap: 1, wantStarts: []int{0, 9, 18}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chunks := chunkTokens(seqTokens(test.length), test.maxSeqLen, test.overlap)

			if len(chunks) != len(test.wantStarts) {
				t.Fatalf("expected %d chunks, got %d", len(test.wantStarts), len(chunks))
			}
			for i, chunk := range chunks {
				if chunk.Start != test.wantStarts[i] {
					t.Errorf("chunk %d start = %d, expected %d", i, chunk.Start, test.wantStarts[i])
				}
			}
			last := chunks[len(chunks)-1]
			if last.Start+len(last.IDs) != test.length {
				t.Errorf("last chunk ends at %d, expected %d", last.Start+len(last.IDs), test.length)
			}
		})
	}
}

func TestChunkTokensCoverage(t *testing.T) {
	// Every token of the input must appear in some chunk at its original
	// position; nothing is dropped.
	tests := []struct {
		name      string
		length    int
		maxSeqLen int
		overlap   int
	}{
		{name: "no overlap", length: 100, maxSeqLen: 16, overlap: 0},
		{name: "typical overlap", length: 512, maxSeqLen: 128, overlap: 12},
		{name: "overlap near window size", length: 40, maxSeqLen: 10, overlap: 9},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tokens := seqTokens(test.length)
			chunks := chunkTokens(tokens, test.maxSeqLen, test.overlap)

			covered := make([]bool, test.length)
			for _, chunk := range chunks {
				if len(chunk.IDs) > test.maxSeqLen {
					t.Errorf("chunk at %d has length %d above max %d", chunk.Start, len(chunk.IDs), test.maxSeqLen)
				}
				for j, id := range chunk.IDs {
					pos := chunk.Start + j
					if id != tokens[pos] {
						t.Fatalf("chunk at %d misplaced token: id[%d] = %d, expected %d", chunk.Start, j, id, tokens[pos])
					}
					covered[pos] = true
				}
			}
			for pos, ok := range covered {
				if !ok {
					t.Errorf("token at position %d not covered by any chunk", pos)
				}
			}
		})
	}
}

func TestChunkTokensEmptyInput(t *testing.T) {
	if chunks := chunkTokens(nil, 10, 1); len(chunks) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestChunkTokensCopiesInput(t *testing.T) {
	tokens := seqTokens(5)
	chunks := chunkTokens(tokens, 10, 1)

	tokens[0] = 999
	if chunks[0].IDs[0] == 999 {
		t.Error("chunk shares backing storage with input sequence")
	}
}
